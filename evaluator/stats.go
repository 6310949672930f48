package evaluator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// BatchSizeStats is a snapshot of the rolling batch-size distribution.
type BatchSizeStats struct {
	Count    uint64
	Mean     float64
	Variance float64
}

// batchStats accumulates real_batch_size observations with Welford's
// algorithm, never taking a lock across a model call — runner.go records each
// batch just before the model call, and record releases the lock on return.
type batchStats struct {
	mu        sync.Mutex
	count     uint64
	mean      float64
	m2        float64
	histogram []uint64 // index i counts batches of real size i; index 0 unused

	registry      *prometheus.Registry
	batchSizeObs  prometheus.Histogram
	batchesServed prometheus.Counter
	itemsServed   prometheus.Counter
}

// newBatchStats builds a stats tracker with its own Prometheus registry, one
// per Evaluator instance. A package-level global registry would panic on
// repeated registration the moment a second Evaluator is constructed in the
// same process, which happens routinely in tests and in multi-model
// deployments; scoping the registry to the instance avoids that entirely.
func newBatchStats(maxBatchSize int) *batchStats {
	if maxBatchSize < 1 {
		maxBatchSize = 1
	}
	reg := prometheus.NewRegistry()
	obs := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "evaluator",
		Name:      "batch_size",
		Help:      "Observed real batch size per dispatched batch.",
		Buckets:   prometheus.LinearBuckets(1, 1, maxBatchSize),
	})
	served := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evaluator",
		Name:      "batches_served_total",
		Help:      "Total number of batches dispatched to a model.",
	})
	items := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evaluator",
		Name:      "items_served_total",
		Help:      "Total number of requests served across all batches.",
	})
	reg.MustRegister(obs, served, items)
	return &batchStats{
		histogram:     make([]uint64, maxBatchSize+1),
		registry:      reg,
		batchSizeObs:  obs,
		batchesServed: served,
		itemsServed:   items,
	}
}

// registerQueueDepth wires a GaugeFunc that samples the runner queue's
// current size on every Prometheus scrape. Only called when a queue
// actually exists (InferenceThreads > 0); inline mode has no queue depth to
// report.
func (s *batchStats) registerQueueDepth(sample func() float64) {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "evaluator",
		Name:      "queue_depth",
		Help:      "Current number of items waiting in the runner queue.",
	}, sample)
	s.registry.MustRegister(gauge)
}

// record folds one real_batch_size observation into the rolling mean and
// variance and the histogram.
func (s *batchStats) record(realBatchSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	delta := float64(realBatchSize) - s.mean
	s.mean += delta / float64(s.count)
	delta2 := float64(realBatchSize) - s.mean
	s.m2 += delta * delta2
	if realBatchSize >= 0 && realBatchSize < len(s.histogram) {
		s.histogram[realBatchSize]++
	}
	s.batchSizeObs.Observe(float64(realBatchSize))
	s.batchesServed.Inc()
	s.itemsServed.Add(float64(realBatchSize))
}

// snapshot returns the current rolling statistics.
func (s *batchStats) snapshot() BatchSizeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	variance := 0.0
	if s.count > 1 {
		variance = s.m2 / float64(s.count-1)
	}
	return BatchSizeStats{Count: s.count, Mean: s.mean, Variance: variance}
}

// histogramSnapshot returns a copy of the real-batch-size histogram, indexed
// by batch size.
func (s *batchStats) histogramSnapshot() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, len(s.histogram))
	copy(out, s.histogram)
	return out
}

// reset zeroes the rolling mean/variance/histogram. The Prometheus counters
// are cumulative by convention and are left untouched.
func (s *batchStats) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = 0
	s.mean = 0
	s.m2 = 0
	for i := range s.histogram {
		s.histogram[i] = 0
	}
}

package evaluator

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Skizdukion/my-open-spiel/internal/lrucache"
	"github.com/Skizdukion/my-open-spiel/internal/queue"
)

// Evaluator is the batched inference dispatcher. Actor goroutines call
// Inference/Evaluate/Prior concurrently; a pool of runner goroutines (or, in
// inline mode, the caller itself) drains coalesced requests in fixed-size
// batches and dispatches them through a DeviceManager.
type Evaluator struct {
	cfg    Config
	dm     *DeviceManager
	stop   *StopToken
	logger zerolog.Logger

	q          *queue.Queue[pendingItem]
	listenerMu sync.Mutex

	cache *lrucache.Cache[InferenceOutputs]

	stats *batchStats

	wg      sync.WaitGroup
	runners []*runner
}

// New constructs an Evaluator. dm must have at least one device registered
// before the first call. When cfg.BatchSize <= 1, the Evaluator runs in
// inline mode: no runner goroutines are spawned and every call executes
// synchronously against the device manager, bypassing the queue.
func New(cfg Config, dm *DeviceManager, stop *StopToken, logger zerolog.Logger) *Evaluator {
	cfg = cfg.normalized()

	e := &Evaluator{
		cfg:    cfg,
		dm:     dm,
		stop:   stop,
		logger: logger,
		stats:  newBatchStats(cfg.BatchSize),
	}

	if cfg.CacheCapacity > 0 {
		e.cache = lrucache.New[InferenceOutputs](cfg.CacheCapacity, cfg.CacheShards)
	}

	if cfg.InferenceThreads > 0 {
		e.q = queue.New[pendingItem](cfg.queueCapacity())
		e.runners = make([]*runner, cfg.InferenceThreads)
		for i := range e.runners {
			e.runners[i] = newRunner(i, e)
		}
		e.wg.Add(len(e.runners))
		for _, r := range e.runners {
			go r.loop()
		}
		e.stats.registerQueueDepth(func() float64 { return float64(e.q.Size()) })
	}

	return e
}

// inlineMode reports whether this Evaluator bypasses the queue and runner
// pool entirely.
func (e *Evaluator) inlineMode() bool {
	return e.cfg.InferenceThreads == 0
}

// cacheStore writes a result into the cache, if one is configured. Always
// stores a Clone so a later cache hit cannot be mutated by a caller holding
// the original outputs.
func (e *Evaluator) cacheStore(in InferenceInputs, out InferenceOutputs) {
	if e.cache == nil {
		return
	}
	e.cache.Set(in.Fingerprint(), out.Clone())
}

// Inference evaluates state, using the cache when configured and otherwise
// coalescing into the next batch (or calling the device inline). It blocks
// until a result is available, an error occurs, or the Evaluator shuts down.
func (e *Evaluator) Inference(state Game) (InferenceOutputs, error) {
	if e.stop.Stopped() {
		return InferenceOutputs{}, ErrShutdown
	}

	in := InferenceInputs{
		LegalActions: state.LegalActions(),
		Observation:  state.ObservationTensor(),
	}

	span := traceInference(len(in.LegalActions))
	defer span.End()

	if e.cache != nil {
		if hit, ok := e.cache.Get(in.Fingerprint()); ok {
			return hit.Clone(), nil
		}
	}

	if e.inlineMode() {
		return e.inferenceInline(in)
	}

	future := queue.NewFuture[InferenceOutputs]()
	if !e.q.Push(pendingItem{inputs: in, future: future, spanCtx: span.SpanContext()}) {
		return InferenceOutputs{}, ErrShutdown
	}
	out, err := future.Wait()
	if err != nil {
		if err == queue.ErrCancelled {
			return InferenceOutputs{}, ErrShutdown
		}
		return InferenceOutputs{}, err
	}
	return out, nil
}

// inferenceInline services a single request directly against the device
// manager, used when batch_size <= 1 makes a runner pool pointless.
func (e *Evaluator) inferenceInline(in InferenceInputs) (InferenceOutputs, error) {
	ref := e.dm.Get(1)
	if ref == nil {
		return InferenceOutputs{}, ErrModelFailure(errNoDevice)
	}
	outputs, err := ref.Inference([]InferenceInputs{in})
	if err != nil {
		return InferenceOutputs{}, ErrModelFailure(err)
	}
	if len(outputs) == 0 {
		return InferenceOutputs{}, ErrModelFailure(errShortOutput)
	}
	e.stats.record(1)
	e.cacheStore(in, outputs[0])
	return outputs[0], nil
}

// Evaluate returns the two-player zero-sum value pair [v, -v] for state,
// where v is the model's value estimate from the current player's
// perspective. This assumes a zero-sum two-player game; games outside that
// shape are out of scope and Evaluate does not guard against them.
func (e *Evaluator) Evaluate(state Game) ([2]float32, error) {
	out, err := e.Inference(state)
	if err != nil {
		return [2]float32{}, err
	}
	return [2]float32{out.Value, -out.Value}, nil
}

// Prior returns the action-probability distribution for state. A chance
// node bypasses the model entirely, returning the game's intrinsic outcome
// distribution.
func (e *Evaluator) Prior(state Game) (Policy, error) {
	if state.IsChanceNode() {
		return state.ChanceOutcomes(), nil
	}
	out, err := e.Inference(state)
	if err != nil {
		return nil, err
	}
	return out.Policy, nil
}

// ClearCache discards all cached entries without resetting hit/miss/eviction
// counters. A no-op if no cache is configured.
func (e *Evaluator) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// CacheInfo reports the aggregate cache state. The zero value if no cache
// is configured.
func (e *Evaluator) CacheInfo() lrucache.Info {
	if e.cache == nil {
		return lrucache.Info{}
	}
	return e.cache.Info()
}

// BatchSizeStats reports the rolling real-batch-size distribution.
func (e *Evaluator) BatchSizeStats() BatchSizeStats {
	return e.stats.snapshot()
}

// Registry returns this Evaluator's own Prometheus registry, scoped to the
// instance rather than the process, so multiple Evaluators (as in tests, or
// multiple models in one process) never collide on metric registration.
func (e *Evaluator) Registry() *prometheus.Registry {
	return e.stats.registry
}

// BatchSizeHistogram reports a copy of the real-batch-size histogram,
// indexed by batch size.
func (e *Evaluator) BatchSizeHistogram() []uint64 {
	return e.stats.histogramSnapshot()
}

// ResetBatchSizeStats zeroes the rolling mean/variance/histogram.
func (e *Evaluator) ResetBatchSizeStats() {
	e.stats.reset()
}

// Stop latches the stop token, blocks new pushes, cancels every item still
// sitting in the queue, and waits for every runner goroutine to exit. A
// request still blocked in Push wakes immediately and its caller observes
// ErrShutdown; a request whose future is cancelled here observes the same
// via ErrShutdown once its Wait returns. An item a runner has already
// popped into an in-progress batch is unaffected and is fulfilled normally
// — cancellation only reaches items still waiting in the queue at the
// moment Stop runs. Safe to call once; a second call is a no-op beyond
// re-latching an already-stopped token and draining an already-empty queue.
func (e *Evaluator) Stop() {
	e.stop.Stop()
	if e.q == nil {
		return
	}
	e.q.BlockNewValues()
	e.cancelQueued()
	e.q.Clear()
	e.wg.Wait()
}

// cancelQueued drains every item still in the queue and cancels its future,
// racing harmlessly with runner goroutines doing the same Pop: whichever
// side pops an item owns it, so an item a runner pops here is dispatched
// normally instead of cancelled. Pop never blocks once BlockNewValues has
// latched — it returns false as soon as the queue is empty.
func (e *Evaluator) cancelQueued() {
	for {
		item, ok := e.q.Pop(time.Time{})
		if !ok {
			return
		}
		item.future.Cancel()
	}
}

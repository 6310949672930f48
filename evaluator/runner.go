package evaluator

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Skizdukion/my-open-spiel/internal/queue"
)

// pendingItem pairs one InferenceInputs with the Future its caller is
// waiting on and the SpanContext of its originating Inference call, so the
// runner that eventually batches it can link the batch span back to every
// caller it coalesced.
type pendingItem struct {
	inputs  InferenceInputs
	future  *queue.Future[InferenceOutputs]
	spanCtx trace.SpanContext
}

// runner is one batch-assembly/dispatch goroutine. Multiple runners share a
// single queue and a single listenerMu, so batch *assembly* — draining the
// queue up to batch_size items — is serialized across runners, but the
// model call itself runs outside that lock and can overlap across runners
// and devices.
type runner struct {
	id        int
	e         *Evaluator
	log       zerolog.Logger
	lastStats time.Time
	itemsSum  uint64
	latencySum time.Duration
	batches    uint64
}

func newRunner(id int, e *Evaluator) *runner {
	return &runner{
		id:        id,
		e:         e,
		log:       e.logger.With().Int("runner", id).Logger(),
		lastStats: time.Now(),
	}
}

// loop drains the queue into batches of up to e.cfg.BatchSize and dispatches
// each to a device, until the stop token latches and the queue is empty.
func (r *runner) loop() {
	defer r.e.wg.Done()
	for {
		batch, handles, spanCtxs, ok := r.assembleBatch()
		if !ok {
			return
		}
		if len(batch) == 0 {
			continue
		}
		r.dispatch(batch, handles, spanCtxs)
	}
}

// assembleBatch acquires the listener mutex, pops up to batch_size items —
// blocking indefinitely for the first item, then with a short relative
// deadline for the rest so a partial batch is never held open forever — and
// releases the mutex before returning. The model call in dispatch runs
// without the mutex held.
func (r *runner) assembleBatch() (batch []InferenceInputs, handles []*queue.Future[InferenceOutputs], spanCtxs []trace.SpanContext, ok bool) {
	r.e.listenerMu.Lock()
	defer r.e.listenerMu.Unlock()

	batchSize := r.e.cfg.BatchSize
	batch = make([]InferenceInputs, 0, batchSize)
	handles = make([]*queue.Future[InferenceOutputs], 0, batchSize)
	spanCtxs = make([]trace.SpanContext, 0, batchSize)

	first, popped := r.e.q.Pop(time.Time{})
	if !popped {
		if r.e.stop.Stopped() {
			return nil, nil, nil, false
		}
		return nil, nil, nil, true
	}
	batch = append(batch, first.inputs)
	handles = append(handles, first.future)
	spanCtxs = append(spanCtxs, first.spanCtx)

	deadline := time.Now().Add(time.Millisecond)
	for len(batch) < batchSize {
		item, popped := r.e.q.Pop(deadline)
		if !popped {
			break
		}
		batch = append(batch, item.inputs)
		handles = append(handles, item.future)
		spanCtxs = append(spanCtxs, item.spanCtx)
	}
	return batch, handles, spanCtxs, true
}

// dispatch pads batch to batch_size by duplicating the first element,
// invokes the device, records stats, and fulfills exactly the real handles.
func (r *runner) dispatch(batch []InferenceInputs, handles []*queue.Future[InferenceOutputs], spanCtxs []trace.SpanContext) {
	realBatchSize := len(batch)
	padded := batch
	if r.e.cfg.BatchSize > realBatchSize {
		padded = make([]InferenceInputs, r.e.cfg.BatchSize)
		copy(padded, batch)
		for i := realBatchSize; i < len(padded); i++ {
			padded[i] = batch[0]
		}
	}

	links := make([]trace.Link, 0, len(spanCtxs))
	for _, sc := range spanCtxs {
		if sc.IsValid() {
			links = append(links, trace.Link{SpanContext: sc})
		}
	}
	span := traceBatch(realBatchSize, len(padded), links)
	defer span.End()

	r.e.stats.record(realBatchSize)
	r.itemsSum += uint64(realBatchSize)
	r.batches++

	ref := r.e.dm.Get(r.e.cfg.BatchSize)
	start := time.Now()
	var outputs []InferenceOutputs
	var err error
	if ref == nil {
		err = ErrModelFailure(errNoDevice)
	} else {
		outputs, err = ref.Inference(padded)
	}
	r.latencySum += time.Since(start)

	if err != nil {
		wrapped := ErrModelFailure(err)
		for _, h := range handles {
			h.Fail(wrapped)
		}
		r.maybeLogThroughput()
		return
	}
	for i, h := range handles {
		if i >= len(outputs) {
			h.Fail(ErrModelFailure(errShortOutput))
			continue
		}
		out := outputs[i]
		r.e.cacheStore(batch[i], out)
		h.Fulfill(out)
	}
	r.maybeLogThroughput()
}

// maybeLogThroughput emits one throughput line every 5 wall-clock seconds,
// the way a long-running dispatcher reports health without flooding logs
// per batch.
func (r *runner) maybeLogThroughput() {
	now := time.Now()
	if now.Sub(r.lastStats) < 5*time.Second {
		return
	}
	elapsed := now.Sub(r.lastStats).Seconds()
	avgBatch := 0.0
	avgLatencyMs := 0.0
	if r.batches > 0 {
		avgBatch = float64(r.itemsSum) / float64(r.batches)
		avgLatencyMs = float64(r.latencySum.Milliseconds()) / float64(r.batches)
	}
	itemsPerSec := 0.0
	if elapsed > 0 {
		itemsPerSec = float64(r.itemsSum) / elapsed
	}
	r.log.Info().
		Float64("items_per_sec", itemsPerSec).
		Float64("avg_batch_size", avgBatch).
		Float64("avg_model_latency_ms", avgLatencyMs).
		Msg("runner throughput")
	r.lastStats = now
	r.itemsSum = 0
	r.latencySum = 0
	r.batches = 0
}

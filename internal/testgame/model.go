package testgame

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Skizdukion/my-open-spiel/evaluator"
)

// FixtureModel is a deterministic evaluator.Model used by tests and
// evalbench: it returns a uniform policy over each input's legal actions
// and a value of 0, after sleeping Latency (if set) to simulate a real
// network's per-batch cost. CallCount and BatchSizes record every call it
// receives, for assertions on coalescing and padding behavior.
type FixtureModel struct {
	Latency time.Duration

	mu         sync.Mutex
	callCount  int
	batchSizes []int

	calls atomic.Int64
}

var _ evaluator.Model = (*FixtureModel)(nil)

// Inference implements evaluator.Model.
func (m *FixtureModel) Inference(batch []evaluator.InferenceInputs) ([]evaluator.InferenceOutputs, error) {
	if m.Latency > 0 {
		time.Sleep(m.Latency)
	}
	m.calls.Add(1)
	m.mu.Lock()
	m.callCount++
	m.batchSizes = append(m.batchSizes, len(batch))
	m.mu.Unlock()

	out := make([]evaluator.InferenceOutputs, len(batch))
	for i, in := range batch {
		p := make(evaluator.Policy, len(in.LegalActions))
		uniform := 1.0 / float64(len(in.LegalActions))
		for _, a := range in.LegalActions {
			p[a] = uniform
		}
		out[i] = evaluator.InferenceOutputs{Value: 0, Policy: p}
	}
	return out, nil
}

// CallCount reports how many times Inference was invoked.
func (m *FixtureModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// BatchSizes reports the length of each batch Inference received, in call
// order.
func (m *FixtureModel) BatchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.batchSizes))
	copy(out, m.batchSizes)
	return out
}

// FailingModel always returns err from Inference, for exercising the
// evaluator's error-propagation path.
type FailingModel struct {
	Err error
}

var _ evaluator.Model = FailingModel{}

func (m FailingModel) Inference(batch []evaluator.InferenceInputs) ([]evaluator.InferenceOutputs, error) {
	return nil, m.Err
}

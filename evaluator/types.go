package evaluator

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// Game is the slice of game-state surface the dispatcher consumes. The game
// rules themselves — board representation, move legality, scoring — are an
// external collaborator; the dispatcher only ever calls these four methods.
type Game interface {
	// LegalActions returns the ordered list of legal action ids for the
	// current state.
	LegalActions() []int64
	// ObservationTensor returns a flat single-precision encoding of the
	// state, shape fixed per game.
	ObservationTensor() []float32
	// IsChanceNode reports whether the current state is a chance node,
	// in which case the model is never invoked.
	IsChanceNode() bool
	// ChanceOutcomes returns the game's intrinsic chance distribution for
	// a chance node. Only called when IsChanceNode reports true.
	ChanceOutcomes() Policy
}

// Policy maps an action id to a probability. It is used both for model
// priors and for a chance node's intrinsic outcome distribution.
type Policy map[int64]float64

// Model is the neural network contract consumed from outside: a pure,
// synchronous function from a batch of inputs to a batch of outputs of
// matching length. Loading, checkpointing, and the network architecture
// itself are all external collaborators.
type Model interface {
	Inference(batch []InferenceInputs) ([]InferenceOutputs, error)
}

// InferenceInputs is one evaluation request: the legal actions for the
// current state plus its observation tensor. It is value-typed and cheap to
// copy; Fingerprint computes its cache key.
type InferenceInputs struct {
	LegalActions []int64
	Observation  []float32
}

// Fingerprint returns a 64-bit hash over both fields, treated by the cache
// as a strong, effectively collision-free key. A collision (same
// fingerprint, different inputs) is tolerated — at worst it serves a stale
// or unrelated cache hit, which is the cache's advisory nature working as
// intended, not a correctness bug, as long as the hash is strong. The cache
// keys on the fingerprint alone and never compares the underlying inputs.
func (in InferenceInputs) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, a := range in.LegalActions {
		putUint64(&buf, uint64(a))
		_, _ = d.Write(buf[:])
	}
	for _, f := range in.Observation {
		putUint64(&buf, uint64(math.Float32bits(f)))
		_, _ = d.Write(buf[:4])
	}
	return d.Sum64()
}

func putUint64(buf *[8]byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

// InferenceOutputs is one evaluation response: a scalar value estimate for
// the current player, and a policy over the legal-action set.
type InferenceOutputs struct {
	Value  float32
	Policy Policy
}

// Clone returns a deep copy, so a cache hit can hand out a value that a
// caller is free to mutate without corrupting the cached entry or another
// concurrent caller's copy.
func (o InferenceOutputs) Clone() InferenceOutputs {
	p := make(Policy, len(o.Policy))
	for k, v := range o.Policy {
		p[k] = v
	}
	return InferenceOutputs{Value: o.Value, Policy: p}
}

package testgame

import "github.com/Skizdukion/my-open-spiel/evaluator"

// DiceConnect wraps Connect with an alternating chance node: before each
// player's placement, a die roll (modeled as a chance node over a small
// fixed outcome set) determines a bonus the benchmark/tests can ignore, but
// which exercises the evaluator's chance-node bypass — Prior must never
// invoke the model for these states.
type DiceConnect struct {
	inner      Connect
	chanceNode bool
}

var _ evaluator.Game = DiceConnect{}

// NewDiceConnect returns the starting state, which begins at a chance node.
func NewDiceConnect(size, k int) DiceConnect {
	return DiceConnect{inner: NewConnect(size, k), chanceNode: true}
}

func (d DiceConnect) LegalActions() []int64 {
	if d.chanceNode {
		return []int64{0, 1, 2}
	}
	return d.inner.LegalActions()
}

func (d DiceConnect) ObservationTensor() []float32 {
	return d.inner.ObservationTensor()
}

func (d DiceConnect) IsChanceNode() bool { return d.chanceNode }

// ChanceOutcomes returns a uniform distribution over three die faces.
func (d DiceConnect) ChanceOutcomes() evaluator.Policy {
	return evaluator.Policy{0: 1.0 / 3, 1: 1.0 / 3, 2: 1.0 / 3}
}

// ResolveChance transitions out of the chance node into the underlying
// Connect state, ignoring the sampled outcome (the fixture has no use for
// it beyond exercising the bypass).
func (d DiceConnect) ResolveChance(outcome int64) DiceConnect {
	return DiceConnect{inner: d.inner, chanceNode: false}
}

// Apply places a stone and returns to the chance node for the next turn.
func (d DiceConnect) Apply(action int64) DiceConnect {
	return DiceConnect{inner: d.inner.Apply(action), chanceNode: true}
}

func (d DiceConnect) Terminal() bool { return d.inner.Terminal() }
func (d DiceConnect) Winner() Cell   { return d.inner.Winner() }

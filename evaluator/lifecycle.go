package evaluator

import "sync/atomic"

// StopToken is a monotonic, cooperative shutdown signal shared by an
// Evaluator and its runner goroutines. Once Stop is called it never resets.
type StopToken struct {
	stopped atomic.Bool
}

// NewStopToken returns a fresh, unstopped token.
func NewStopToken() *StopToken {
	return &StopToken{}
}

// Stop latches the token. Safe to call more than once and from any
// goroutine.
func (t *StopToken) Stop() {
	t.stopped.Store(true)
}

// Stopped reports whether Stop has been called.
func (t *StopToken) Stopped() bool {
	return t.stopped.Load()
}

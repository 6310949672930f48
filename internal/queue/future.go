package queue

import "sync"

// Future is a single-producer single-consumer one-shot completion handle:
// one side (a runner) fulfills it exactly once, the other side (an actor)
// blocks in Wait until it is fulfilled or cancelled. It must not be reused
// after either happens.
type Future[T any] struct {
	ch   chan outcome[T]
	once sync.Once
}

type outcome[T any] struct {
	value     T
	err       error
	cancelled bool
}

// NewFuture creates an unfulfilled Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{ch: make(chan outcome[T], 1)}
}

// Fulfill sets the result. Only the first call among Fulfill/Fail/Cancel on
// a given Future has any effect; later calls are silently ignored — the
// invariant that a handle is fulfilled at most once is enforced here rather
// than trusted to the caller.
func (f *Future[T]) Fulfill(value T) {
	f.once.Do(func() { f.ch <- outcome[T]{value: value} })
}

// Fail delivers a fatal error (e.g. a model failure) to the waiter.
func (f *Future[T]) Fail(err error) {
	f.once.Do(func() { f.ch <- outcome[T]{err: err} })
}

// Cancel wakes the waiter with ErrCancelled, used during shutdown for
// handles that were popped but will never be batched.
func (f *Future[T]) Cancel() {
	f.once.Do(func() { f.ch <- outcome[T]{cancelled: true} })
}

// Wait blocks until the handle is fulfilled, failed, or cancelled, then
// transfers ownership of the result to the caller. Wait may be called only
// once; the handle is consumed by it.
func (f *Future[T]) Wait() (T, error) {
	o := <-f.ch
	if o.cancelled {
		return o.value, ErrCancelled
	}
	return o.value, o.err
}

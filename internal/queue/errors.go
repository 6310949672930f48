package queue

import "errors"

// ErrCancelled is returned by Future.Wait when the handle was cancelled
// instead of fulfilled, typically because the dispatcher shut down before a
// popped item could be batched and run.
var ErrCancelled = errors.New("queue: future cancelled")

package evaluator

import (
	"errors"
	"testing"
)

func TestIsShutdownOnlyMatchesShutdownError(t *testing.T) {
	if !IsShutdown(ErrShutdown) {
		t.Fatalf("IsShutdown(ErrShutdown) = false")
	}
	if IsShutdown(errors.New("other")) {
		t.Fatalf("IsShutdown matched a non-shutdown error")
	}
}

func TestModelFailureWrapsAndUnwraps(t *testing.T) {
	cause := errors.New("boom")
	wrapped := ErrModelFailure(cause)
	if !IsModelFailure(wrapped) {
		t.Fatalf("IsModelFailure(wrapped) = false")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatalf("errors.Is(wrapped, cause) = false")
	}
}

package queue

import (
	"errors"
	"testing"
	"time"
)

func TestFutureFulfillThenWait(t *testing.T) {
	f := NewFuture[int]()
	f.Fulfill(42)
	v, err := f.Wait()
	if err != nil {
		t.Fatalf("Wait() err = %v, want nil", err)
	}
	if v != 42 {
		t.Fatalf("Wait() value = %d, want 42", v)
	}
}

func TestFutureWaitBlocksUntilFulfilled(t *testing.T) {
	f := NewFuture[string]()
	done := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Fulfill("result")
		close(done)
	}()
	v, err := f.Wait()
	<-done
	if err != nil || v != "result" {
		t.Fatalf("Wait() = %q, %v; want \"result\", nil", v, err)
	}
}

func TestFutureCancelSurfacesErrCancelled(t *testing.T) {
	f := NewFuture[int]()
	f.Cancel()
	_, err := f.Wait()
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Wait() err = %v, want ErrCancelled", err)
	}
}

func TestFutureFailSurfacesError(t *testing.T) {
	f := NewFuture[int]()
	want := errors.New("model exploded")
	f.Fail(want)
	_, err := f.Wait()
	if !errors.Is(err, want) {
		t.Fatalf("Wait() err = %v, want %v", err, want)
	}
}

func TestFutureSecondFulfillIsIgnored(t *testing.T) {
	f := NewFuture[int]()
	f.Fulfill(1)
	f.Fulfill(2) // must not panic or deadlock
	v, _ := f.Wait()
	if v != 1 {
		t.Fatalf("Wait() = %d, want 1 (first fulfillment wins)", v)
	}
}

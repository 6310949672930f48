package evaluator

import "testing"

func TestStopTokenLatchesAndIsIdempotent(t *testing.T) {
	tok := NewStopToken()
	if tok.Stopped() {
		t.Fatalf("fresh StopToken should not be stopped")
	}
	tok.Stop()
	tok.Stop()
	if !tok.Stopped() {
		t.Fatalf("StopToken should report stopped after Stop()")
	}
}

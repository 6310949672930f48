package evaluator_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	. "github.com/Skizdukion/my-open-spiel/evaluator"
	"github.com/Skizdukion/my-open-spiel/internal/testgame"
)

var errBoom = errors.New("model exploded")

func newTestEvaluator(cfg Config, model *testgame.FixtureModel) *Evaluator {
	dm := NewDeviceManager()
	dm.AddDevice(model)
	return New(cfg, dm, NewStopToken(), zerolog.Nop())
}

func TestInlineModeSingleCall(t *testing.T) {
	model := &testgame.FixtureModel{}
	e := newTestEvaluator(Config{BatchSize: 1}, model)
	defer e.Stop()

	g := testgame.NewConnect(3, 3)
	out, err := e.Inference(g)
	if err != nil {
		t.Fatalf("Inference() err = %v", err)
	}
	if len(out.Policy) != 9 {
		t.Fatalf("Policy len = %d, want 9", len(out.Policy))
	}
	if model.CallCount() != 1 {
		t.Fatalf("CallCount() = %d, want 1", model.CallCount())
	}
}

func TestCachedRepeatSkipsModel(t *testing.T) {
	model := &testgame.FixtureModel{}
	e := newTestEvaluator(Config{BatchSize: 1, CacheCapacity: 1024, CacheShards: 1}, model)
	defer e.Stop()

	g := testgame.NewConnect(3, 3)
	if _, err := e.Inference(g); err != nil {
		t.Fatalf("Inference() err = %v", err)
	}
	if _, err := e.Inference(g); err != nil {
		t.Fatalf("Inference() err = %v", err)
	}
	if model.CallCount() != 1 {
		t.Fatalf("CallCount() = %d, want 1 (second call should be a cache hit)", model.CallCount())
	}
	info := e.CacheInfo()
	if info.Hits != 1 || info.Misses != 1 {
		t.Fatalf("CacheInfo() = %+v, want 1 hit and 1 miss", info)
	}
}

func TestBatchedCoalescingNoPadding(t *testing.T) {
	model := &testgame.FixtureModel{Latency: 20 * time.Millisecond}
	e := newTestEvaluator(Config{BatchSize: 8, InferenceThreads: 1}, model)
	defer e.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			g := testgame.NewConnect(4, 4).Apply(seed)
			if _, err := e.Inference(g); err != nil {
				t.Errorf("Inference() err = %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	if model.CallCount() != 1 {
		t.Fatalf("CallCount() = %d, want 1", model.CallCount())
	}
	sizes := model.BatchSizes()
	if len(sizes) != 1 || sizes[0] != 8 {
		t.Fatalf("BatchSizes() = %v, want [8]", sizes)
	}
}

func TestPartialBatchPadding(t *testing.T) {
	model := &testgame.FixtureModel{}
	e := newTestEvaluator(Config{BatchSize: 8, InferenceThreads: 1}, model)
	defer e.Stop()

	var wg sync.WaitGroup
	results := make([]InferenceOutputs, 3)
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(idx int, seed int64) {
			defer wg.Done()
			g := testgame.NewConnect(5, 4).Apply(seed)
			results[idx], errs[idx] = e.Inference(g)
		}(i, int64(i))
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Inference()[%d] err = %v", i, err)
		}
	}
	sizes := model.BatchSizes()
	if len(sizes) != 1 || sizes[0] != 8 {
		t.Fatalf("BatchSizes() = %v, want [8] (padded)", sizes)
	}
	stats := e.BatchSizeStats()
	if stats.Count != 1 || stats.Mean != 3 {
		t.Fatalf("BatchSizeStats() = %+v, want real_batch_size 3 recorded", stats)
	}
}

func TestChanceNodeBypassesModel(t *testing.T) {
	model := &testgame.FixtureModel{}
	e := newTestEvaluator(Config{BatchSize: 1}, model)
	defer e.Stop()

	g := testgame.NewDiceConnect(3, 3)
	policy, err := e.Prior(g)
	if err != nil {
		t.Fatalf("Prior() err = %v", err)
	}
	if len(policy) != 3 {
		t.Fatalf("Prior() len = %d, want 3", len(policy))
	}
	if model.CallCount() != 0 {
		t.Fatalf("CallCount() = %d, want 0 (chance node must bypass the model)", model.CallCount())
	}
}

func TestShutdownDrainsRunnersWithinOneSecond(t *testing.T) {
	model := &testgame.FixtureModel{Latency: 5 * time.Millisecond}
	e := newTestEvaluator(Config{BatchSize: 4, InferenceThreads: 2}, model)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			g := testgame.NewConnect(4, 4).Apply(seed)
			e.Inference(g)
		}(int64(i))
	}

	done := make(chan struct{})
	go func() {
		e.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop() did not return within 1s")
	}

	if _, err := e.Inference(testgame.NewConnect(3, 3)); !IsShutdown(err) {
		t.Fatalf("Inference() after Stop() err = %v, want ErrShutdown", err)
	}
	wg.Wait()
}

func TestEvaluateReturnsZeroSumPair(t *testing.T) {
	model := &testgame.FixtureModel{}
	e := newTestEvaluator(Config{BatchSize: 1}, model)
	defer e.Stop()

	pair, err := e.Evaluate(testgame.NewConnect(3, 3))
	if err != nil {
		t.Fatalf("Evaluate() err = %v", err)
	}
	if pair[0] != -pair[1] {
		t.Fatalf("Evaluate() = %v, want a zero-sum pair", pair)
	}
}

func TestModelFailurePropagatesAsModelFailure(t *testing.T) {
	dm := NewDeviceManager()
	dm.AddDevice(testgame.FailingModel{Err: errBoom})
	e := New(Config{BatchSize: 1}, dm, NewStopToken(), zerolog.Nop())
	defer e.Stop()

	_, err := e.Inference(testgame.NewConnect(3, 3))
	if !IsModelFailure(err) {
		t.Fatalf("Inference() err = %v, want a model-failure error", err)
	}
}

package httpdebug

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Skizdukion/my-open-spiel/evaluator"
	"github.com/Skizdukion/my-open-spiel/internal/testgame"
)

func newTestEvaluator(t *testing.T) *evaluator.Evaluator {
	t.Helper()
	dm := evaluator.NewDeviceManager()
	dm.AddDevice(&testgame.FixtureModel{})
	return evaluator.New(evaluator.Config{BatchSize: 1}, dm, evaluator.NewStopToken(), zerolog.Nop())
}

func TestHealthzReportsOK(t *testing.T) {
	e := newTestEvaluator(t)
	defer e.Stop()
	mux := NewMux(e, CORSOptions{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d, want 200", rr.Code)
	}
}

func TestStatusReturnsJSONSnapshot(t *testing.T) {
	e := newTestEvaluator(t)
	defer e.Stop()
	mux := NewMux(e, CORSOptions{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/status status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
}

func TestCORSEnabledSetsAllowOriginHeader(t *testing.T) {
	e := newTestEvaluator(t)
	defer e.Stop()
	mux := NewMux(e, CORSOptions{
		Enabled:        true,
		AllowedOrigins: []string{"http://example.com"},
		AllowedMethods: []string{http.MethodGet},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want %q", got, "http://example.com")
	}
}

func TestCORSDisabledOmitsAllowOriginHeader(t *testing.T) {
	e := newTestEvaluator(t)
	defer e.Stop()
	mux := NewMux(e, CORSOptions{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want empty when CORS disabled", got)
	}
}

func TestMetricsExposesBatchSizeHistogram(t *testing.T) {
	e := newTestEvaluator(t)
	defer e.Stop()

	if _, err := e.Inference(testgame.NewConnect(3, 3)); err != nil {
		t.Fatalf("Inference() err = %v", err)
	}

	mux := NewMux(e, CORSOptions{})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("evaluator_batch_size")) {
		t.Fatalf("expected evaluator_batch_size in metrics output")
	}
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("chembl", 200, 10*time.Millisecond)
	m.ObserveRequest("chembl", 200, 20*time.Millisecond)
	m.ObserveRequest("chembl", 0, time.Second)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("chembl", "200")); got != 2 {
		t.Errorf("expected 2 successful requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("chembl", "0")); got != 1 {
		t.Errorf("expected 1 transport error, got %v", got)
	}
	if got := testutil.CollectAndCount(m.latency); got != 1 {
		t.Errorf("expected 1 latency series, got %d", got)
	}
}

func TestObserveAugmentationAndCall(t *testing.T) {
	m := New()
	m.ObserveAugmentation("target", "resolved")
	m.ObserveAugmentation("target", "skipped")
	m.ObserveAugmentation("target", "skipped")
	m.ObserveCall("pubmed", "pubmed_esearch", true, 5*time.Millisecond)
	m.ObserveCall("pubmed", "pubmed_esearch", false, 30*time.Second)

	if got := testutil.ToFloat64(m.augmentation.WithLabelValues("target", "skipped")); got != 2 {
		t.Errorf("expected 2 skipped, got %v", got)
	}
	if got := testutil.ToFloat64(m.calls.WithLabelValues("pubmed", "pubmed_esearch", "false")); got != 1 {
		t.Errorf("expected 1 failed call, got %v", got)
	}
}

func TestObserveRun(t *testing.T) {
	tests := []struct {
		calls, failures int
		want            string
	}{
		{8, 0, OutcomeOK},
		{8, 1, OutcomePartial},
		{8, 8, OutcomeFailed},
		{0, 0, OutcomeOK},
	}
	for _, tt := range tests {
		m := New()
		m.ObserveRun("research", tt.calls, tt.failures)
		if got := testutil.ToFloat64(m.runs.WithLabelValues("research", tt.want)); got != 1 {
			t.Errorf("calls=%d failures=%d: expected outcome %q, got count %v", tt.calls, tt.failures, tt.want, got)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("x", 200, time.Millisecond)
	m.ObserveAugmentation("compound", "failed")
	m.ObserveCall("x", "y", true, time.Millisecond)
	m.ObserveRun("answer", 1, 0)
	if m.Registry() != nil {
		t.Error("expected nil registry")
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveAugmentation("compound", "resolved")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `biofan_augmentation_lookups_total{kind="compound",outcome="resolved"} 1`) {
		t.Errorf("expected augmentation series in output, got:\n%s", rec.Body.String())
	}
}

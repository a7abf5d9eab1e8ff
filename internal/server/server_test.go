package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/henrybloomingdale/biofan/internal/answer"
	"github.com/henrybloomingdale/biofan/internal/metrics"
	"github.com/henrybloomingdale/biofan/internal/research"
	"github.com/henrybloomingdale/biofan/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeResearch struct {
	got research.Spec
	err error
}

func (f *fakeResearch) Run(_ context.Context, spec research.Spec) (*research.Result, error) {
	f.got = spec
	if f.err != nil {
		return nil, f.err
	}
	return &research.Result{
		RunID:    "run-1",
		Spec:     spec,
		Calls:    []research.CallLog{{Server: "pubchem", OK: true}, {Server: "uniprot", Error: "HTTP 500"}},
		Failures: 1,
	}, nil
}

type fakeAnswer struct{}

func (fakeAnswer) Answer(_ context.Context, req answer.Request) (*answer.Card, error) {
	if strings.TrimSpace(req.Question) == "" && len(req.Slots.Genes) == 0 {
		return nil, answer.ErrEmptyRequest
	}
	return &answer.Card{ID: "card-1", Question: req.Question, Slots: req.Slots}, nil
}

type fakeStore struct {
	runs map[string]*research.Result
}

func (f *fakeStore) SaveRun(_ context.Context, res *research.Result) error {
	f.runs[res.RunID] = res
	return nil
}

func (f *fakeStore) LoadRun(_ context.Context, id string) (*research.Result, error) {
	if r, ok := f.runs[id]; ok {
		return r, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListRuns(context.Context, int) ([]store.Summary, error) {
	var out []store.Summary
	for id := range f.runs {
		out = append(out, store.Summary{ID: id})
	}
	return out, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, New(&fakeResearch{}, fakeAnswer{}).Router(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestResearch(t *testing.T) {
	fr := &fakeResearch{}
	st := &fakeStore{runs: map[string]*research.Result{}}
	router := New(fr, fakeAnswer{}, WithStore(st)).Router()

	rec := do(t, router, http.MethodPost, "/v1/research", `{"question":"EGFR","targets":["EGFR"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res research.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.Failures != 1 || len(res.Calls) != 2 {
		t.Errorf("expected partial failures annotated, got %+v", res)
	}
	if fr.got.Targets[0] != "EGFR" {
		t.Errorf("expected spec to reach the pipeline, got %+v", fr.got)
	}
	if _, ok := st.runs["run-1"]; !ok {
		t.Error("expected run to be saved")
	}

	rec = do(t, router, http.MethodGet, "/v1/runs/run-1", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for stored run, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/v1/runs/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/v1/runs", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "run-1") {
		t.Errorf("expected run listing, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestResearch_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{`, "invalid research spec"},
		{"unknown field", `{"question":"q","colour":"red"}`, "colour"},
		{"empty", `{}`, "question"},
		{"bad source", `{"question":"q","sources":["scopus"]}`, "sources"},
	}
	router := New(&fakeResearch{}, fakeAnswer{}).Router()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/v1/research", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("expected error mentioning %q, got %s", tt.want, rec.Body.String())
			}
		})
	}
}

func TestResearch_PipelineError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{&research.ValidationError{Field: "question", Reason: "too long"}, http.StatusBadRequest},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		router := New(&fakeResearch{err: tt.err}, fakeAnswer{}).Router()
		rec := do(t, router, http.MethodPost, "/v1/research", `{"question":"q"}`)
		if rec.Code != tt.code {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.code, rec.Code)
		}
	}
}

func TestAnswer(t *testing.T) {
	router := New(&fakeResearch{}, fakeAnswer{}).Router()

	rec := do(t, router, http.MethodPost, "/v1/answer", `{"question":"","slots":{"genes":["EGFR"]}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var card answer.Card
	if err := json.Unmarshal(rec.Body.Bytes(), &card); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if card.ID != "card-1" || card.Slots.Genes[0] != "EGFR" {
		t.Errorf("unexpected card %+v", card)
	}

	rec = do(t, router, http.MethodPost, "/v1/answer", `{"question":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty request, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodPost, "/v1/answer", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestRunsRoutesRequireStore(t *testing.T) {
	rec := do(t, New(&fakeResearch{}, fakeAnswer{}).Router(), http.MethodGet, "/v1/runs", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a store, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	router := New(&fakeResearch{}, fakeAnswer{}, WithMetrics(m.Handler(), m)).Router()
	do(t, router, http.MethodPost, "/v1/research", `{"question":"q"}`)

	rec := do(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `biofan_runs_total{kind="research",outcome="partial"} 1`) {
		t.Errorf("expected research run counted, got:\n%s", rec.Body.String())
	}
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fraudguard/db"
	"fraudguard/inference"
	"fraudguard/monitoring"
)

type fakeStats struct {
	stats db.Stats
	err   error
}

func (f *fakeStats) Stats(ctx context.Context) (db.Stats, error) {
	return f.stats, f.err
}

func newTestMux(api *API) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterHandlers(mux, api)
	return mux
}

func TestHealthHandler(t *testing.T) {
	mux := newTestMux(NewAPI(&fakePredictor{}, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload["status"] != "operational" || payload["model_loaded"] != true {
		t.Errorf("handler returned unexpected body: %v", payload)
	}
}

func TestHealthIgnoresPredictionFailures(t *testing.T) {
	predictor := &fakePredictor{err: errors.New("boom")}
	mux := newTestMux(NewAPI(predictor, nil, nil))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/predict", jsonBody(t, exampleBody())))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from predict, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected health to stay 200, got %d", rr.Code)
	}
}

func TestRootHandler(t *testing.T) {
	mux := newTestMux(NewAPI(&fakePredictor{}, nil, nil))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rr.Code)
	}
}

func TestInfoHandler(t *testing.T) {
	predictor := &fakePredictor{info: inference.Info{Name: inference.ServiceName, ModelAccuracy: "93%"}}
	mux := newTestMux(NewAPI(predictor, nil, nil))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/info", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var info inference.Info
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if info.ModelAccuracy != "93%" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestStatsHandler(t *testing.T) {
	last := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		stats  StatsSource
		status int
	}{
		{"disabled", nil, http.StatusNotFound},
		{"enabled", &fakeStats{stats: db.Stats{Total: 4, Flagged: 1, LastScoreAt: &last}}, http.StatusOK},
		{"query error", &fakeStats{err: errors.New("locked")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(NewAPI(&fakePredictor{}, tt.stats, nil))
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			if tt.status != http.StatusOK {
				return
			}
			var stats db.Stats
			if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if stats.Total != 4 || stats.Flagged != 1 {
				t.Fatalf("unexpected stats: %+v", stats)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	predictor := &fakePredictor{result: inference.Result{Fraud: 1, FraudDetected: true}}
	api := NewAPI(predictor, nil, nil)
	mux := newTestMux(api)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/predict", jsonBody(t, exampleBody())))
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{}")))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var snap monitoring.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if snap.Counters[monitoring.MetricPredictions] != 1 ||
		snap.Counters[monitoring.MetricFraudFlagged] != 1 ||
		snap.Counters[monitoring.MetricValidationFailures] != 1 {
		t.Fatalf("unexpected counters: %v", snap.Counters)
	}
	if snap.Summaries[monitoring.MetricPredictionLatency].Count != 1 {
		t.Fatalf("expected one latency observation, got %+v", snap.Summaries)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics?format=prometheus", nil))
	if !strings.Contains(rr.Body.String(), "predictions_total 1") {
		t.Fatalf("unexpected prometheus output:\n%s", rr.Body.String())
	}
}

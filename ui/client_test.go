package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fraudguard/claim"
	"fraudguard/inference"
	"fraudguard/ml"
)

func TestClientPredict(t *testing.T) {
	var got claim.Record
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(inference.Result{Fraud: 1, FraudDetected: true, FraudProbability: 0.9, RiskLevel: ml.RiskHigh, Message: "Fraud alert! Confidence: 90.0%"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second, time.Second)
	result, err := client.Predict(context.Background(), claim.Example())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.FraudDetected || result.RiskLevel != ml.RiskHigh {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got != claim.Example() {
		t.Fatalf("server received %+v", got)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one request, got %d", calls)
	}
}

func TestClientPredictValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"validation failed","fields":{"claimant_age":"must be between 18 and 100"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, time.Second).Predict(context.Background(), claim.Example())
	var verr *claim.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Fields["claimant_age"] != "must be between 18 and 100" {
		t.Fatalf("unexpected fields: %v", verr.Fields)
	}
}

func TestClientPredictServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"prediction failed"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, time.Second).Predict(context.Background(), claim.Example())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected APIError 500, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second, time.Second)
	if _, err := client.Predict(context.Background(), claim.Example()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := client.Health(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from health, got %v", err)
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, 20*time.Millisecond, 20*time.Millisecond)
	if _, err := client.Predict(context.Background(), claim.Example()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected timeout to surface as ErrUnavailable, got %v", err)
	}
}

func TestClientHealthAndInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"operational"}`))
	})
	mux.HandleFunc("GET /info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(inference.Info{Name: inference.ServiceName, ModelAccuracy: "93%"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, time.Second)
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("unexpected health error: %v", err)
	}
	info, err := client.Info(context.Background())
	if err != nil {
		t.Fatalf("unexpected info error: %v", err)
	}
	if info.ModelAccuracy != "93%" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

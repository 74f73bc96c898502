package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"fraudguard/claim"
	"fraudguard/db"
	"fraudguard/inference"
	"fraudguard/monitoring"
)

// Predictor is the inference surface the handlers need.
type Predictor interface {
	Predict(ctx context.Context, record claim.Record) (inference.Result, error)
	Info() inference.Info
}

// StatsSource reports prediction log counts.
type StatsSource interface {
	Stats(ctx context.Context) (db.Stats, error)
}

// API API处理器
type API struct {
	predictor Predictor
	stats     StatsSource
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
}

// NewAPI 创建API处理器。stats为nil时 /stats 返回404
func NewAPI(predictor Predictor, stats StatsSource, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		predictor: predictor,
		stats:     stats,
		metrics:   monitoring.NewMetricsCollector(),
		logger:    logger,
	}
}

// Metrics exposes the counters behind GET /metrics.
func (a *API) Metrics() *monitoring.MetricsCollector {
	return a.metrics
}

func RegisterHandlers(mux *http.ServeMux, api *API) {
	mux.HandleFunc("GET /{$}", api.handleRoot)
	mux.HandleFunc("GET /health", api.handleHealth)
	mux.HandleFunc("GET /info", api.handleInfo)
	mux.HandleFunc("POST /predict", api.handlePredict)
	mux.HandleFunc("GET /stats", api.handleStats)
	mux.HandleFunc("GET /metrics", api.handleMetrics)
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": inference.ServiceName,
		"status":  "running",
		"version": inference.ServiceVersion,
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "operational",
		"service":      inference.ServiceName,
		"model_loaded": true,
	})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.predictor.Info())
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	record, err := claim.Decode(bytes.NewReader(body))
	if err != nil {
		a.writePredictError(w, r, err)
		return
	}

	start := time.Now()
	result, err := a.predictor.Predict(r.Context(), record)
	if err != nil {
		a.writePredictError(w, r, err)
		return
	}
	a.metrics.Observe(monitoring.MetricPredictionLatency, float64(time.Since(start).Microseconds())/1000)
	a.metrics.IncrCounter(monitoring.MetricPredictions, 1)
	if result.FraudDetected {
		a.metrics.IncrCounter(monitoring.MetricFraudFlagged, 1)
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *claim.ValidationError
	if errors.As(err, &verr) {
		a.metrics.IncrCounter(monitoring.MetricValidationFailures, 1)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}

	a.metrics.IncrCounter(monitoring.MetricPredictionErrors, 1)
	a.logger.Error("prediction failed", zap.String("request_id", GetRequestID(r)), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "prediction failed")
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	if a.stats == nil {
		writeError(w, http.StatusNotFound, "prediction log is disabled")
		return
	}

	stats, err := a.stats.Stats(r.Context())
	if err != nil {
		a.logger.Error("stats query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read prediction log")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		io.WriteString(w, a.metrics.ExportPrometheus())
		return
	}
	writeJSON(w, http.StatusOK, a.metrics.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

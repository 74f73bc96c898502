// Package inference turns a validated claim into a fraud verdict using the
// model loaded at startup.
package inference

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"fraudguard/claim"
	"fraudguard/db"
	"fraudguard/ml"
)

const (
	ServiceName    = "Insurance Fraud Detection API"
	ServiceVersion = "1.0.0"
)

var ErrInvalidLabel = errors.New("model returned a label outside [0 1]")

// Recorder receives every successful prediction. *db.Store satisfies it.
type Recorder interface {
	SavePrediction(ctx context.Context, entry db.PredictionLog) error
}

type Result struct {
	Fraud            int          `json:"fraud"`
	FraudDetected    bool         `json:"fraud_detected"`
	FraudProbability float64      `json:"fraud_probability"`
	RiskLevel        ml.RiskLevel `json:"risk_level"`
	Message          string       `json:"message"`
}

// Service holds the read-only model; Predict is safe for concurrent use.
type Service struct {
	model    ml.MLModel
	info     ml.ModelInfo
	recorder Recorder
	logger   *zap.Logger
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(model ml.MLModel, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		model:  model,
		info:   model.Info(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict scores one claim. An invalid claim returns *claim.ValidationError
// without touching the model.
func (s *Service) Predict(ctx context.Context, record claim.Record) (Result, error) {
	if err := record.Validate(); err != nil {
		return Result{}, err
	}

	label, probability, err := s.model.Predict(ml.EncodeFeatures(record))
	if err != nil {
		return Result{}, fmt.Errorf("predict: %w", err)
	}
	if label != 0 && label != 1 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidLabel, label)
	}

	result := newResult(label, probability)
	requestID := RequestIDFromContext(ctx)
	s.logger.Debug("claim scored",
		zap.String("request_id", requestID),
		zap.Int("fraud", result.Fraud),
		zap.Float64("probability", result.FraudProbability),
		zap.String("risk_level", string(result.RiskLevel)),
	)

	if s.recorder != nil {
		entry := db.PredictionLog{
			RequestID:    requestID,
			Fraud:        result.Fraud,
			Probability:  result.FraudProbability,
			RiskLevel:    string(result.RiskLevel),
			ModelVersion: s.info.Version,
		}
		if err := s.recorder.SavePrediction(ctx, entry); err != nil {
			s.logger.Warn("failed to record prediction", zap.String("request_id", requestID), zap.Error(err))
		}
	}
	return result, nil
}

func newResult(label int, probability float64) Result {
	probability = math.Max(0, math.Min(1, probability))
	result := Result{
		Fraud:            label,
		FraudDetected:    label == 1,
		FraudProbability: math.Round(probability*1e4) / 1e4,
		RiskLevel:        ml.ClassifyRisk(probability),
	}
	if result.FraudDetected {
		result.Message = fmt.Sprintf("Fraud alert! Confidence: %.1f%%", probability*100)
	} else {
		result.Message = fmt.Sprintf("Claim appears legitimate. Confidence: %.1f%%", (1-probability)*100)
	}
	return result
}

type Info struct {
	Name          string            `json:"api_name"`
	Version       string            `json:"version"`
	Description   string            `json:"description"`
	ModelAccuracy string            `json:"model_accuracy,omitempty"`
	Model         ml.ModelInfo      `json:"model"`
	Endpoints     map[string]string `json:"endpoints"`
}

func (s *Service) Info() Info {
	info := Info{
		Name:        ServiceName,
		Version:     ServiceVersion,
		Description: "Detects fraudulent insurance claims using a decision tree classifier",
		Model:       s.info,
		Endpoints: map[string]string{
			"GET /":         "Service banner",
			"GET /health":   "Liveness probe",
			"GET /info":     "API information",
			"GET /metrics":  "In-process prediction counters",
			"GET /stats":    "Prediction log counts (when enabled)",
			"POST /predict": "Predict fraud for a claim",
		},
	}
	if acc, ok := s.info.Metrics["accuracy"]; ok {
		info.ModelAccuracy = fmt.Sprintf("%.0f%%", acc*100)
	}
	return info
}

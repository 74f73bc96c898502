package ml

import "errors"

var (
	ErrModelNotLoaded   = errors.New("model not loaded")
	ErrUnsupportedModel = errors.New("unsupported model type")
)

// MLModel is a fitted binary classifier. Implementations are read-only once
// loaded and safe for concurrent Predict calls.
type MLModel interface {
	Predict(features []float64) (int, float64, error)
	Info() ModelInfo
}

type ModelInfo struct {
	Type         string             `json:"type"`
	Version      string             `json:"version"`
	FeatureNames []string           `json:"feature_names"`
	NodeCount    int                `json:"node_count"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

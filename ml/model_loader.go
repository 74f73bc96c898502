package ml

import (
	"fmt"
)

// LoadModel reads the artifact at path and checks that its feature layout
// matches EncodeFeatures.
func LoadModel(modelType, path string) (MLModel, error) {
	switch modelType {
	case ModelTypeDecisionTree:
		model := &DecisionTree{}
		if err := model.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if err := checkFeatureNames(model.featureNames); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, modelType)
	}
}

func checkFeatureNames(names []string) error {
	expected := FeatureNames()
	if len(names) != len(expected) {
		return fmt.Errorf("model expects %d features, encoder produces %d", len(names), len(expected))
	}
	for i := range expected {
		if names[i] != expected[i] {
			return fmt.Errorf("feature %d: model expects %q, encoder produces %q", i, names[i], expected[i])
		}
	}
	return nil
}

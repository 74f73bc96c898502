package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

const ModelTypeDecisionTree = "decision_tree"

type DecisionTree struct {
	nodes        []TreeNode
	featureNames []string
	classes      []int
	version      string
	metrics      map[string]float64
}

type TreeNode struct {
	FeatureIdx  int       `json:"feature_idx"`
	Threshold   float64   `json:"threshold"`
	LeftChild   int       `json:"left_child"`
	RightChild  int       `json:"right_child"`
	ClassLabel  int       `json:"class_label"`
	IsLeaf      bool      `json:"is_leaf"`
	ClassCounts []float64 `json:"class_counts,omitempty"`
}

// Artifact is the on-disk form of a fitted tree.
type Artifact struct {
	ModelType    string             `json:"model_type"`
	Version      string             `json:"version"`
	FeatureNames []string           `json:"feature_names"`
	Classes      []int              `json:"classes"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	Nodes        []TreeNode         `json:"nodes"`
}

// NewDecisionTree builds a tree from an artifact, rejecting malformed node tables.
func NewDecisionTree(a Artifact) (*DecisionTree, error) {
	if a.ModelType != "" && a.ModelType != ModelTypeDecisionTree {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, a.ModelType)
	}
	if err := validateArtifact(a); err != nil {
		return nil, err
	}
	return &DecisionTree{
		nodes:        a.Nodes,
		featureNames: a.FeatureNames,
		classes:      a.Classes,
		version:      a.Version,
		metrics:      a.Metrics,
	}, nil
}

// Predict walks the tree and returns the leaf label together with the
// probability of the positive class.
func (dt *DecisionTree) Predict(features []float64) (int, float64, error) {
	if dt == nil || len(dt.nodes) == 0 {
		return 0, 0, ErrModelNotLoaded
	}
	if len(features) != len(dt.featureNames) {
		return 0, 0, fmt.Errorf("expected %d features, got %d", len(dt.featureNames), len(features))
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, positiveProbability(node.ClassCounts, dt.classes), nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func (dt *DecisionTree) Info() ModelInfo {
	names := append([]string(nil), dt.featureNames...)
	metrics := make(map[string]float64, len(dt.metrics))
	for k, v := range dt.metrics {
		metrics[k] = v
	}
	return ModelInfo{
		Type:         ModelTypeDecisionTree,
		Version:      dt.version,
		FeatureNames: names,
		NodeCount:    len(dt.nodes),
		Metrics:      metrics,
	}
}

func (dt *DecisionTree) Artifact() Artifact {
	return Artifact{
		ModelType:    ModelTypeDecisionTree,
		Version:      dt.version,
		FeatureNames: dt.featureNames,
		Classes:      dt.classes,
		Metrics:      dt.metrics,
		Nodes:        dt.nodes,
	}
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return ErrModelNotLoaded
	}
	payload, err := json.MarshalIndent(dt.Artifact(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (dt *DecisionTree) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return dt.LoadReader(f)
}

func (dt *DecisionTree) LoadReader(r io.Reader) error {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return fmt.Errorf("decode model artifact: %w", err)
	}
	loaded, err := NewDecisionTree(a)
	if err != nil {
		return err
	}
	*dt = *loaded
	return nil
}

func validateArtifact(a Artifact) error {
	if len(a.Nodes) == 0 {
		return errors.New("model artifact has no nodes")
	}
	if len(a.FeatureNames) == 0 {
		return errors.New("model artifact has no feature names")
	}
	if len(a.Classes) != 2 || a.Classes[0] != 0 || a.Classes[1] != 1 {
		return fmt.Errorf("model artifact classes must be [0 1], got %v", a.Classes)
	}

	for i, node := range a.Nodes {
		if node.IsLeaf {
			if node.ClassLabel != 0 && node.ClassLabel != 1 {
				return fmt.Errorf("node %d: class label %d not in [0 1]", i, node.ClassLabel)
			}
			if len(node.ClassCounts) != len(a.Classes) {
				return fmt.Errorf("node %d: expected %d class counts, got %d", i, len(a.Classes), len(node.ClassCounts))
			}
			total := 0.0
			for _, c := range node.ClassCounts {
				if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
					return fmt.Errorf("node %d: invalid class count %v", i, c)
				}
				total += c
			}
			if total == 0 {
				return fmt.Errorf("node %d: leaf has no samples", i)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(a.FeatureNames) {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if math.IsNaN(node.Threshold) {
			return fmt.Errorf("node %d: threshold is NaN", i)
		}
		// children always follow their parent, so a walk from the root terminates
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(a.Nodes) {
				return fmt.Errorf("node %d: child index %d out of range", i, child)
			}
		}
	}
	return nil
}

func positiveProbability(counts []float64, classes []int) float64 {
	total := 0.0
	positive := 0.0
	for i, c := range counts {
		total += c
		if classes[i] == 1 {
			positive += c
		}
	}
	if total == 0 {
		return 0
	}
	return positive / total
}

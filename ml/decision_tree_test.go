package ml

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func stumpArtifact() Artifact {
	return Artifact{
		ModelType:    ModelTypeDecisionTree,
		Version:      "test",
		FeatureNames: []string{"a", "b"},
		Classes:      []int{0, 1},
		Nodes: []TreeNode{
			{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 2},
			{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 0, IsLeaf: true, ClassCounts: []float64{8, 2}},
			{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 1, IsLeaf: true, ClassCounts: []float64{1, 3}},
		},
	}
}

func TestDecisionTreePredict(t *testing.T) {
	model, err := NewDecisionTree(stumpArtifact())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	label, probability, err := model.Predict([]float64{0.1, 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 || math.Abs(probability-0.2) > 1e-9 {
		t.Fatalf("expected (0, 0.2), got (%d, %f)", label, probability)
	}

	// the threshold itself goes left
	label, _, _ = model.Predict([]float64{0.5, 0})
	if label != 0 {
		t.Fatalf("expected threshold to route left, got label %d", label)
	}

	label, probability, err = model.Predict([]float64{0.9, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 || math.Abs(probability-0.75) > 1e-9 {
		t.Fatalf("expected (1, 0.75), got (%d, %f)", label, probability)
	}
}

func TestDecisionTreePredictRejectsWrongWidth(t *testing.T) {
	model, err := NewDecisionTree(stumpArtifact())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := model.Predict([]float64{1}); err == nil {
		t.Fatal("expected error for short feature vector")
	}
}

func TestDecisionTreeUnloaded(t *testing.T) {
	model := &DecisionTree{}
	if _, _, err := model.Predict([]float64{1, 2}); !errors.Is(err, ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestNewDecisionTreeRejectsMalformedArtifacts(t *testing.T) {
	cases := map[string]func(a *Artifact){
		"no nodes":         func(a *Artifact) { a.Nodes = nil },
		"no feature names": func(a *Artifact) { a.FeatureNames = nil },
		"three classes":    func(a *Artifact) { a.Classes = []int{0, 1, 2} },
		"wrong type":       func(a *Artifact) { a.ModelType = "random_forest" },
		"feature out of range": func(a *Artifact) {
			a.Nodes[0].FeatureIdx = 2
		},
		"backward child": func(a *Artifact) {
			a.Nodes[0].LeftChild = 0
		},
		"child past end": func(a *Artifact) {
			a.Nodes[0].RightChild = 3
		},
		"empty leaf": func(a *Artifact) {
			a.Nodes[1].ClassCounts = []float64{0, 0}
		},
		"missing counts": func(a *Artifact) {
			a.Nodes[2].ClassCounts = nil
		},
		"bad label": func(a *Artifact) {
			a.Nodes[2].ClassLabel = 2
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			a := stumpArtifact()
			a.Nodes = append([]TreeNode(nil), a.Nodes...)
			mutate(&a)
			if _, err := NewDecisionTree(a); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecisionTreeSaveLoad(t *testing.T) {
	model, err := NewDecisionTree(stumpArtifact())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := &DecisionTree{}
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, x := range [][]float64{{0, 0}, {1, 1}} {
		l1, p1, _ := model.Predict(x)
		l2, p2, _ := loaded.Predict(x)
		if l1 != l2 || p1 != p2 {
			t.Fatalf("prediction mismatch for %v: (%d,%f) vs (%d,%f)", x, l1, p1, l2, p2)
		}
	}
	if loaded.Info().Version != "test" {
		t.Fatalf("expected version to survive round trip, got %q", loaded.Info().Version)
	}
}

func TestDecisionTreeLoadReaderCorrupt(t *testing.T) {
	model := &DecisionTree{}
	if err := model.LoadReader(strings.NewReader(`{"nodes": [`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestClassifyRisk(t *testing.T) {
	cases := []struct {
		p    float64
		want RiskLevel
	}{
		{0, RiskLow},
		{0.29, RiskLow},
		{0.3, RiskMedium},
		{0.69, RiskMedium},
		{0.7, RiskHigh},
		{1, RiskHigh},
	}
	for _, tc := range cases {
		if got := ClassifyRisk(tc.p); got != tc.want {
			t.Errorf("ClassifyRisk(%v) = %s, want %s", tc.p, got, tc.want)
		}
	}
}

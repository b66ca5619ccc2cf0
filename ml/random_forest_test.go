package ml

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRandomForestMulticlass(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		1, 1,
		2, 1,
		1, 2,
		10, 10,
		11, 10,
		10, 11,
		20, 20,
		21, 20,
		20, 21,
	})
	y := []float64{0, 0, 0, 1, 1, 1, 2, 2, 2}

	model := NewRandomForest(Options{Seed: 1488, NumTrees: 10, MaxDepth: 4})
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	predictions, err := model.Predict(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	correct := 0
	for i := range y {
		if predictions[i] == y[i] {
			correct++
		}
	}
	if correct < 7 {
		t.Fatalf("expected at least 7/9 correct, got %d", correct)
	}
}

func TestRandomForestProbaShape(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 10, 11})
	y := []float64{0, 0, 1, 1}

	model := NewRandomForest(Options{Seed: 1, NumTrees: 5})
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	proba, err := model.PredictProba(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, cols := proba.Dims()
	if rows != 4 || cols != 2 {
		t.Fatalf("unexpected proba shape %dx%d", rows, cols)
	}
	for i := 0; i < rows; i++ {
		sum := proba.At(i, 0) + proba.At(i, 1)
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("row %d: probabilities sum to %.4f", i, sum)
		}
	}
}

func TestRandomForestDeterministicWithSeed(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 11, 12})
	y := []float64{0, 0, 0, 1, 1, 1}

	first := NewRandomForest(Options{Seed: 1488, NumTrees: 5})
	second := NewRandomForest(Options{Seed: 1488, NumTrees: 5})
	if err := first.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := second.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p1, _ := first.PredictProba(X)
	p2, _ := second.PredictProba(X)
	if !mat.EqualApprox(p1, p2, 1e-12) {
		t.Fatal("same seed should produce identical forests")
	}
}

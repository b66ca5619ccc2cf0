package ml

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDecisionTreeFitPredict(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0.1, 0.2,
		0.2, 0.1,
		0.9, 0.8,
		0.8, 0.9,
	})
	y := []float64{0, 0, 2, 2}

	model := NewDecisionTree(Options{MaxDepth: 2})
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	predictions, err := model.Predict(mat.NewDense(2, 2, []float64{
		0.15, 0.15,
		0.85, 0.85,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if predictions[0] != 0 {
		t.Fatalf("expected label 0, got %.0f", predictions[0])
	}
	if predictions[1] != 2 {
		t.Fatalf("expected label 2, got %.0f", predictions[1])
	}
}

func TestDecisionTreeProbaRowsSumToOne(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 11, 12})
	y := []float64{0, 0, 0, 1, 1, 2}

	model := NewDecisionTree(Options{MaxDepth: 3})
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	proba, err := model.PredictProba(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, cols := proba.Dims()
	if cols != 3 {
		t.Fatalf("expected 3 classes, got %d", cols)
	}
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			p := proba.At(i, j)
			if p < 0 || p > 1 {
				t.Errorf("row %d col %d: probability out of range: %.3f", i, j, p)
			}
			sum += p
		}
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("row %d: probabilities sum to %.4f", i, sum)
		}
	}
}

func TestDecisionTreePredictBeforeFit(t *testing.T) {
	model := NewDecisionTree(Options{})
	if _, err := model.Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Fatal("expected error predicting before fit")
	}
}

func TestDecisionTreeDeepSplitConsistency(t *testing.T) {
	// Three separated clusters force nested splits; walk must stay in bounds.
	X := mat.NewDense(9, 1, []float64{1, 2, 3, 10, 11, 12, 20, 21, 22})
	y := []float64{0, 0, 0, 1, 1, 1, 2, 2, 2}

	model := NewDecisionTree(Options{MaxDepth: 5})
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	predictions, err := model.Predict(X)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range y {
		if predictions[i] != y[i] {
			t.Errorf("row %d: got %.0f want %.0f", i, predictions[i], y[i])
		}
	}
}

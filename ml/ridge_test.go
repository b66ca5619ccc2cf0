package ml

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRidgeFitRecoverLine(t *testing.T) {
	// y = 2x + 1 with a light regularizer
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := []float64{3, 5, 7, 9, 11, 13}

	model := NewRidge(Options{Alpha: 0.01, Seed: 1488})
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	predictions, err := model.Predict(mat.NewDense(2, 1, []float64{7, 8}))
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	expected := []float64{15, 17}
	for i := range expected {
		if math.Abs(predictions[i]-expected[i]) > 0.5 {
			t.Errorf("prediction %d: got %.3f want ~%.1f", i, predictions[i], expected[i])
		}
	}
}

func TestRidgePredictBeforeFit(t *testing.T) {
	model := NewRidge(Options{})
	if _, err := model.Predict(mat.NewDense(1, 1, []float64{1})); err == nil {
		t.Fatal("expected error predicting before fit")
	}
}

func TestRidgeSizeMismatch(t *testing.T) {
	model := NewRidge(Options{})
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	if err := model.Fit(X, []float64{1, 2}); err == nil {
		t.Fatal("expected size mismatch error")
	}
}

package ml

import (
	"encoding/gob"

	"gonum.org/v1/gonum/mat"
)

// Estimator is the minimal surface shared by all models.
type Estimator interface {
	Fit(X mat.Matrix, y []float64) error
	Predict(X mat.Matrix) ([]float64, error)
}

// ProbaEstimator is implemented by classifiers that can emit
// per-class probabilities.
type ProbaEstimator interface {
	Estimator
	PredictProba(X mat.Matrix) (*mat.Dense, error)
	Classes() []int
}

// Options carries estimator hyperparameters. Zero values fall back to
// per-model defaults.
type Options struct {
	Seed       int64
	Alpha      float64 // ridge regularization strength
	MaxDepth   int
	NumTrees   int
	LearnRate  float64
	Iterations int
}

func init() {
	gob.Register(&Ridge{})
	gob.Register(&LogisticRegression{})
	gob.Register(&DecisionTree{})
	gob.Register(&RandomForest{})
}

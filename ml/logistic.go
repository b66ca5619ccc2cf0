package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is a binary classifier trained with batch
// gradient descent.
type LogisticRegression struct {
	Opts      Options
	Weights   []float64
	Intercept float64
	ClassList []int
}

func NewLogisticRegression(opts Options) *LogisticRegression {
	if opts.LearnRate == 0 {
		opts.LearnRate = 0.1
	}
	if opts.Iterations == 0 {
		opts.Iterations = 500
	}
	return &LogisticRegression{Opts: opts}
}

func (lr *LogisticRegression) Fit(X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.New("empty feature matrix")
	}
	if rows != len(y) {
		return errors.New("features and target size mismatch")
	}

	classes := uniqueLabels(y)
	if len(classes) != 2 {
		return errors.New("logistic regression expects exactly two classes")
	}
	lr.ClassList = classes

	// Map labels onto {0, 1} by class order.
	targets := make([]float64, rows)
	for i, label := range y {
		if int(label) == classes[1] {
			targets[i] = 1
		}
	}

	weights := make([]float64, cols)
	intercept := 0.0
	for iter := 0; iter < lr.Opts.Iterations; iter++ {
		gradW := make([]float64, cols)
		gradB := 0.0
		for i := 0; i < rows; i++ {
			z := intercept
			for j := 0; j < cols; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - targets[i]
			for j := 0; j < cols; j++ {
				gradW[j] += residual * X.At(i, j)
			}
			gradB += residual
		}
		step := lr.Opts.LearnRate / float64(rows)
		for j := 0; j < cols; j++ {
			weights[j] -= step * gradW[j]
		}
		intercept -= step * gradB
	}

	lr.Weights = weights
	lr.Intercept = intercept
	return nil
}

func (lr *LogisticRegression) Predict(X mat.Matrix) ([]float64, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	predictions := make([]float64, rows)
	for i := 0; i < rows; i++ {
		if proba.At(i, 1) >= 0.5 {
			predictions[i] = float64(lr.ClassList[1])
		} else {
			predictions[i] = float64(lr.ClassList[0])
		}
	}
	return predictions, nil
}

// PredictProba returns an n×2 matrix with one column per class.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if lr.Weights == nil {
		return nil, errors.New("model not trained")
	}
	rows, cols := X.Dims()
	if cols != len(lr.Weights) {
		return nil, errors.New("feature count mismatch")
	}

	proba := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		z := lr.Intercept
		for j := 0; j < cols; j++ {
			z += X.At(i, j) * lr.Weights[j]
		}
		p := sigmoid(z)
		proba.Set(i, 0, 1-p)
		proba.Set(i, 1, p)
	}
	return proba, nil
}

func (lr *LogisticRegression) Classes() []int {
	return lr.ClassList
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func uniqueLabels(y []float64) []int {
	seen := make(map[int]bool)
	var classes []int
	for _, label := range y {
		value := int(label)
		if !seen[value] {
			seen[value] = true
			classes = append(classes, value)
		}
	}
	sortInts(classes)
	return classes
}

func sortInts(values []int) {
	for i := 1; i < len(values); i++ {
		j := i
		for j > 0 && values[j-1] > values[j] {
			values[j-1], values[j] = values[j], values[j-1]
			j--
		}
	}
}

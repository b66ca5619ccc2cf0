package ml

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Ridge is a linear regressor with L2 regularization, solved in closed
// form via the normal equations.
type Ridge struct {
	Opts      Options
	Weights   []float64
	Intercept float64
}

func NewRidge(opts Options) *Ridge {
	if opts.Alpha == 0 {
		opts.Alpha = 1.0
	}
	return &Ridge{Opts: opts}
}

func (r *Ridge) Fit(X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.New("empty feature matrix")
	}
	if rows != len(y) {
		return errors.New("features and target size mismatch")
	}

	// Augment with a bias column; the intercept is not penalized.
	aug := mat.NewDense(rows, cols+1, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			aug.Set(i, j, X.At(i, j))
		}
		aug.Set(i, cols, 1)
	}

	var xtx mat.Dense
	xtx.Mul(aug.T(), aug)
	for j := 0; j < cols; j++ {
		xtx.Set(j, j, xtx.At(j, j)+r.Opts.Alpha)
	}

	yVec := mat.NewVecDense(rows, append([]float64(nil), y...))
	var xty mat.VecDense
	xty.MulVec(aug.T(), yVec)

	var theta mat.VecDense
	if err := theta.SolveVec(&xtx, &xty); err != nil {
		return errors.New("singular feature matrix")
	}

	r.Weights = make([]float64, cols)
	for j := 0; j < cols; j++ {
		r.Weights[j] = theta.AtVec(j)
	}
	r.Intercept = theta.AtVec(cols)
	return nil
}

func (r *Ridge) Predict(X mat.Matrix) ([]float64, error) {
	if r.Weights == nil {
		return nil, errors.New("model not trained")
	}
	rows, cols := X.Dims()
	if cols != len(r.Weights) {
		return nil, errors.New("feature count mismatch")
	}

	predictions := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := r.Intercept
		for j := 0; j < cols; j++ {
			sum += X.At(i, j) * r.Weights[j]
		}
		predictions[i] = sum
	}
	return predictions, nil
}

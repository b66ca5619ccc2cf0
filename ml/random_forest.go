package ml

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// RandomForest bags seeded decision trees over bootstrap samples with
// per-tree feature subsampling.
type RandomForest struct {
	Opts      Options
	Trees     []*DecisionTree
	ClassList []int
}

func NewRandomForest(opts Options) *RandomForest {
	if opts.NumTrees == 0 {
		opts.NumTrees = 20
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = 6
	}
	return &RandomForest{Opts: opts}
}

func (rf *RandomForest) Fit(X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.New("empty feature matrix")
	}
	if rows != len(y) {
		return errors.New("features and target size mismatch")
	}

	rf.ClassList = uniqueLabels(y)
	rnd := rand.New(rand.NewSource(rf.Opts.Seed))
	poolSize := int(math.Ceil(math.Sqrt(float64(cols))))

	rf.Trees = make([]*DecisionTree, 0, rf.Opts.NumTrees)
	for t := 0; t < rf.Opts.NumTrees; t++ {
		sampleX := mat.NewDense(rows, cols, nil)
		sampleY := make([]float64, rows)
		for i := 0; i < rows; i++ {
			src := rnd.Intn(rows)
			for j := 0; j < cols; j++ {
				sampleX.Set(i, j, X.At(src, j))
			}
			sampleY[i] = y[src]
		}

		pool := rnd.Perm(cols)[:poolSize]

		tree := NewDecisionTree(rf.Opts)
		// Bootstrap samples can miss classes; keep the forest's view.
		tree.ClassList = rf.ClassList
		if err := tree.fitWithPool(sampleX, sampleY, pool); err != nil {
			return err
		}
		rf.Trees = append(rf.Trees, tree)
	}
	return nil
}

func (rf *RandomForest) Predict(X mat.Matrix) ([]float64, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	predictions := make([]float64, rows)
	for i := 0; i < rows; i++ {
		predictions[i] = float64(rf.ClassList[argmaxRow(proba, i)])
	}
	return predictions, nil
}

// PredictProba averages the per-tree leaf distributions.
func (rf *RandomForest) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("model not trained")
	}
	rows, _ := X.Dims()
	sum := mat.NewDense(rows, len(rf.ClassList), nil)
	for _, tree := range rf.Trees {
		proba, err := tree.PredictProba(X)
		if err != nil {
			return nil, err
		}
		sum.Add(sum, proba)
	}
	sum.Scale(1/float64(len(rf.Trees)), sum)
	return sum, nil
}

func (rf *RandomForest) Classes() []int {
	return rf.ClassList
}

// fitWithPool trains a tree restricted to the given feature pool while
// keeping a preassigned class list.
func (dt *DecisionTree) fitWithPool(X mat.Matrix, y []float64, pool []int) error {
	rows, cols := X.Dims()
	classIndex := make(map[int]int, len(dt.ClassList))
	for i, class := range dt.ClassList {
		classIndex[class] = i
	}

	features := make([][]float64, rows)
	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = X.At(i, j)
		}
		features[i] = row
		idx, ok := classIndex[int(y[i])]
		if !ok {
			return errors.New("label outside class list")
		}
		labels[i] = idx
	}

	dt.Nodes = dt.buildNode(features, labels, 0, dt.Opts.MaxDepth, len(dt.ClassList), pool)
	return nil
}

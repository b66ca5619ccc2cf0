package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DecisionTree is a CART classifier with gini splits. Nodes are stored
// in a flat slice; children are referenced by index.
type DecisionTree struct {
	Opts      Options
	Nodes     []TreeNode
	ClassList []int
}

type TreeNode struct {
	FeatureIdx int
	Threshold  float64
	LeftChild  int
	RightChild int
	Dist       []float64 // class distribution over ClassList
	IsLeaf     bool
}

func NewDecisionTree(opts Options) *DecisionTree {
	if opts.MaxDepth == 0 {
		opts.MaxDepth = 6
	}
	return &DecisionTree{Opts: opts}
}

func (dt *DecisionTree) Fit(X mat.Matrix, y []float64) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.New("empty feature matrix")
	}
	if rows != len(y) {
		return errors.New("features and target size mismatch")
	}

	dt.ClassList = uniqueLabels(y)

	features := make([][]float64, rows)
	labels := make([]int, rows)
	classIndex := make(map[int]int, len(dt.ClassList))
	for i, class := range dt.ClassList {
		classIndex[class] = i
	}
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = X.At(i, j)
		}
		features[i] = row
		labels[i] = classIndex[int(y[i])]
	}

	dt.Nodes = dt.buildNode(features, labels, 0, dt.Opts.MaxDepth, len(dt.ClassList), nil)
	return nil
}

func (dt *DecisionTree) Predict(X mat.Matrix) ([]float64, error) {
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	predictions := make([]float64, rows)
	for i := 0; i < rows; i++ {
		predictions[i] = float64(dt.ClassList[argmaxRow(proba, i)])
	}
	return predictions, nil
}

func (dt *DecisionTree) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if len(dt.Nodes) == 0 {
		return nil, errors.New("model not trained")
	}
	rows, cols := X.Dims()
	proba := mat.NewDense(rows, len(dt.ClassList), nil)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = X.At(i, j)
		}
		dist, err := dt.walk(row)
		if err != nil {
			return nil, err
		}
		proba.SetRow(i, dist)
	}
	return proba, nil
}

func (dt *DecisionTree) Classes() []int {
	return dt.ClassList
}

func (dt *DecisionTree) walk(features []float64) ([]float64, error) {
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.Dist, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
}

// buildNode grows the subtree for the given rows. featurePool restricts
// candidate split features; nil means all features are candidates.
func (dt *DecisionTree) buildNode(features [][]float64, labels []int, depth, maxDepth, numClasses int, featurePool []int) []TreeNode {
	if depth >= maxDepth || isPure(labels) {
		return []TreeNode{leafNode(labels, numClasses)}
	}

	bestFeature, threshold, ok := findBestSplit(features, labels, featurePool)
	if !ok {
		return []TreeNode{leafNode(labels, numClasses)}
	}

	leftFeatures, leftLabels, rightFeatures, rightLabels := splitData(features, labels, bestFeature, threshold)
	if len(leftLabels) == 0 || len(rightLabels) == 0 {
		return []TreeNode{leafNode(labels, numClasses)}
	}

	leftNodes := dt.buildNode(leftFeatures, leftLabels, depth+1, maxDepth, numClasses, featurePool)
	rightNodes := dt.buildNode(rightFeatures, rightLabels, depth+1, maxDepth, numClasses, featurePool)

	root := TreeNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
	}

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, leftNodes...)
	nodes = append(nodes, rightNodes...)
	return reindex(nodes, len(leftNodes))
}

// reindex shifts child references of the right subtree, which was built
// with indices relative to its own root.
func reindex(nodes []TreeNode, leftSize int) []TreeNode {
	rightStart := 1 + leftSize
	for i := 1; i < len(nodes); i++ {
		if nodes[i].IsLeaf {
			continue
		}
		base := 1
		if i >= rightStart {
			base = rightStart
		}
		nodes[i].LeftChild += base
		nodes[i].RightChild += base
	}
	return nodes
}

func leafNode(labels []int, numClasses int) TreeNode {
	dist := make([]float64, numClasses)
	for _, label := range labels {
		dist[label]++
	}
	if len(labels) > 0 {
		for i := range dist {
			dist[i] /= float64(len(labels))
		}
	}
	return TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Dist:       dist,
		IsLeaf:     true,
	}
}

func findBestSplit(features [][]float64, labels []int, featurePool []int) (int, float64, bool) {
	featureCount := len(features[0])
	candidates := featurePool
	if candidates == nil {
		candidates = make([]int, featureCount)
		for i := range candidates {
			candidates[i] = i
		}
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64

	for _, featureIdx := range candidates {
		values := make([]float64, len(features))
		for i := range features {
			values[i] = features[i][featureIdx]
		}
		threshold := median(values)
		leftLabels, rightLabels := splitLabels(features, labels, featureIdx, threshold)
		if len(leftLabels) == 0 || len(rightLabels) == 0 {
			continue
		}
		impurity := weightedGini(leftLabels, rightLabels)
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestFeature = featureIdx
			bestThreshold = threshold
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func splitData(features [][]float64, labels []int, featureIdx int, threshold float64) ([][]float64, []int, [][]float64, []int) {
	leftFeatures := make([][]float64, 0)
	leftLabels := make([]int, 0)
	rightFeatures := make([][]float64, 0)
	rightLabels := make([]int, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, feature)
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightFeatures = append(rightFeatures, feature)
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftFeatures, leftLabels, rightFeatures, rightLabels
}

func splitLabels(features [][]float64, labels []int, featureIdx int, threshold float64) ([]int, []int) {
	leftLabels := make([]int, 0)
	rightLabels := make([]int, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftLabels, rightLabels
}

func weightedGini(leftLabels, rightLabels []int) float64 {
	leftWeight := float64(len(leftLabels))
	rightWeight := float64(len(rightLabels))
	total := leftWeight + rightWeight
	return (leftWeight/total)*gini(leftLabels) + (rightWeight/total)*gini(rightLabels)
}

func gini(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	impurity := 1.0
	for _, count := range counts {
		prob := float64(count) / float64(len(labels))
		impurity -= prob * prob
	}
	return impurity
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sortFloats(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func sortFloats(values []float64) {
	for i := 1; i < len(values); i++ {
		j := i
		for j > 0 && values[j-1] > values[j] {
			values[j-1], values[j] = values[j], values[j-1]
			j--
		}
	}
}

func isPure(labels []int) bool {
	if len(labels) == 0 {
		return true
	}
	first := labels[0]
	for _, label := range labels[1:] {
		if label != first {
			return false
		}
	}
	return true
}

func argmaxRow(m *mat.Dense, row int) int {
	_, cols := m.Dims()
	best := 0
	bestValue := m.At(row, 0)
	for j := 1; j < cols; j++ {
		if m.At(row, j) > bestValue {
			bestValue = m.At(row, j)
			best = j
		}
	}
	return best
}

package ml

import (
	"errors"
	"math"
	"sort"
)

// Metric names follow the canonical names used in score payloads.
const (
	MetricMeanSquaredError = "mean_squared_error"
	MetricROCAUCScore      = "roc_auc_score"
	MetricF1Score          = "f1_score"
)

func MeanSquaredError(y, predicted []float64) (float64, error) {
	if len(y) == 0 || len(y) != len(predicted) {
		return 0, errors.New("y and predictions size mismatch")
	}
	sum := 0.0
	for i := range y {
		diff := y[i] - predicted[i]
		sum += diff * diff
	}
	return sum / float64(len(y)), nil
}

// ROCAUCScore computes the area under the ROC curve for binary labels
// using the rank statistic. Tied scores contribute half a pair.
func ROCAUCScore(y, scores []float64) (float64, error) {
	if len(y) == 0 || len(y) != len(scores) {
		return 0, errors.New("y and scores size mismatch")
	}

	type pair struct {
		score float64
		pos   bool
	}
	pairs := make([]pair, len(y))
	positives := 0
	for i := range y {
		pos := y[i] == 1
		if pos {
			positives++
		}
		pairs[i] = pair{score: scores[i], pos: pos}
	}
	negatives := len(y) - positives
	if positives == 0 || negatives == 0 {
		return 0, errors.New("roc auc needs both classes present")
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	// Sum of positive ranks, averaging ranks across ties.
	rankSum := 0.0
	i := 0
	for i < len(pairs) {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		avgRank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			if pairs[k].pos {
				rankSum += avgRank
			}
		}
		i = j
	}

	p := float64(positives)
	n := float64(negatives)
	return (rankSum - p*(p+1)/2) / (p * n), nil
}

// F1Score computes the macro-averaged F1 over the label classes.
func F1Score(y, predicted []float64) (float64, error) {
	if len(y) == 0 || len(y) != len(predicted) {
		return 0, errors.New("y and predictions size mismatch")
	}

	classes := make(map[float64]bool)
	for _, label := range y {
		classes[label] = true
	}

	total := 0.0
	for class := range classes {
		tp, fp, fn := 0, 0, 0
		for i := range y {
			switch {
			case predicted[i] == class && y[i] == class:
				tp++
			case predicted[i] == class && y[i] != class:
				fp++
			case predicted[i] != class && y[i] == class:
				fn++
			}
		}
		if tp == 0 {
			continue
		}
		precision := float64(tp) / float64(tp+fp)
		recall := float64(tp) / float64(tp+fn)
		total += 2 * precision * recall / (precision + recall)
	}
	return total / float64(len(classes)), nil
}

// RoundTo rounds v to k decimal places.
func RoundTo(v float64, k int) float64 {
	scale := math.Pow(10, float64(k))
	return math.Round(v*scale) / scale
}

package registry

import (
	"modelhub/ml"
)

// TaskType is the classification regime a model was created for.
type TaskType string

const (
	TaskRegression TaskType = "regression"
	TaskBinary     TaskType = "binary"
	TaskMulticlass TaskType = "multiclass"
)

// DefaultRegressionCutoff is the target threshold above which a sample
// is treated as a regression task.
const DefaultRegressionCutoff = 10

// inferTaskType reads the single-row target of a training sample:
// target==2 means binary, target>cutoff regression, anything else
// multiclass.
func inferTaskType(sample *Dataset, cutoff int) (TaskType, error) {
	if sample == nil {
		return "", validationf("training sample is required")
	}
	target, ok := sample.Column(TargetColumn)
	if !ok {
		return "", validationf("training sample has no target column")
	}
	if len(target) != 1 {
		return "", validationf("target must hold exactly one value, got %d", len(target))
	}

	switch value := int(target[0]); {
	case value == 2:
		return TaskBinary, nil
	case value > cutoff:
		return TaskRegression, nil
	default:
		return TaskMulticlass, nil
	}
}

type metricFunc func(y, predicted []float64) (float64, error)

// taskEntry binds a task type to its scoring metric and candidate
// estimator constructors.
type taskEntry struct {
	metricName     string
	metric         metricFunc
	candidateOrder []string
	candidates     map[string]func(ml.Options) ml.Estimator
}

// taskTable is the static candidate table. Read-only after construction.
func taskTable() map[TaskType]taskEntry {
	return map[TaskType]taskEntry{
		TaskRegression: {
			metricName:     ml.MetricMeanSquaredError,
			metric:         ml.MeanSquaredError,
			candidateOrder: []string{"Ridge"},
			candidates: map[string]func(ml.Options) ml.Estimator{
				"Ridge": func(opts ml.Options) ml.Estimator { return ml.NewRidge(opts) },
			},
		},
		TaskBinary: {
			metricName:     ml.MetricROCAUCScore,
			metric:         ml.ROCAUCScore,
			candidateOrder: []string{"LogisticRegression", "DecisionTree"},
			candidates: map[string]func(ml.Options) ml.Estimator{
				"LogisticRegression": func(opts ml.Options) ml.Estimator { return ml.NewLogisticRegression(opts) },
				"DecisionTree":       func(opts ml.Options) ml.Estimator { return ml.NewDecisionTree(opts) },
			},
		},
		TaskMulticlass: {
			metricName:     ml.MetricF1Score,
			metric:         ml.F1Score,
			candidateOrder: []string{"RandomForest", "DecisionTree"},
			candidates: map[string]func(ml.Options) ml.Estimator{
				"RandomForest": func(opts ml.Options) ml.Estimator { return ml.NewRandomForest(opts) },
				"DecisionTree": func(opts ml.Options) ml.Estimator { return ml.NewDecisionTree(opts) },
			},
		},
	}
}

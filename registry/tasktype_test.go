package registry

import "testing"

func sample(target float64) *Dataset {
	frame, err := NewDataset(map[string][]float64{TargetColumn: {target}})
	if err != nil {
		panic(err)
	}
	return frame
}

func TestInferTaskType(t *testing.T) {
	tests := []struct {
		target float64
		want   TaskType
	}{
		{2, TaskBinary},
		{11, TaskRegression},
		{100, TaskRegression},
		{3, TaskMulticlass},
		{10, TaskMulticlass},
		{0, TaskMulticlass},
	}
	for _, tt := range tests {
		got, err := inferTaskType(sample(tt.target), DefaultRegressionCutoff)
		if err != nil {
			t.Fatalf("target %v: unexpected error: %v", tt.target, err)
		}
		if got != tt.want {
			t.Errorf("target %v: got %s want %s", tt.target, got, tt.want)
		}
	}
}

func TestInferTaskTypeCutoff(t *testing.T) {
	got, err := inferTaskType(sample(6), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != TaskRegression {
		t.Fatalf("got %s want regression with cutoff 5", got)
	}
}

func TestInferTaskTypeMissingTarget(t *testing.T) {
	frame, _ := NewDataset(map[string][]float64{"x": {1}})
	if _, err := inferTaskType(frame, DefaultRegressionCutoff); err == nil {
		t.Fatal("expected error for missing target")
	}
}

func TestInferTaskTypeMultiRowTarget(t *testing.T) {
	frame, _ := NewDataset(map[string][]float64{TargetColumn: {1, 2}})
	if _, err := inferTaskType(frame, DefaultRegressionCutoff); err == nil {
		t.Fatal("expected error for multi-row target")
	}
}

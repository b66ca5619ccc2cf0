package registry

import (
	"encoding/json"
	"testing"
)

func TestDatasetUnmarshalArrays(t *testing.T) {
	payload := `{"x1": [1, 2, 3], "target": [10, 20, 30]}`
	var frame Dataset
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if frame.NumRows() != 3 {
		t.Fatalf("got %d rows want 3", frame.NumRows())
	}
	target, ok := frame.Column("target")
	if !ok || target[2] != 30 {
		t.Fatalf("unexpected target column: %v", target)
	}
}

func TestDatasetUnmarshalIndexMaps(t *testing.T) {
	// pandas to_dict shape; row keys arrive unordered
	payload := `{"x1": {"1": 2, "0": 1, "2": 3}, "target": {"0": 0, "1": 1, "2": 0}}`
	var frame Dataset
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	x1, _ := frame.Column("x1")
	if x1[0] != 1 || x1[1] != 2 || x1[2] != 3 {
		t.Fatalf("rows not ordered by index: %v", x1)
	}
}

func TestDatasetUnmarshalScalar(t *testing.T) {
	payload := `{"target": 2}`
	var frame Dataset
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	target, _ := frame.Column("target")
	if len(target) != 1 || target[0] != 2 {
		t.Fatalf("unexpected target: %v", target)
	}
}

func TestDatasetMatrixEmptyFrame(t *testing.T) {
	payload := `{"x": []}`
	var frame Dataset
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, _, err := frame.Matrix(nil); err == nil {
		t.Fatal("expected error for zero-row frame")
	}
}

func TestDatasetUnmarshalRaggedColumns(t *testing.T) {
	payload := `{"x1": [1, 2], "target": [1]}`
	var frame Dataset
	if err := json.Unmarshal([]byte(payload), &frame); err == nil {
		t.Fatal("expected error for ragged columns")
	}
}

func TestDatasetSplitTarget(t *testing.T) {
	frame, err := NewDataset(map[string][]float64{
		"x2":         {4, 5, 6},
		"x1":         {1, 2, 3},
		TargetColumn: {0, 1, 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	features, target, err := frame.SplitTarget()
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(target) != 3 || target[1] != 1 {
		t.Fatalf("unexpected target: %v", target)
	}
	if _, ok := features.Column(TargetColumn); ok {
		t.Fatal("features must not contain the target column")
	}

	columns := features.FeatureColumns()
	if len(columns) != 2 || columns[0] != "x1" || columns[1] != "x2" {
		t.Fatalf("feature columns not sorted: %v", columns)
	}
}

func TestDatasetMatrixRespectsOrder(t *testing.T) {
	frame, _ := NewDataset(map[string][]float64{
		"a": {1, 2},
		"b": {3, 4},
	})

	matrix, order, err := frame.Matrix([]string{"b", "a"})
	if err != nil {
		t.Fatalf("matrix failed: %v", err)
	}
	if order[0] != "b" {
		t.Fatalf("order not respected: %v", order)
	}
	if matrix.At(0, 0) != 3 || matrix.At(0, 1) != 1 {
		t.Fatalf("columns not aligned to order: %v", matrix.RawMatrix().Data)
	}
}

func TestDatasetMatrixMissingColumn(t *testing.T) {
	frame, _ := NewDataset(map[string][]float64{"a": {1}})
	if _, _, err := frame.Matrix([]string{"a", "b"}); err == nil {
		t.Fatal("expected error for missing column")
	}
}

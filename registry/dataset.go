package registry

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// TargetColumn is the reserved label column in labeled datasets.
const TargetColumn = "target"

// Dataset is a column-oriented frame. The JSON form is a column-name →
// values object where values are either an array or a row-index map
// (the pandas to_dict shape).
type Dataset struct {
	columns []string
	data    map[string][]float64
	rows    int
}

func (d *Dataset) UnmarshalJSON(payload []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return errors.New("dataset must be a column/values object")
	}

	data := make(map[string][]float64, len(raw))
	rows := -1
	for column, values := range raw {
		parsed, err := parseColumn(values)
		if err != nil {
			return errors.New("column " + column + ": " + err.Error())
		}
		if rows == -1 {
			rows = len(parsed)
		} else if len(parsed) != rows {
			return errors.New("column " + column + " length differs from other columns")
		}
		data[column] = parsed
	}

	columns := make([]string, 0, len(data))
	for column := range data {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	d.columns = columns
	d.data = data
	if rows < 0 {
		rows = 0
	}
	d.rows = rows
	return nil
}

func parseColumn(raw json.RawMessage) ([]float64, error) {
	var asArray []float64
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return asArray, nil
	}

	// Scalar columns come through as a single value.
	var asScalar float64
	if err := json.Unmarshal(raw, &asScalar); err == nil {
		return []float64{asScalar}, nil
	}

	var asIndexMap map[string]float64
	if err := json.Unmarshal(raw, &asIndexMap); err != nil {
		return nil, errors.New("values must be a number, an array or an index map")
	}

	indices := make([]int, 0, len(asIndexMap))
	for key := range asIndexMap {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, errors.New("row index " + key + " is not an integer")
		}
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, 0, len(indices))
	for _, idx := range indices {
		values = append(values, asIndexMap[strconv.Itoa(idx)])
	}
	return values, nil
}

// NewDataset builds a frame from column slices. Used by tests and
// internal splits.
func NewDataset(data map[string][]float64) (*Dataset, error) {
	rows := -1
	for column, values := range data {
		if rows == -1 {
			rows = len(values)
		} else if len(values) != rows {
			return nil, errors.New("column " + column + " length differs from other columns")
		}
	}
	if rows < 0 {
		rows = 0
	}

	columns := make([]string, 0, len(data))
	copied := make(map[string][]float64, len(data))
	for column, values := range data {
		columns = append(columns, column)
		copied[column] = append([]float64(nil), values...)
	}
	sort.Strings(columns)

	return &Dataset{columns: columns, data: copied, rows: rows}, nil
}

func (d *Dataset) NumRows() int {
	if d == nil {
		return 0
	}
	return d.rows
}

func (d *Dataset) Column(name string) ([]float64, bool) {
	values, ok := d.data[name]
	return values, ok
}

// FeatureColumns lists the non-target columns in sorted order.
func (d *Dataset) FeatureColumns() []string {
	features := make([]string, 0, len(d.columns))
	for _, column := range d.columns {
		if column != TargetColumn {
			features = append(features, column)
		}
	}
	return features
}

// SplitTarget separates the label column from the features.
func (d *Dataset) SplitTarget() (*Dataset, []float64, error) {
	target, ok := d.data[TargetColumn]
	if !ok {
		return nil, nil, errors.New("dataset has no target column")
	}

	features := make(map[string][]float64, len(d.data)-1)
	for column, values := range d.data {
		if column == TargetColumn {
			continue
		}
		features[column] = values
	}
	frame, err := NewDataset(features)
	if err != nil {
		return nil, nil, err
	}
	return frame, append([]float64(nil), target...), nil
}

// Matrix lays the feature columns out as a dense row-major matrix in
// the given column order; nil order means the frame's own sorted order.
func (d *Dataset) Matrix(order []string) (*mat.Dense, []string, error) {
	if order == nil {
		order = d.FeatureColumns()
	}
	if len(order) == 0 {
		return nil, nil, errors.New("dataset has no feature columns")
	}
	// mat.NewDense panics on a zero dimension
	if d.rows == 0 {
		return nil, nil, errors.New("dataset has no rows")
	}

	matrix := mat.NewDense(d.rows, len(order), nil)
	for j, column := range order {
		values, ok := d.data[column]
		if !ok {
			return nil, nil, errors.New("dataset is missing column " + column)
		}
		for i := 0; i < d.rows; i++ {
			matrix.Set(i, j, values[i])
		}
	}
	return matrix, order, nil
}

package registry

import "strconv"

// VectorMapping renders a prediction vector in the column-index →
// row-index → value shape clients expect from frame dumps.
func VectorMapping(values []float64) map[string]map[string]float64 {
	rows := make(map[string]float64, len(values))
	for i, value := range values {
		rows[strconv.Itoa(i)] = value
	}
	return map[string]map[string]float64{"0": rows}
}

// ColumnMapping renders a row-major matrix the same way, one entry per
// column.
func ColumnMapping(rows [][]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for i, row := range rows {
		for j, value := range row {
			column := strconv.Itoa(j)
			if out[column] == nil {
				out[column] = make(map[string]float64, len(rows))
			}
			out[column][strconv.Itoa(i)] = value
		}
	}
	return out
}

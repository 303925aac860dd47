package regressors

import (
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/sarimax/errs"
)

// Matrix is an immutable set of named regressor columns, one row per index entry.
// Accessors return copies.
type Matrix struct {
	names []string
	rows  int
	data  *mat.Dense // nil when the matrix has no columns or no rows
}

// Empty returns a matrix with rows rows and no columns.
func Empty(rows int) *Matrix {
	return &Matrix{rows: rows}
}

// NewMatrix builds a matrix from named columns. All columns must have the same
// length and names must be unique.
func NewMatrix(names []string, columns [][]float64) (*Matrix, error) {
	if len(names) != len(columns) {
		return nil, errs.New(errs.KindDimensionMismatch, "regressors.NewMatrix", "%d names for %d columns", len(names), len(columns))
	}
	if len(columns) == 0 {
		return Empty(0), nil
	}

	rows := len(columns[0])
	seen := make(map[string]bool, len(names))
	for j, col := range columns {
		if len(col) != rows {
			return nil, errs.New(errs.KindDimensionMismatch, "regressors.NewMatrix",
				"column %q has %d rows, expected %d", names[j], len(col), rows)
		}
		if seen[names[j]] {
			return nil, errs.New(errs.KindDimensionMismatch, "regressors.NewMatrix", "duplicate column %q", names[j])
		}
		seen[names[j]] = true
	}

	m := &Matrix{names: slices.Clone(names), rows: rows}
	if rows == 0 {
		return m, nil
	}
	m.data = mat.NewDense(rows, len(columns), nil)
	for j, col := range columns {
		m.data.SetCol(j, col)
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	if m == nil {
		return 0
	}
	return m.rows
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Names returns the column names in order.
func (m *Matrix) Names() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.names)
}

// Index returns the position of a named column, or -1.
func (m *Matrix) Index(name string) int {
	if m == nil {
		return -1
	}
	return slices.Index(m.names, name)
}

// Column returns a copy of the named column.
func (m *Matrix) Column(name string) ([]float64, bool) {
	j := m.Index(name)
	if j < 0 {
		return nil, false
	}
	return m.ColumnAt(j), true
}

// ColumnAt returns a copy of column j.
func (m *Matrix) ColumnAt(j int) []float64 {
	col := make([]float64, m.rows)
	if m.data != nil {
		mat.Col(col, j, m.data)
	}
	return col
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	row := make([]float64, m.Cols())
	if m.data != nil && len(row) > 0 {
		mat.Row(row, i, m.data)
	}
	return row
}

// Slice returns rows [start, end).
func (m *Matrix) Slice(start, end int) *Matrix {
	if start < 0 {
		start = 0
	}
	if end > m.rows {
		end = m.rows
	}
	if start >= end {
		return &Matrix{names: slices.Clone(m.names)}
	}

	out := &Matrix{names: slices.Clone(m.names), rows: end - start}
	if m.data != nil {
		out.data = mat.DenseCopyOf(m.data.Slice(start, end, 0, len(m.names)))
	}
	return out
}

// HStack appends the columns of other. Row counts must match and names must not collide.
func (m *Matrix) HStack(other *Matrix) (*Matrix, error) {
	if other == nil || other.Cols() == 0 {
		return m.clone(), nil
	}
	if m == nil || m.Cols() == 0 {
		if m != nil && m.rows != other.rows && m.rows != 0 {
			return nil, errs.New(errs.KindDimensionMismatch, "regressors.HStack", "%d rows vs %d rows", m.rows, other.rows)
		}
		return other.clone(), nil
	}
	if m.rows != other.rows {
		return nil, errs.New(errs.KindDimensionMismatch, "regressors.HStack", "%d rows vs %d rows", m.rows, other.rows)
	}

	names := append(m.Names(), other.names...)
	columns := make([][]float64, 0, len(names))
	for j := range m.names {
		columns = append(columns, m.ColumnAt(j))
	}
	for j := range other.names {
		columns = append(columns, other.ColumnAt(j))
	}
	return NewMatrix(names, columns)
}

// Dense returns a copy of the data as a gonum matrix, or nil when there are no columns.
func (m *Matrix) Dense() *mat.Dense {
	if m == nil || m.data == nil {
		return nil
	}
	return mat.DenseCopyOf(m.data)
}

// Equal reports whether both matrices have the same names, shape and values.
func (m *Matrix) Equal(other *Matrix) bool {
	if m.Cols() == 0 && other.Cols() == 0 {
		return m.Rows() == other.Rows()
	}
	if m.Rows() != other.Rows() || !slices.Equal(m.names, other.names) {
		return false
	}
	if m.data == nil || other.data == nil {
		return m.data == nil && other.data == nil
	}
	return mat.Equal(m.data, other.data)
}

func (m *Matrix) clone() *Matrix {
	if m == nil {
		return nil
	}
	out := &Matrix{names: slices.Clone(m.names), rows: m.rows}
	if m.data != nil {
		out.data = mat.DenseCopyOf(m.data)
	}
	return out
}

// Package regressors builds the exogenous regressor matrix that accompanies a
// series: calendar effects, drift, user columns and outlier interventions.
package regressors

import (
	"slices"
	"time"

	"github.com/sartorproj/sarimax/calendar"
	"github.com/sartorproj/sarimax/errs"
)

// ColumnDrift is the name of the linear trend column.
const ColumnDrift = "drift"

// Request lists the effects to include. Columns appear in field order: calendar,
// drift, extra, outliers.
type Request struct {
	Calendar calendar.Source
	Drift    bool
	Extra    *Matrix
	Outliers []Outlier
}

// Builder builds regressor matrices aligned to a monthly index. Building on an
// index extended into the forecast horizon and slicing back to the original
// length reproduces the original build.
type Builder struct {
	index []time.Time
}

// NewBuilder returns a builder for index.
func NewBuilder(index []time.Time) *Builder {
	return &Builder{index: slices.Clone(index)}
}

// Len returns the number of rows the builder produces.
func (b *Builder) Len() int {
	return len(b.index)
}

// Build returns the requested columns. Outlier positions refer to the index.
func (b *Builder) Build(req Request) (*Matrix, error) {
	n := len(b.index)
	var names []string
	var columns [][]float64

	if req.Calendar != nil {
		cols, err := req.Calendar.Columns(b.index)
		if err != nil {
			return nil, err
		}
		calNames := req.Calendar.Names()
		if len(cols) != len(calNames) {
			return nil, errs.New(errs.KindDimensionMismatch, "regressors.Build",
				"calendar returned %d columns for %d names", len(cols), len(calNames))
		}
		for j, col := range cols {
			if len(col) != n {
				return nil, errs.New(errs.KindDimensionMismatch, "regressors.Build",
					"calendar column %q has %d rows, index has %d", calNames[j], len(col), n)
			}
		}
		names = append(names, calNames...)
		columns = append(columns, cols...)
	}

	if req.Drift {
		drift := make([]float64, n)
		for t := range drift {
			drift[t] = float64(t + 1)
		}
		names = append(names, ColumnDrift)
		columns = append(columns, drift)
	}

	if req.Extra != nil && req.Extra.Cols() > 0 {
		if req.Extra.Rows() != n {
			return nil, errs.New(errs.KindDimensionMismatch, "regressors.Build",
				"extra regressors have %d rows, index has %d", req.Extra.Rows(), n)
		}
		for j, name := range req.Extra.Names() {
			names = append(names, name)
			columns = append(columns, req.Extra.ColumnAt(j))
		}
	}

	for _, o := range req.Outliers {
		if o.Index < 0 || o.Index >= n {
			return nil, errs.New(errs.KindDimensionMismatch, "regressors.Build",
				"outlier %s at position %d outside index of length %d", o.Type, o.Index, n)
		}
		if o.Time.IsZero() {
			o.Time = b.index[o.Index]
		}
		names = append(names, o.Name())
		columns = append(columns, o.Column(n))
	}

	if len(columns) == 0 {
		return Empty(n), nil
	}
	return NewMatrix(names, columns)
}

// OutlierMatrix returns only the outlier columns over the index.
func (b *Builder) OutlierMatrix(outliers []Outlier) (*Matrix, error) {
	return b.Build(Request{Outliers: outliers})
}

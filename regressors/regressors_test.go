package regressors

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/sarimax/calendar"
	"github.com/sartorproj/sarimax/errs"
)

func monthlyIndex(start time.Time, n int) []time.Time {
	index := make([]time.Time, n)
	for i := range index {
		index[i] = start.AddDate(0, i, 0)
	}
	return index
}

var start = time.Date(2005, time.January, 1, 0, 0, 0, 0, time.UTC)

type shortSource struct{}

func (shortSource) Names() []string { return []string{"broken"} }

func (shortSource) Columns(index []time.Time) ([][]float64, error) {
	return [][]float64{make([]float64, len(index)-1)}, nil
}

func TestBuildRoundTrip(t *testing.T) {
	cal, err := calendar.New("IT")
	require.NoError(t, err)

	outliers := []Outlier{
		{Type: AdditiveOutlier, Index: 10},
		{Type: LevelShift, Index: 48},
		{Type: TransientChange, Index: 59, Delta: 0.7},
	}
	req := Request{Calendar: cal, Drift: true, Outliers: outliers}

	index := monthlyIndex(start, 60)
	past, err := NewBuilder(index).Build(req)
	require.NoError(t, err)

	extended, err := NewBuilder(monthlyIndex(start, 72)).Build(req)
	require.NoError(t, err)

	assert.Equal(t, 72, extended.Rows())
	assert.True(t, extended.Slice(0, 60).Equal(past))
	assert.Equal(t, []string{"working_days", "leap_year", "easter", "drift", "AO@2005-11", "LS@2009-01", "TC@2009-12"}, past.Names())
}

func TestOutlierColumnsInHorizon(t *testing.T) {
	outliers := []Outlier{
		{Type: AdditiveOutlier, Index: 5},
		{Type: LevelShift, Index: 5},
		{Type: TransientChange, Index: 5},
	}
	m, err := NewBuilder(monthlyIndex(start, 12)).OutlierMatrix(outliers)
	require.NoError(t, err)

	ao := m.ColumnAt(0)
	ls := m.ColumnAt(1)
	tc := m.ColumnAt(2)
	for t2 := 0; t2 < 12; t2++ {
		switch {
		case t2 < 5:
			assert.Zero(t, ao[t2])
			assert.Zero(t, ls[t2])
			assert.Zero(t, tc[t2])
		case t2 == 5:
			assert.Equal(t, 1.0, ao[t2])
			assert.Equal(t, 1.0, ls[t2])
			assert.Equal(t, 1.0, tc[t2])
		default:
			assert.Zero(t, ao[t2])
			assert.Equal(t, 1.0, ls[t2])
			assert.InDelta(t, math.Pow(DefaultDelta, float64(t2-5)), tc[t2], 1e-15)
		}
	}
}

func TestBuildDimensionMismatch(t *testing.T) {
	b := NewBuilder(monthlyIndex(start, 24))

	_, err := b.Build(Request{Calendar: shortSource{}})
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	extra, err := NewMatrix([]string{"x"}, [][]float64{make([]float64, 23)})
	require.NoError(t, err)
	_, err = b.Build(Request{Extra: extra})
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	_, err = b.Build(Request{Outliers: []Outlier{{Type: LevelShift, Index: 24}}})
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))
}

func TestBuildEmpty(t *testing.T) {
	m, err := NewBuilder(monthlyIndex(start, 10)).Build(Request{})
	require.NoError(t, err)

	assert.Equal(t, 10, m.Rows())
	assert.Equal(t, 0, m.Cols())
	assert.Nil(t, m.Dense())
}

func TestMatrixIsImmutable(t *testing.T) {
	m, err := NewMatrix([]string{"a", "b"}, [][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	col, ok := m.Column("b")
	require.True(t, ok)
	col[0] = 100
	names := m.Names()
	names[0] = "z"
	dense := m.Dense()
	dense.Set(0, 0, -1)

	assert.Equal(t, []float64{1, 4}, m.Row(0))
	assert.Equal(t, []string{"a", "b"}, m.Names())

	_, ok = m.Column("missing")
	assert.False(t, ok)
}

func TestHStack(t *testing.T) {
	a, err := NewMatrix([]string{"a"}, [][]float64{{1, 2}})
	require.NoError(t, err)
	b, err := NewMatrix([]string{"b"}, [][]float64{{3, 4}})
	require.NoError(t, err)

	ab, err := a.HStack(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, ab.Row(1))

	_, err = ab.HStack(a)
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	c, err := NewMatrix([]string{"c"}, [][]float64{{1, 2, 3}})
	require.NoError(t, err)
	_, err = a.HStack(c)
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	same, err := Empty(2).HStack(a)
	require.NoError(t, err)
	assert.True(t, same.Equal(a))
}

func TestOutlierTypeText(t *testing.T) {
	for _, typ := range []OutlierType{AdditiveOutlier, LevelShift, TransientChange} {
		text, err := typ.MarshalText()
		require.NoError(t, err)

		var parsed OutlierType
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, typ, parsed)
	}

	_, err := ParseOutlierType("XX")
	assert.Error(t, err)
}

func TestSortOutliers(t *testing.T) {
	outliers := []Outlier{
		{Type: TransientChange, Index: 4},
		{Type: AdditiveOutlier, Index: 9},
		{Type: AdditiveOutlier, Index: 4},
	}
	SortOutliers(outliers)

	assert.Equal(t, "AO@4", outliers[0].Key())
	assert.Equal(t, "TC@4", outliers[1].Key())
	assert.Equal(t, "AO@9", outliers[2].Key())
}

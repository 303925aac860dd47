package timeseries

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/sarimax/errs"
)

func TestNew(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	s := New(values)

	require.Equal(t, 5, s.Len())
	assert.Equal(t, values, s.Values)
	assert.Equal(t, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), s.Timestamps[0])
	assert.Equal(t, time.Date(2000, time.May, 1, 0, 0, 0, 0, time.UTC), s.Timestamps[4])
	assert.NoError(t, s.Validate())
}

func TestNewMonthlyCrossesYear(t *testing.T) {
	s, err := NewMonthly(time.Date(2019, time.November, 17, 0, 0, 0, 0, time.UTC), []float64{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, "2019-11", s.Timestamps[0].Format("2006-01"))
	assert.Equal(t, "2020-01", s.Timestamps[2].Format("2006-01"))
}

func TestNewMonthlyRejectsNaN(t *testing.T) {
	_, err := NewMonthly(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), []float64{1, math.NaN(), 3})
	assert.True(t, errors.Is(err, errs.ErrNonFinite))
}

func TestValidate(t *testing.T) {
	jan := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		timestamps []time.Time
		values     []float64
		kind       errs.Kind
	}{
		{"gap", []time.Time{jan, jan.AddDate(0, 2, 0)}, []float64{1, 2}, errs.KindDimensionMismatch},
		{"duplicate", []time.Time{jan, jan}, []float64{1, 2}, errs.KindDimensionMismatch},
		{"decreasing", []time.Time{jan, jan.AddDate(0, -1, 0)}, []float64{1, 2}, errs.KindDimensionMismatch},
		{"length", []time.Time{jan}, []float64{1, 2}, errs.KindDimensionMismatch},
		{"infinite", []time.Time{jan, jan.AddDate(0, 1, 0)}, []float64{1, math.Inf(1)}, errs.KindNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Series{Timestamps: tt.timestamps, Values: tt.values}
			err := s.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
		})
	}
}

func TestFutureIndex(t *testing.T) {
	s, err := NewMonthly(time.Date(2021, time.October, 1, 0, 0, 0, 0, time.UTC), []float64{1, 2, 3})
	require.NoError(t, err)

	future := s.FutureIndex(3)
	require.Len(t, future, 3)
	assert.Equal(t, "2022-01", future[0].Format("2006-01"))
	assert.Equal(t, "2022-03", future[2].Format("2006-01"))

	all := s.ExtendedIndex(3)
	assert.Len(t, all, 6)
	assert.Equal(t, 5, MonthsBetween(all[0], all[5]))
	assert.Nil(t, s.FutureIndex(0))
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"simple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"single", []float64{5}, 5.0},
		{"negative", []float64{-1, -2, -3}, -2.0},
		{"mixed", []float64{-1, 0, 1}, 0.0},
		{"empty", []float64{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, New(tt.values).Mean(), 1e-10)
		})
	}
}

func TestVarianceAndStd(t *testing.T) {
	s := New([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.InDelta(t, 4.571428571428571, s.Variance(), 1e-10)
	assert.InDelta(t, math.Sqrt(4.571428571428571), s.Std(), 1e-10)
}

func TestDiff(t *testing.T) {
	s := New([]float64{1, 3, 6, 10, 15})
	diff := s.Diff()

	assert.Equal(t, []float64{2, 3, 4, 5}, diff.Values)
	assert.Equal(t, s.Timestamps[1], diff.Timestamps[0])
}

func TestSeasonalDiff(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(i%12) + float64(i/12)*10
	}
	sdiff := New(values).SeasonalDiff(12)

	require.Equal(t, 12, sdiff.Len())
	for _, v := range sdiff.Values {
		assert.Equal(t, 10.0, v)
	}
	assert.Equal(t, 0, New(values[:12]).SeasonalDiff(12).Len())
}

func TestSlice(t *testing.T) {
	s := New([]float64{1, 2, 3, 4, 5})
	sub := s.Slice(1, 4)

	assert.Equal(t, []float64{2, 3, 4}, sub.Values)
	assert.Equal(t, s.Timestamps[1], sub.Timestamps[0])

	sub.Values[0] = 100
	assert.Equal(t, 2.0, s.Values[1], "slice must not alias the original")
}

func TestLog(t *testing.T) {
	logged, err := New([]float64{1, math.E, math.E * math.E}).Log()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 2}, logged.Values, 1e-12)

	_, err = New([]float64{1, 0}).Log()
	assert.True(t, errors.Is(err, errs.ErrNonFinite))
}

func TestCopy(t *testing.T) {
	s := New([]float64{1, 2, 3})
	c := s.Copy()
	c.Values[0] = 100

	assert.Equal(t, 1.0, s.Values[0])
	assert.Equal(t, s.Timestamps, c.Timestamps)
}

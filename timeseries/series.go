package timeseries

import (
	"math"
	"time"

	"github.com/sartorproj/sarimax/errs"
)

// Series represents a time series with timestamps and values.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

var defaultStart = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// New creates a new monthly time series from values, indexed from January 2000.
func New(values []float64) *Series {
	s, _ := NewMonthly(defaultStart, values)
	return s
}

// NewMonthly creates a series whose index starts at the month of start and advances
// one calendar month per observation.
func NewMonthly(start time.Time, values []float64) (*Series, error) {
	first := monthStart(start)
	timestamps := make([]time.Time, len(values))
	for i := range timestamps {
		timestamps[i] = first.AddDate(0, i, 0)
	}
	s := &Series{
		Timestamps: timestamps,
		Values:     values,
	}
	if err := s.checkFinite(); err != nil {
		return s, err
	}
	return s, nil
}

// NewWithTimestamps creates a time series with explicit timestamps and validates the
// monthly index.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errs.New(errs.KindDimensionMismatch, "timeseries.NewWithTimestamps",
			"%d timestamps for %d values", len(timestamps), len(values))
	}
	s := &Series{
		Timestamps: timestamps,
		Values:     values,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the index is strictly increasing by exactly one calendar month
// and that all values are finite.
func (s *Series) Validate() error {
	if len(s.Timestamps) != len(s.Values) {
		return errs.New(errs.KindDimensionMismatch, "timeseries.Validate",
			"%d timestamps for %d values", len(s.Timestamps), len(s.Values))
	}
	for i := 1; i < len(s.Timestamps); i++ {
		if MonthsBetween(s.Timestamps[i-1], s.Timestamps[i]) != 1 {
			return errs.New(errs.KindDimensionMismatch, "timeseries.Validate",
				"index is not monthly and gap-free at position %d (%s -> %s)", i,
				s.Timestamps[i-1].Format("2006-01"), s.Timestamps[i].Format("2006-01"))
		}
	}
	return s.checkFinite()
}

func (s *Series) checkFinite() error {
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.New(errs.KindNonFinite, "timeseries.Validate", "value at position %d is %v", i, v)
		}
	}
	return nil
}

// MonthsBetween returns the number of calendar months from a to b.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// FutureIndex returns the h monthly timestamps following the last observation.
func (s *Series) FutureIndex(h int) []time.Time {
	if h <= 0 || len(s.Timestamps) == 0 {
		return nil
	}
	last := monthStart(s.Timestamps[len(s.Timestamps)-1])
	out := make([]time.Time, h)
	for i := range out {
		out[i] = last.AddDate(0, i+1, 0)
	}
	return out
}

// ExtendedIndex returns the observed index followed by h future months.
func (s *Series) ExtendedIndex(h int) []time.Time {
	out := make([]time.Time, 0, len(s.Timestamps)+h)
	out = append(out, s.Timestamps...)
	return append(out, s.FutureIndex(h)...)
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum / float64(len(s.Values))
}

// Variance calculates the variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	mean := s.Mean()
	sumSq := 0.0
	for _, v := range s.Values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(s.Values)-1)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.lagDiff(1, "_diff")
}

// SeasonalDiff calculates the seasonal difference with period m.
func (s *Series) SeasonalDiff(m int) *Series {
	return s.lagDiff(m, "_seasonal_diff")
}

func (s *Series) lagDiff(lag int, suffix string) *Series {
	if lag <= 0 || len(s.Values) <= lag {
		return &Series{Values: []float64{}}
	}

	result := make([]float64, len(s.Values)-lag)
	for i := lag; i < len(s.Values); i++ {
		result[i-lag] = s.Values[i] - s.Values[i-lag]
	}

	timestamps := make([]time.Time, len(result))
	if len(s.Timestamps) > lag {
		copy(timestamps, s.Timestamps[lag:])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name + suffix,
	}
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	return s.Slice(0, len(s.Values))
}

// Log applies the natural logarithm. Non-positive values fail with a NonFinite error.
func (s *Series) Log() (*Series, error) {
	result := make([]float64, len(s.Values))
	for i, v := range s.Values {
		if v <= 0 {
			return nil, errs.New(errs.KindNonFinite, "timeseries.Log", "value %v at position %d has no logarithm", v, i)
		}
		result[i] = math.Log(v)
	}

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name + "_log",
	}, nil
}

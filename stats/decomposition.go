package stats

import (
	"math"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/timeseries"
)

// Decomposition types.
const (
	DecomposeAdditive       = "additive"
	DecomposeMultiplicative = "multiplicative"
)

// DecompositionResult represents the decomposition of a time series.
type DecompositionResult struct {
	Original *timeseries.Series
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	Period   int
	Type     string
}

// Decompose performs classical seasonal decomposition with a centred moving average trend.
// Type can be "additive" (Y = T + S + R) or "multiplicative" (Y = T * S * R).
// Trend and residual are NaN over the first and last period/2 observations.
func Decompose(series *timeseries.Series, period int, decompositionType string) (*DecompositionResult, error) {
	if err := checkFinite("stats.Decompose", series.Values); err != nil {
		return nil, err
	}
	n := series.Len()
	if period < 2 || n < 2*period {
		return nil, errs.New(errs.KindInsufficientData, "stats.Decompose", "need two full periods of %d, have %d observations", period, n)
	}

	if decompositionType != DecomposeMultiplicative {
		decompositionType = DecomposeAdditive
	}
	multiplicative := decompositionType == DecomposeMultiplicative

	trend := centredMovingAverage(series.Values, period)

	detrended := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(trend[i]):
			detrended[i] = math.NaN()
		case multiplicative:
			if trend[i] == 0 {
				return nil, errs.New(errs.KindNonFinite, "stats.Decompose", "zero trend at %d in multiplicative decomposition", i)
			}
			detrended[i] = series.Values[i] / trend[i]
		default:
			detrended[i] = series.Values[i] - trend[i]
		}
	}

	// Seasonal index: average detrended value per position within the period
	seasonalPattern := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		if !math.IsNaN(detrended[i]) {
			seasonalPattern[i%period] += detrended[i]
			counts[i%period]++
		}
	}
	sum := 0.0
	for i := range seasonalPattern {
		if counts[i] > 0 {
			seasonalPattern[i] /= float64(counts[i])
		}
		sum += seasonalPattern[i]
	}
	mean := sum / float64(period)
	for i := range seasonalPattern {
		if multiplicative {
			seasonalPattern[i] /= mean
		} else {
			seasonalPattern[i] -= mean
		}
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = seasonalPattern[i%period]
		switch {
		case math.IsNaN(trend[i]):
			residual[i] = math.NaN()
		case multiplicative:
			residual[i] = series.Values[i] / (trend[i] * seasonal[i])
		default:
			residual[i] = series.Values[i] - trend[i] - seasonal[i]
		}
	}

	return &DecompositionResult{
		Original: series,
		Trend:    &timeseries.Series{Values: trend, Timestamps: series.Timestamps, Name: "trend"},
		Seasonal: &timeseries.Series{Values: seasonal, Timestamps: series.Timestamps, Name: "seasonal"},
		Residual: &timeseries.Series{Values: residual, Timestamps: series.Timestamps, Name: "residual"},
		Period:   period,
		Type:     decompositionType,
	}, nil
}

// centredMovingAverage uses a 2xperiod MA for even periods and a simple centred MA otherwise.
func centredMovingAverage(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			sum += 0.5 * (values[i-half] + values[i+half])
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
		}
		trend[i] = sum / float64(period)
	}
	return trend
}

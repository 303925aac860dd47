package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/timeseries"
)

// ACF calculates the Autocorrelation Function for the given series.
// Returns ACF values for lags 0 to maxLag.
func ACF(series *timeseries.Series, maxLag int) ([]float64, error) {
	if err := checkFinite("stats.ACF", series.Values); err != nil {
		return nil, err
	}
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil, errs.New(errs.KindInsufficientData, "stats.ACF", "empty series")
	}

	mean := stat.Mean(series.Values, nil)
	variance := 0.0
	for _, v := range series.Values {
		d := v - mean
		variance += d * d
	}
	if variance == 0 {
		return nil, errs.New(errs.KindNonFinite, "stats.ACF", "series is constant")
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (series.Values[i] - mean) * (series.Values[i-k] - mean)
		}
		acf[k] = sum / variance
	}

	return acf, nil
}

// PACF calculates the Partial Autocorrelation Function using the Durbin-Levinson algorithm.
// Returns PACF values for lags 0 to maxLag, with lag 0 fixed at 1.
func PACF(series *timeseries.Series, maxLag int) ([]float64, error) {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 {
		return nil, errs.New(errs.KindInsufficientData, "stats.PACF", "need at least two observations")
	}

	acf, err := ACF(series, maxLag)
	if err != nil {
		return nil, err
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1.0

	phi := make([][]float64, maxLag+1)
	for i := range phi {
		phi[i] = make([]float64, maxLag+1)
	}

	phi[1][1] = acf[1]
	pacf[1] = acf[1]

	for k := 2; k <= maxLag; k++ {
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
			den -= phi[k-1][j] * acf[j]
		}
		if den == 0 {
			return nil, errs.New(errs.KindNonFinite, "stats.PACF", "Durbin-Levinson breakdown at lag %d", k)
		}

		phi[k][k] = num / den
		pacf[k] = phi[k][k]

		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
	}

	return pacf, nil
}

// CorrelogramResult holds ACF or PACF values with their confidence bound.
type CorrelogramResult struct {
	Lags       []int
	Values     []float64
	ConfBounds float64 // two-sided bound z_{1-alpha/2}/sqrt(n)
}

// ACFWithConfidence calculates ACF with 95% confidence bounds.
func ACFWithConfidence(series *timeseries.Series, maxLag int) (*CorrelogramResult, error) {
	acf, err := ACF(series, maxLag)
	if err != nil {
		return nil, err
	}
	return newCorrelogram(acf, series.Len()), nil
}

// PACFWithConfidence calculates PACF with 95% confidence bounds.
func PACFWithConfidence(series *timeseries.Series, maxLag int) (*CorrelogramResult, error) {
	pacf, err := PACF(series, maxLag)
	if err != nil {
		return nil, err
	}
	return newCorrelogram(pacf, series.Len()), nil
}

func newCorrelogram(values []float64, n int) *CorrelogramResult {
	lags := make([]int, len(values))
	for i := range lags {
		lags[i] = i
	}
	return &CorrelogramResult{
		Lags:       lags,
		Values:     values,
		ConfBounds: distuv.UnitNormal.Quantile(0.975) / math.Sqrt(float64(n)),
	}
}

// SignificantLags returns the lags where ACF/PACF values exceed confidence bounds.
func SignificantLags(values []float64, confBound float64) []int {
	var significant []int
	for i := 1; i < len(values); i++ { // Skip lag 0
		if math.Abs(values[i]) > confBound {
			significant = append(significant, i)
		}
	}
	return significant
}

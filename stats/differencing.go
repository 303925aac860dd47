package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/sarimax/timeseries"
)

// Unit-root tests usable by NDiffs.
const (
	UnitRootKPSS = "kpss"
	UnitRootADF  = "adf"
	UnitRootPP   = "pp"
)

// NDiffs determines the number of first differences required for stationarity.
// Uses KPSS test by default. Returns 0, 1, or 2.
// maxD is the maximum number of differences to consider (default 2).
// testType can be "kpss" (default), "adf" or "pp".
func NDiffs(series *timeseries.Series, maxD int, testType string) (int, error) {
	if maxD <= 0 {
		maxD = 2
	}
	if testType == "" {
		testType = UnitRootKPSS
	}
	if err := checkFinite("stats.NDiffs", series.Values); err != nil {
		return 0, err
	}

	current := series
	for d := 0; d < maxD; d++ {
		// A constant series needs no further differencing.
		if current.Variance() == 0 {
			return d, nil
		}

		isStationary, err := isStationary(current, testType)
		if err != nil {
			return 0, err
		}
		if isStationary {
			return d, nil
		}

		current = current.Diff()
		if current.Len() < 10 {
			return d, nil
		}
	}

	return maxD, nil
}

func isStationary(series *timeseries.Series, testType string) (bool, error) {
	switch testType {
	case UnitRootADF:
		result, err := ADF(series, 0, RegressionConstant)
		if err != nil {
			return false, err
		}
		return result.IsStationary, nil
	case UnitRootPP:
		result, err := PhillipsPerron(series, 0)
		if err != nil {
			return false, err
		}
		return result.IsStationary, nil
	default:
		result, err := KPSS(series, RegressionConstant, 0)
		if err != nil {
			return false, err
		}
		return result.IsStationary, nil
	}
}

// NSDiffs determines the number of seasonal differences required.
// Uses seasonal strength measure: if F_S >= 0.64, one seasonal difference is suggested.
// period is the seasonal period (e.g., 12 for monthly data with yearly seasonality).
func NSDiffs(series *timeseries.Series, period int, maxD int) (int, error) {
	if maxD <= 0 {
		maxD = 1
	}
	if err := checkFinite("stats.NSDiffs", series.Values); err != nil {
		return 0, err
	}
	if period <= 1 || series.Len() < 2*period {
		return 0, nil
	}

	current := series
	for d := 0; d < maxD; d++ {
		strength, err := SeasonalStrength(current, period)
		if err != nil {
			return 0, err
		}
		if strength < 0.64 {
			return d, nil
		}

		current = current.SeasonalDiff(period)
		if current.Len() < 2*period {
			return d, nil
		}
	}

	return maxD, nil
}

// SeasonalStrength calculates the strength of seasonality (F_S).
// F_S = max(0, 1 - Var(R) / Var(S+R))
// where S is seasonal component and R is residual.
func SeasonalStrength(series *timeseries.Series, period int) (float64, error) {
	if series.Len() < 2*period {
		return 0, nil
	}

	decomp, err := Decompose(series, period, DecomposeAdditive)
	if err != nil {
		return 0, err
	}

	var resid, seasonalPlusResid []float64
	for i := range decomp.Seasonal.Values {
		r := decomp.Residual.Values[i]
		if math.IsNaN(r) {
			continue
		}
		resid = append(resid, r)
		seasonalPlusResid = append(seasonalPlusResid, decomp.Seasonal.Values[i]+r)
	}
	if len(resid) < 2 {
		return 0, nil
	}

	varSR := stat.Variance(seasonalPlusResid, nil)
	if varSR == 0 {
		return 0, nil
	}

	return math.Max(0, 1-stat.Variance(resid, nil)/varSR), nil
}

// AICc calculates the corrected Akaike Information Criterion.
// AICc = AIC + 2(k)(k+1)/(n-k-1) where k is number of parameters.
// This corrects for small sample sizes.
func AICc(aic float64, nObs int, nParams int) float64 {
	k := float64(nParams)
	n := float64(nObs)

	if n-k-1 <= 0 {
		return math.Inf(1)
	}

	return aic + 2*k*(k+1)/(n-k-1)
}

// InformationCriteria holds AIC, AICc, and BIC for a fitted model.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC calculates all information criteria.
// logLik is the log-likelihood, nObs is the number of observations,
// nParams is the number of estimated parameters including the innovation variance.
func CalculateIC(logLik float64, nObs int, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k

	return &InformationCriteria{
		AIC:    aic,
		AICc:   AICc(aic, nObs, nParams),
		BIC:    -2*logLik + k*math.Log(n),
		LogLik: logLik,
	}
}

package stats

import (
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/timeseries"
)

// PortmanteauResult represents the result of a Ljung-Box or Box-Pierce test.
type PortmanteauResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int // Degrees of freedom
}

// LjungBox performs the Ljung-Box test for autocorrelation in residuals.
// The null hypothesis is that there is no autocorrelation up to lag h.
// If p-value < 0.05, we reject the null and conclude there is significant autocorrelation.
// fitdf is the number of ARMA parameters estimated in the model (p+q+P+Q).
func LjungBox(series *timeseries.Series, lags, fitdf int) (*PortmanteauResult, error) {
	return portmanteau(series, lags, fitdf, true)
}

// BoxPierce performs the Box-Pierce test for autocorrelation.
// Similar to Ljung-Box without the small-sample weighting.
func BoxPierce(series *timeseries.Series, lags, fitdf int) (*PortmanteauResult, error) {
	return portmanteau(series, lags, fitdf, false)
}

func portmanteau(series *timeseries.Series, lags, fitdf int, ljung bool) (*PortmanteauResult, error) {
	n := series.Len()
	if n < 10 || lags < 1 {
		return nil, errs.New(errs.KindInsufficientData, "stats.LjungBox", "%d observations for %d lags", n, lags)
	}
	if lags >= n {
		lags = n - 1
	}

	acf, err := ACF(series, lags)
	if err != nil {
		return nil, err
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		if ljung {
			q += (acf[k] * acf[k]) / float64(n-k)
		} else {
			q += acf[k] * acf[k]
		}
	}
	if ljung {
		q *= float64(n * (n + 2))
	} else {
		q *= float64(n)
	}

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi := distuv.ChiSquared{K: float64(dof)}
	return &PortmanteauResult{
		Statistic: q,
		PValue:    chi.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}, nil
}

// JarqueBeraResult represents the result of a Jarque-Bera normality test.
type JarqueBeraResult struct {
	Statistic float64
	PValue    float64
	Skewness  float64
	Kurtosis  float64 // excess kurtosis
}

// JarqueBera tests residual normality from sample skewness and excess kurtosis.
// Under the null the statistic is chi-squared with 2 degrees of freedom.
func JarqueBera(residuals []float64) (*JarqueBeraResult, error) {
	if err := checkFinite("stats.JarqueBera", residuals); err != nil {
		return nil, err
	}
	n := len(residuals)
	if n < 4 {
		return nil, errs.New(errs.KindInsufficientData, "stats.JarqueBera", "need at least 4 residuals, have %d", n)
	}
	if stat.Variance(residuals, nil) == 0 {
		return nil, errs.New(errs.KindNonFinite, "stats.JarqueBera", "residuals are constant")
	}

	skew := stat.Skew(residuals, nil)
	kurt := stat.ExKurtosis(residuals, nil)
	jb := float64(n) / 6 * (skew*skew + kurt*kurt/4)

	return &JarqueBeraResult{
		Statistic: jb,
		PValue:    distuv.ChiSquared{K: 2}.Survival(jb),
		Skewness:  skew,
		Kurtosis:  kurt,
	}, nil
}

// DurbinWatsonResult represents the result of a Durbin-Watson test.
type DurbinWatsonResult struct {
	Statistic float64
	// d ≈ 2: no autocorrelation
	// d < 2: positive autocorrelation
	// d > 2: negative autocorrelation
}

// DurbinWatson calculates the Durbin-Watson statistic for first-order autocorrelation.
func DurbinWatson(residuals []float64) (*DurbinWatsonResult, error) {
	if err := checkFinite("stats.DurbinWatson", residuals); err != nil {
		return nil, err
	}
	n := len(residuals)
	if n < 2 {
		return nil, errs.New(errs.KindInsufficientData, "stats.DurbinWatson", "need at least 2 residuals")
	}

	numerator := 0.0
	denominator := 0.0
	for i := 1; i < n; i++ {
		d := residuals[i] - residuals[i-1]
		numerator += d * d
	}
	for _, r := range residuals {
		denominator += r * r
	}
	if denominator == 0 {
		return nil, errs.New(errs.KindNonFinite, "stats.DurbinWatson", "residuals are all zero")
	}

	return &DurbinWatsonResult{
		Statistic: numerator / denominator,
	}, nil
}

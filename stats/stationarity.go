package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/timeseries"
)

// Deterministic terms in unit-root regressions.
const (
	RegressionConstant      = "c"
	RegressionConstantTrend = "ct"
)

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	Regression   string
	CriticalVals map[string]float64 // Critical values at 1%, 5%, 10%
	IsStationary bool
}

// ADF performs the Augmented Dickey-Fuller test for unit root.
// The null hypothesis is that the series has a unit root (is non-stationary).
// If p-value < 0.05, we reject the null and conclude the series is stationary.
// regression is "c" (constant) or "ct" (constant and linear trend).
func ADF(series *timeseries.Series, maxLag int, regression string) (*ADFResult, error) {
	if err := checkFinite("stats.ADF", series.Values); err != nil {
		return nil, err
	}
	n := series.Len()
	if n < 10 {
		return nil, errs.New(errs.KindInsufficientData, "stats.ADF", "need at least 10 observations, have %d", n)
	}
	if regression != RegressionConstantTrend {
		regression = RegressionConstant
	}

	// Use default lag selection (floor of (n-1)^(1/3))
	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := series.Diff()

	// delta_y_t = alpha [+ gamma*t] + beta*y_{t-1} + sum(delta_i * delta_y_{t-i}) + e_t
	// beta = 0 is the unit root.
	nObs := n - maxLag - 1
	if nObs < 10 {
		return nil, errs.New(errs.KindInsufficientData, "stats.ADF", "%d usable observations after %d lags", nObs, maxLag)
	}

	det := 1
	if regression == RegressionConstantTrend {
		det = 2
	}
	cols := det + 1 + maxLag
	y := make([]float64, nObs)
	x := mat.NewDense(nObs, cols, nil)

	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y[i] = diff.Values[t]

		x.Set(i, 0, 1)
		if det == 2 {
			x.Set(i, 1, float64(t+1))
		}
		x.Set(i, det, series.Values[t]) // lagged level
		for j := 1; j <= maxLag; j++ {
			x.Set(i, det+j, diff.Values[t-j])
		}
	}

	coeffs, se, _, err := olsRegression(x, y)
	if err != nil {
		return nil, err
	}

	tStat := coeffs[det] / se[det]
	if math.IsNaN(tStat) || math.IsInf(tStat, 0) {
		return nil, errs.New(errs.KindNonFinite, "stats.ADF", "test statistic is %v", tStat)
	}

	pValue := mackinnonPValue(tStat, regression)

	return &ADFResult{
		Statistic:    tStat,
		PValue:       pValue,
		Lags:         maxLag,
		NObs:         nObs,
		Regression:   regression,
		CriticalVals: unitRootCriticalValues(regression),
		IsStationary: pValue < 0.05,
	}, nil
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for stationarity.
// The null hypothesis is that the series is stationary.
// If p-value < 0.05, we reject the null and conclude the series is non-stationary.
func KPSS(series *timeseries.Series, regression string, nlags int) (*KPSSResult, error) {
	if err := checkFinite("stats.KPSS", series.Values); err != nil {
		return nil, err
	}
	n := series.Len()
	if n < 10 {
		return nil, errs.New(errs.KindInsufficientData, "stats.KPSS", "need at least 10 observations, have %d", n)
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	if regression == RegressionConstantTrend {
		x := mat.NewDense(n, 2, nil)
		for i := 0; i < n; i++ {
			x.Set(i, 0, 1)
			x.Set(i, 1, float64(i))
		}
		_, _, resid, err := olsRegression(x, series.Values)
		if err != nil {
			return nil, err
		}
		copy(residuals, resid)
	} else {
		mean := series.Mean()
		for i, v := range series.Values {
			residuals[i] = v - mean
		}
	}

	// Partial sums
	cumSum := make([]float64, n)
	cumSum[0] = residuals[0]
	for i := 1; i < n; i++ {
		cumSum[i] = cumSum[i-1] + residuals[i]
	}

	s2 := neweyWestVariance(residuals, nlags)
	if s2 <= 0 || math.IsNaN(s2) {
		return nil, errs.New(errs.KindNonFinite, "stats.KPSS", "long-run variance is %v", s2)
	}

	etaSq := 0.0
	for _, cs := range cumSum {
		etaSq += cs * cs
	}
	kpssStat := etaSq / (float64(n) * float64(n) * s2)

	var criticalVals map[string]float64
	if regression == RegressionConstantTrend {
		criticalVals = map[string]float64{
			"10%": 0.119,
			"5%":  0.146,
			"1%":  0.216,
		}
	} else {
		criticalVals = map[string]float64{
			"10%": 0.347,
			"5%":  0.463,
			"1%":  0.739,
		}
	}

	pValue := kpssPValue(kpssStat, regression)

	return &KPSSResult{
		Statistic:    kpssStat,
		PValue:       pValue,
		Lags:         nlags,
		CriticalVals: criticalVals,
		IsStationary: pValue >= 0.05,
	}, nil
}

// PhillipsPerronResult represents the result of a Phillips-Perron test.
type PhillipsPerronResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// PhillipsPerron performs the Phillips-Perron test for unit root.
// Similar to ADF but handles serial correlation with a Newey-West correction.
func PhillipsPerron(series *timeseries.Series, nlags int) (*PhillipsPerronResult, error) {
	if err := checkFinite("stats.PhillipsPerron", series.Values); err != nil {
		return nil, err
	}
	n := series.Len()
	if n < 10 {
		return nil, errs.New(errs.KindInsufficientData, "stats.PhillipsPerron", "need at least 10 observations, have %d", n)
	}

	if nlags <= 0 {
		nlags = int(math.Floor(4 * math.Pow(float64(n)/100, 0.25)))
	}

	diff := series.Diff()

	// delta_y_t = alpha + beta * y_{t-1} + e_t
	nObs := n - 1
	x := mat.NewDense(nObs, 2, nil)
	for i := 0; i < nObs; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, series.Values[i])
	}

	coeffs, se, residuals, err := olsRegression(x, diff.Values)
	if err != nil {
		return nil, err
	}

	gamma0 := 0.0
	for _, r := range residuals {
		gamma0 += r * r
	}
	gamma0 /= float64(nObs)

	lambda2 := neweyWestVariance(residuals, nlags)
	if lambda2 <= 0 || gamma0 <= 0 {
		return nil, errs.New(errs.KindNonFinite, "stats.PhillipsPerron", "degenerate residual variance")
	}

	tStat := coeffs[1] / se[1]

	xMean := 0.0
	for i := 0; i < nObs; i++ {
		xMean += series.Values[i]
	}
	xMean /= float64(nObs)

	sumXDev2 := 0.0
	for i := 0; i < nObs; i++ {
		d := series.Values[i] - xMean
		sumXDev2 += d * d
	}

	correction := (lambda2 - gamma0) * math.Sqrt(float64(nObs)) / (2 * math.Sqrt(lambda2) * math.Sqrt(sumXDev2))
	ppStat := math.Sqrt(gamma0/lambda2)*tStat - correction
	if math.IsNaN(ppStat) || math.IsInf(ppStat, 0) {
		return nil, errs.New(errs.KindNonFinite, "stats.PhillipsPerron", "test statistic is %v", ppStat)
	}

	pValue := mackinnonPValue(ppStat, RegressionConstant)

	return &PhillipsPerronResult{
		Statistic:    ppStat,
		PValue:       pValue,
		Lags:         nlags,
		CriticalVals: unitRootCriticalValues(RegressionConstant),
		IsStationary: pValue < 0.05,
	}, nil
}

// neweyWestVariance returns the long-run variance of residuals with Bartlett weights.
func neweyWestVariance(residuals []float64, nlags int) float64 {
	n := len(residuals)
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)

	for l := 1; l <= nlags && l < n; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		weight := 1.0 - float64(l)/float64(nlags+1)
		s2 += 2 * weight * cov
	}
	return s2
}

func unitRootCriticalValues(regression string) map[string]float64 {
	if regression == RegressionConstantTrend {
		return map[string]float64{
			"1%":  -3.96,
			"5%":  -3.41,
			"10%": -3.13,
		}
	}
	return map[string]float64{
		"1%":  -3.43,
		"5%":  -2.86,
		"10%": -2.57,
	}
}

// MacKinnon (1994) response surface for a single integrated series.
var mackinnonSurface = map[string]struct {
	min, max, star float64
	small          []float64
	large          []float64
}{
	RegressionConstant: {
		min: -18.83, max: 2.74, star: -1.61,
		small: []float64{2.1659, 1.4412, 3.8269e-02},
		large: []float64{1.7339, 9.3202e-01, -1.2745e-01, -1.0368e-02},
	},
	RegressionConstantTrend: {
		min: -16.18, max: 0.7, star: -2.62,
		small: []float64{3.2512, 1.6047, 4.9588e-02},
		large: []float64{2.5261, 6.1654e-01, -3.7956e-01, -6.0285e-02},
	},
}

// mackinnonPValue approximates the p-value of an ADF/PP statistic.
func mackinnonPValue(stat float64, regression string) float64 {
	surface, ok := mackinnonSurface[regression]
	if !ok {
		surface = mackinnonSurface[RegressionConstant]
	}
	switch {
	case stat > surface.max:
		return 1
	case stat < surface.min:
		return 0
	}

	coeffs := surface.large
	if stat <= surface.star {
		coeffs = surface.small
	}

	z := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		z = z*stat + coeffs[i]
	}
	return distuv.UnitNormal.CDF(z)
}

// kpssPValue interpolates the KPSS p-value from the tabulated critical values.
// Values are clamped to [0.01, 0.10].
func kpssPValue(stat float64, regression string) float64 {
	pvals := []float64{0.10, 0.05, 0.025, 0.01}
	crit := []float64{0.347, 0.463, 0.574, 0.739}
	if regression == RegressionConstantTrend {
		crit = []float64{0.119, 0.146, 0.176, 0.216}
	}

	if stat <= crit[0] {
		return pvals[0]
	}
	for i := 1; i < len(crit); i++ {
		if stat <= crit[i] {
			frac := (stat - crit[i-1]) / (crit[i] - crit[i-1])
			return pvals[i-1] + frac*(pvals[i]-pvals[i-1])
		}
	}
	return pvals[len(pvals)-1]
}

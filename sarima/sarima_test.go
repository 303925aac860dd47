package sarima

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/regressors"
	"github.com/sartorproj/sarimax/timeseries"
)

// simulateARMA generates an ARMA(p,q) path with unit innovations after a
// burn-in period.
func simulateARMA(n int, phi, theta []float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	burn := 200
	total := n + burn
	y := make([]float64, total)
	e := make([]float64, total)
	for t := 0; t < total; t++ {
		e[t] = rng.NormFloat64()
		v := e[t]
		for i, p := range phi {
			if t-i-1 >= 0 {
				v += p * y[t-i-1]
			}
		}
		for j, q := range theta {
			if t-j-1 >= 0 {
				v += q * e[t-j-1]
			}
		}
		y[t] = v
	}
	return y[burn:]
}

func quietOptions() Options {
	opts := DefaultOptions()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	opts.Logger = logger
	return opts
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		valid bool
	}{
		{"airline", NewOrder(0, 1, 1, 0, 1, 1, 12), true},
		{"non-seasonal", NewOrder(2, 1, 2, 0, 0, 0, 0), true},
		{"negative p", NewOrder(-1, 0, 0, 0, 0, 0, 12), false},
		{"negative Q", NewOrder(0, 0, 0, 0, 0, -1, 12), false},
		{"d too large", NewOrder(0, 3, 0, 0, 0, 0, 12), false},
		{"D too large", NewOrder(0, 0, 0, 0, 3, 0, 12), false},
		{"seasonal without period", NewOrder(0, 0, 0, 1, 0, 0, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, errs.ErrInvalidOrder))
			}
		})
	}
}

func TestOrderString(t *testing.T) {
	assert.Equal(t, "ARIMA(0,1,1)(0,1,1)[12]", NewOrder(0, 1, 1, 0, 1, 1, 12).String())
	assert.Equal(t, "ARIMA(2,0,1)", NewOrder(2, 0, 1, 0, 0, 0, 12).String())
	assert.Equal(t, 13, NewOrder(0, 1, 1, 0, 1, 1, 12).Lost())
}

func TestExpandPolynomials(t *testing.T) {
	phi := expandAR([]float64{0.5}, []float64{0.3}, 12)
	require.Len(t, phi, 13)
	assert.Equal(t, 0.5, phi[0])
	assert.Equal(t, 0.3, phi[11])
	assert.InDelta(t, -0.15, phi[12], 1e-15)

	theta := expandMA([]float64{0.4}, []float64{0.6}, 12)
	require.Len(t, theta, 13)
	assert.Equal(t, 0.4, theta[0])
	assert.Equal(t, 0.6, theta[11])
	assert.InDelta(t, 0.24, theta[12], 1e-15)
}

func TestDiffPoly(t *testing.T) {
	poly := diffPoly(1, 1, 4)
	assert.Equal(t, []float64{1, -1, 0, 0, -1, 1}, poly)

	values := []float64{1, 4, 9, 16, 25}
	assert.Equal(t, []float64{2, 2, 2}, differenceValues(values, 2, 0, 0))
}

func TestPsiAndPiWeights(t *testing.T) {
	psi := polyDiv(maPoly(nil), arPoly([]float64{0.5}), 4)
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.25, 0.125}, psi, 1e-15)

	pi := polyDiv(arPoly(nil), maPoly([]float64{0.5}), 4)
	assert.InDeltaSlice(t, []float64{1, -0.5, 0.25, -0.125}, pi, 1e-15)
}

func TestPartransRoundTrip(t *testing.T) {
	raw := []float64{0.3, -0.8, 1.2}
	phi := partrans(raw)
	assert.True(t, arStationary(phi))
	assert.InDeltaSlice(t, raw, invpartrans(phi), 1e-9)

	assert.False(t, arStationary([]float64{1.1}))
}

func TestPolyRoots(t *testing.T) {
	// (1 - 0.7z)(1 - 0.8z)
	roots, ok := polyRoots([]float64{1, -1.5, 0.56})
	require.True(t, ok)
	require.Len(t, roots, 2)
	mods := []float64{math.Abs(real(roots[0])), math.Abs(real(roots[1]))}
	assert.InDelta(t, 1/0.7+1/0.8, mods[0]+mods[1], 1e-9)
	assert.InDelta(t, 1/(0.7*0.8), mods[0]*mods[1], 1e-9)
}

func TestInvertPoly(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.5}, invertPoly([]float64{2}), 1e-12)
	assert.InDeltaSlice(t, []float64{0.4}, invertPoly([]float64{0.4}), 1e-15)
	assert.True(t, maInvertible(invertPoly([]float64{-1.5, 0.2})))
}

func TestStationaryCovariance(t *testing.T) {
	p, ok := stationaryCovariance([]float64{0.6}, []float64{1})
	require.True(t, ok)
	assert.InDelta(t, 1/(1-0.36), p.At(0, 0), 1e-10)

	p, ok = stationaryCovariance([]float64{0, 0}, []float64{1, 0.5})
	require.True(t, ok)
	assert.InDelta(t, 1.25, p.At(0, 0), 1e-12)

	_, ok = stationaryCovariance([]float64{1.2}, []float64{1})
	assert.False(t, ok)
}

func TestKalmanWhiteNoise(t *testing.T) {
	y := []float64{1, -2, 3, 0.5}
	out, sumlog, ok := kalmanFilter(nil, nil, [][]float64{y})
	require.True(t, ok)
	assert.Equal(t, 0.0, sumlog)
	assert.Equal(t, y, out[0])
}

func TestFitAR1(t *testing.T) {
	y := simulateARMA(400, []float64{0.7}, nil, 11)
	series := timeseries.New(y)

	model, err := Fit(context.Background(), series, NewOrder(1, 0, 0, 0, 0, 0, 0), nil, quietOptions())
	require.NoError(t, err)

	assert.InDelta(t, 0.7, model.AR()[0], 0.12)
	assert.Equal(t, ML, model.Method())
	assert.False(t, model.Fallback())
	assert.True(t, model.Converged())
	assert.True(t, model.StdErrorsValid())
	assert.Equal(t, ColumnIntercept, model.Constant())
	assert.Equal(t, []string{"intercept"}, model.Design().Names())
	assert.Equal(t, 400, model.NObs())
	assert.Equal(t, 2, model.NParams())
	assert.InDelta(t, 1.0, model.Sigma2(), 0.25)
	assert.Less(t, model.AIC(), model.BIC())

	roots, err := model.Roots()
	require.NoError(t, err)
	require.Len(t, roots.AR, 1)
	assert.InDelta(t, 1/math.Abs(model.AR()[0]), roots.AR[0].Modulus, 1e-9)
	assert.True(t, roots.Stationary)
	assert.True(t, roots.Invertible)
	assert.False(t, roots.NearUnitAR())
}

func TestFitWhiteNoiseCoefficientsInsignificant(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	y := make([]float64, 300)
	for i := range y {
		y[i] = rng.NormFloat64()
	}

	model, err := Fit(context.Background(), timeseries.New(y), NewOrder(1, 0, 0, 1, 0, 0, 12), nil, quietOptions())
	require.NoError(t, err)
	require.True(t, model.StdErrorsValid())

	for _, c := range model.Coefficients() {
		lower, upper := c.Value-3.5*c.StdError, c.Value+3.5*c.StdError
		assert.Truef(t, lower < 0 && upper > 0, "%s interval [%.3f, %.3f] excludes zero", c.Name, lower, upper)
	}
}

// trendingSinusoid returns 100 + 0.5t + 10 sin(2 pi t/12) plus unit normal noise.
func trendingSinusoid(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	y := make([]float64, n)
	for i := range y {
		y[i] = 100 + 0.5*float64(i) + 10*math.Sin(2*math.Pi*float64(i)/12) + rng.NormFloat64()
	}
	return y
}

func TestFitSeasonalSinusoid(t *testing.T) {
	// With seed 56 the exact ML estimate of sar1 is about -0.66; the
	// seasonal difference of this process has a lag-12 autocorrelation of
	// -0.5, so seeds scatter around that value.
	y := trendingSinusoid(120, 56)

	model, err := Fit(context.Background(), timeseries.New(y), NewOrder(1, 0, 0, 1, 1, 0, 12), nil, quietOptions())
	require.NoError(t, err)

	assert.Equal(t, ColumnDrift, model.Constant())
	require.Len(t, model.SAR(), 1)
	assert.Greater(t, math.Abs(model.SAR()[0]), 0.5)
	drift, ok := model.Coefficient(ColumnDrift)
	require.True(t, ok)
	assert.InDelta(t, 0.5, drift.Value, 0.05)
	assert.Equal(t, 108, model.NObs())
	assert.Equal(t, 25, model.Start())
	assert.Len(t, model.Residuals(), 95)

	d, err := model.Diagnose(0)
	require.NoError(t, err)
	assert.Equal(t, 24, d.LjungBox.Lags)
	assert.Equal(t, 22, d.LjungBox.DOF)
	assert.LessOrEqual(t, d.BoxPierce.Statistic, d.LjungBox.Statistic)
	assert.Len(t, d.Coefficients, 3)

	summary := model.Summary()
	assert.Contains(t, summary.String(), "ARIMA(1,0,0)(1,1,0)[12]")
	assert.Contains(t, summary.String(), "sar1")
}

func TestFitCSS(t *testing.T) {
	y := simulateARMA(300, []float64{0.5}, []float64{0.3}, 5)
	opts := quietOptions()
	opts.Method = CSS
	opts.IncludeConstant = false

	model, err := Fit(context.Background(), timeseries.New(y), NewOrder(1, 0, 1, 0, 0, 0, 0), nil, opts)
	require.NoError(t, err)

	assert.Equal(t, CSS, model.Method())
	assert.Equal(t, 299, model.NObs())
	assert.Empty(t, model.Constant())
	names := make([]string, 0, 2)
	for _, c := range model.Coefficients() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"ar1", "ma1"}, names)
}

func TestFitConstantColumn(t *testing.T) {
	y := simulateARMA(200, []float64{0.5}, nil, 9)
	for i := range y {
		y[i] += 50
	}
	series := timeseries.New(y)

	model, err := Fit(context.Background(), series, NewOrder(1, 0, 0, 0, 0, 0, 0), nil, quietOptions())
	require.NoError(t, err)
	c, ok := model.Coefficient(ColumnIntercept)
	require.True(t, ok)
	assert.InDelta(t, 50, c.Value, 1)

	model, err = Fit(context.Background(), series, NewOrder(0, 2, 1, 0, 0, 0, 0), nil, quietOptions())
	require.NoError(t, err)
	assert.Empty(t, model.Constant())
}

func TestFitErrors(t *testing.T) {
	ctx := context.Background()
	y := simulateARMA(60, []float64{0.5}, nil, 2)
	series := timeseries.New(y)

	_, err := Fit(ctx, series, NewOrder(-1, 0, 0, 0, 0, 0, 0), nil, quietOptions())
	assert.True(t, errors.Is(err, errs.ErrInvalidOrder))

	short, err := regressors.NewMatrix([]string{"x"}, [][]float64{make([]float64, 10)})
	require.NoError(t, err)
	_, err = Fit(ctx, series, NewOrder(1, 0, 0, 0, 0, 0, 0), short, quietOptions())
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	_, err = Fit(ctx, timeseries.New(y[:10]), NewOrder(2, 0, 2, 1, 1, 1, 12), nil, quietOptions())
	assert.True(t, errors.Is(err, errs.ErrInsufficientData))

	constant := make([]float64, 60)
	for i := range constant {
		constant[i] = 5
	}
	_, err = Fit(ctx, timeseries.New(constant), NewOrder(1, 0, 0, 0, 0, 0, 0), nil, quietOptions())
	assert.True(t, errors.Is(err, errs.ErrEstimationFailed))

	_, err = Fit(ctx, timeseries.New(constant), NewOrder(0, 1, 0, 0, 0, 0, 0), nil, quietOptions())
	assert.True(t, errors.Is(err, errs.ErrEstimationFailed))

	level, err := regressors.NewMatrix([]string{"level"}, [][]float64{constant})
	require.NoError(t, err)
	_, err = Fit(ctx, series, NewOrder(1, 1, 0, 0, 0, 0, 0), level, quietOptions())
	assert.True(t, errors.Is(err, errs.ErrEstimationFailed))
}

func TestFitIterationLimit(t *testing.T) {
	y := simulateARMA(200, []float64{0.6}, nil, 4)
	for _, method := range []Method{ML, CSS, CSSML} {
		t.Run(method.String(), func(t *testing.T) {
			opts := quietOptions()
			opts.Method = method
			opts.MaxIterations = 1

			model, err := Fit(context.Background(), timeseries.New(y), NewOrder(1, 0, 0, 0, 0, 0, 0), nil, opts)
			assert.Nil(t, model)
			assert.True(t, errors.Is(err, errs.ErrEstimationFailed))
		})
	}
}

func TestFitCancelled(t *testing.T) {
	y := simulateARMA(200, []float64{0.6}, nil, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fit(ctx, timeseries.New(y), NewOrder(1, 0, 0, 0, 0, 0, 0), nil, quietOptions())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRefilterMatchesPrefix(t *testing.T) {
	n, n0 := 150, 120
	y := simulateARMA(n, []float64{0.5}, []float64{0.3}, 21)
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Cos(float64(i))
		y[i] += 2 * x[i]
	}
	full := timeseries.New(y)
	xfull, err := regressors.NewMatrix([]string{"x"}, [][]float64{x})
	require.NoError(t, err)

	model, err := Fit(context.Background(), full.Slice(0, n0), NewOrder(1, 0, 1, 0, 0, 0, 0), xfull.Slice(0, n0), quietOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "intercept"}, model.Design().Names())

	extended, err := model.Refilter(full, xfull)
	require.NoError(t, err)
	assert.True(t, extended.Refiltered())
	assert.Equal(t, n, extended.Len())
	assert.Equal(t, model.AR(), extended.AR())
	assert.Equal(t, model.Beta(), extended.Beta())
	assert.InDeltaSlice(t, model.Innovations(), extended.Innovations()[:n0], 1e-12)

	_, err = model.Refilter(full, nil)
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))
}

func TestMethodText(t *testing.T) {
	for _, m := range []Method{CSSML, ML, CSS} {
		text, err := m.MarshalText()
		require.NoError(t, err)
		var parsed Method
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMethod("ols")
	assert.Error(t, err)
	assert.True(t, strings.HasPrefix(CSSML.String(), "CSS"))
}

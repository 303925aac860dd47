package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/timeseries"
)

func TestNDiffs(t *testing.T) {
	d, err := NDiffs(timeseries.New(ar1(200, 0.3, 21)), 2, UnitRootKPSS)
	require.NoError(t, err)
	assert.LessOrEqual(t, d, 1)

	trend := make([]float64, 200)
	for i := range trend {
		trend[i] = 100 + float64(i)*2 + math.Sin(float64(i))
	}
	d, err = NDiffs(timeseries.New(trend), 2, UnitRootKPSS)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, 1)

	d, err = NDiffs(timeseries.New(make([]float64, 50)), 2, UnitRootADF)
	require.NoError(t, err)
	assert.Equal(t, 0, d, "constant series needs no differencing")
}

func TestNDiffsRejectsNaN(t *testing.T) {
	values := ar1(100, 0.3, 22)
	values[10] = math.NaN()
	_, err := NDiffs(&timeseries.Series{Values: values}, 2, UnitRootKPSS)
	assert.True(t, errors.Is(err, errs.ErrNonFinite))
}

func TestNSDiffs(t *testing.T) {
	n := 120
	seasonal := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = 100 + float64(i)*0.5 + 15*math.Sin(2*math.Pi*float64(i)/12) + 0.1*math.Cos(float64(i)*1.3)
	}

	sd, err := NSDiffs(timeseries.New(seasonal), 12, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sd)

	sd, err = NSDiffs(timeseries.New(ar1(n, 0.2, 23)), 12, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, sd)

	sd, err = NSDiffs(timeseries.New(seasonal[:20]), 12, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, sd)
}

func TestSeasonalStrength(t *testing.T) {
	strong := make([]float64, 120)
	for i := range strong {
		strong[i] = 100 + 20*math.Sin(2*math.Pi*float64(i)/12) + 0.5*math.Sin(float64(i)*0.7)
	}

	strength, err := SeasonalStrength(timeseries.New(strong), 12)
	require.NoError(t, err)
	assert.Greater(t, strength, 0.9)

	weak, err := SeasonalStrength(timeseries.New(ar1(120, 0.2, 24)), 12)
	require.NoError(t, err)
	assert.Less(t, weak, 0.64)
}

func TestAICc(t *testing.T) {
	tests := []struct {
		aic     float64
		nObs    int
		nParams int
	}{
		{100.0, 50, 3},
		{200.0, 100, 5},
		{150.0, 30, 4},
	}

	for _, tt := range tests {
		k := float64(tt.nParams)
		n := float64(tt.nObs)
		expected := tt.aic + 2*k*(k+1)/(n-k-1)
		assert.InDelta(t, expected, AICc(tt.aic, tt.nObs, tt.nParams), 1e-10)
	}

	assert.True(t, math.IsInf(AICc(100.0, 5, 5), 1))
}

func TestCalculateIC(t *testing.T) {
	ic := CalculateIC(-50.0, 100, 3)

	assert.InDelta(t, 106.0, ic.AIC, 1e-10)
	assert.InDelta(t, 100+3*math.Log(100), ic.BIC, 1e-10)
	assert.Greater(t, ic.AICc, ic.AIC)
	assert.Equal(t, -50.0, ic.LogLik)
}

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/sarimax/errs"
	"github.com/sartorproj/sarimax/internal/config"
	"github.com/sartorproj/sarimax/internal/logging"
	"github.com/sartorproj/sarimax/sarima"
	"github.com/sartorproj/sarimax/timeseries"
)

// seasonalSeries is a trending monthly seasonal series with unit noise and a
// level shift of 15 from position 70.
func seasonalSeries(t *testing.T) *timeseries.Series {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	values := make([]float64, 120)
	for i := range values {
		values[i] = 100 + 0.2*float64(i) + 10*math.Sin(2*math.Pi*float64(i)/12) + rng.NormFloat64()
		if i >= 70 {
			values[i] += 15
		}
	}
	s, err := timeseries.NewMonthly(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), values)
	require.NoError(t, err)
	s.Name = "production"
	return s
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Forecast.Holdout = 12
	cfg.Forecast.Horizon = 6
	return cfg
}

func newTestPipeline(cfg *config.Config) *Pipeline {
	p := NewPipeline(cfg, logging.Quiet())
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func variantNames(r *Report) []string {
	var names []string
	for _, v := range r.Variants {
		names = append(names, v.Name)
	}
	return names
}

func TestRunProducesAllVariants(t *testing.T) {
	series := seasonalSeries(t)
	rep, err := newTestPipeline(testConfig()).Run(context.Background(), series)
	require.NoError(t, err)

	_, err = uuid.Parse(rep.RunID)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), rep.CreatedAt)
	assert.Equal(t, 120, rep.Input.N)
	assert.Equal(t, series.Timestamps[119], rep.Input.End)
	assert.Nil(t, rep.Selection)
	assert.NotEmpty(t, rep.UnitRoot)
	require.NotNil(t, rep.Identification)
	assert.Len(t, rep.Identification.ACF, 25)

	assert.Equal(t, []string{VariantBase, VariantCalendar, VariantCalendarOutliers}, variantNames(rep))
	assert.Equal(t, 6, rep.Errors.Len())

	last := series.Timestamps[119]
	for _, v := range rep.Variants {
		require.NotNil(t, v.Model, v.Name)
		require.NotNil(t, v.Holdout, v.Name)
		assert.True(t, v.Holdout.Refiltered(), v.Name)
		assert.Equal(t, 120, v.Holdout.Len(), v.Name)

		require.Len(t, v.ExPost.Points, 12, v.Name)
		for i, p := range v.ExPost.Points {
			assert.True(t, p.HasActual)
			assert.Equal(t, series.Values[108+i], p.Actual)
		}
		require.Len(t, v.HoldoutForecast.Points, 12, v.Name)
		assert.Equal(t, 107, v.HoldoutForecast.Points[0].Origin)

		require.Len(t, v.Forecast.Points, 6, v.Name)
		for k, p := range v.Forecast.Points {
			assert.Equal(t, last.AddDate(0, k+1, 0), p.Time)
			assert.False(t, p.HasActual)
			assert.Less(t, p.Lower, p.Mean)
			assert.Greater(t, p.Upper, p.Mean)
		}

		for _, mode := range []string{ModeExPost, ModeExAnte} {
			m, ok := rep.Errors.Get(v.Name, mode)
			require.True(t, ok, v.Name+" "+mode)
			assert.Equal(t, 12, m.N)
			assert.True(t, m.Available)
			assert.False(t, math.IsNaN(m.MAERatio))
		}
	}

	cal, ok := rep.Variant(VariantCalendar)
	require.True(t, ok)
	assert.Contains(t, cal.Regressors, "working_days")
	assert.Nil(t, cal.Search)

	full, ok := rep.Variant(VariantCalendarOutliers)
	require.True(t, ok)
	require.NotNil(t, full.Search)
	found := false
	for _, o := range full.Outliers {
		if o.Index >= 69 && o.Index <= 71 {
			found = true
		}
	}
	assert.True(t, found, "expected an outlier near position 70, got %v", full.Outliers)

	for k, p := range rep.Naive.Forecast.Points {
		assert.Equal(t, series.Values[108+k], p.Mean)
	}
}

func TestRunWithoutHoldout(t *testing.T) {
	cfg := testConfig()
	cfg.Forecast.Holdout = 0
	cfg.Outliers.Enabled = false

	rep, err := newTestPipeline(cfg).Run(context.Background(), seasonalSeries(t))
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Errors.Len())
	assert.Nil(t, rep.Naive.ExPost)
	for _, v := range rep.Variants {
		assert.Nil(t, v.Holdout)
		assert.Nil(t, v.ExPost)
		assert.Len(t, v.Forecast.Points, 6)
	}
}

func TestRunVariantSelection(t *testing.T) {
	cfg := testConfig()
	cfg.Calendar.Enabled = false
	rep, err := newTestPipeline(cfg).Run(context.Background(), seasonalSeries(t))
	require.NoError(t, err)
	assert.Equal(t, []string{VariantBase, VariantOutliers}, variantNames(rep))

	cfg = testConfig()
	cfg.Outliers.Enabled = false
	rep, err = newTestPipeline(cfg).Run(context.Background(), seasonalSeries(t))
	require.NoError(t, err)
	assert.Equal(t, []string{VariantBase, VariantCalendar}, variantNames(rep))
}

func TestRunLogTransform(t *testing.T) {
	cfg := testConfig()
	cfg.Input.Log = true
	cfg.Outliers.Enabled = false
	series := seasonalSeries(t)

	rep, err := newTestPipeline(cfg).Run(context.Background(), series)
	require.NoError(t, err)

	base, ok := rep.Variant(VariantBase)
	require.True(t, ok)
	for i, p := range base.ExPost.Points {
		assert.InDelta(t, series.Values[108+i], p.Actual, 1e-9)
		assert.InEpsilon(t, series.Values[108+i], p.Mean, 0.2)
	}
	for _, p := range base.Forecast.Points {
		assert.Greater(t, p.Mean, 0.0)
		assert.Less(t, p.Lower, p.Mean)
	}
}

func TestRunAutoOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Model.Auto = true
	cfg.Calendar.Enabled = false
	cfg.Outliers.Enabled = false

	rep, err := newTestPipeline(cfg).Run(context.Background(), seasonalSeries(t))
	require.NoError(t, err)
	require.NotNil(t, rep.Selection)
	assert.Positive(t, rep.Selection.Evaluated)
	assert.Equal(t, 1, rep.Selection.Order.SD)
	for _, v := range rep.Variants {
		assert.Equal(t, rep.Selection.Order, v.Order)
	}
}

func TestRunErrors(t *testing.T) {
	series := seasonalSeries(t)

	cfg := testConfig()
	cfg.Forecast.Holdout = 110
	_, err := newTestPipeline(cfg).Run(context.Background(), series)
	assert.True(t, errors.Is(err, errs.ErrInsufficientData))

	cfg = testConfig()
	cfg.Forecast.Horizon = 0
	_, err = newTestPipeline(cfg).Run(context.Background(), series)
	assert.ErrorContains(t, err, "invalid config")

	negative := series.Copy()
	negative.Values[5] = -1
	cfg = testConfig()
	cfg.Input.Log = true
	_, err = newTestPipeline(cfg).Run(context.Background(), negative)
	assert.True(t, errors.Is(err, errs.ErrNonFinite))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newTestPipeline(testConfig()).Run(ctx, series)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrite(t *testing.T) {
	cfg := testConfig()
	cfg.Outliers.Enabled = false
	rep, err := newTestPipeline(cfg).Run(context.Background(), seasonalSeries(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rep, config.FormatJSON))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, rep.RunID, doc["run_id"])
	assert.Len(t, doc["variants"], 2)
	assert.Len(t, doc["errors"], 4)

	buf.Reset()
	require.NoError(t, Write(&buf, rep, config.FormatYAML))
	var ydoc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &ydoc))
	assert.Equal(t, rep.RunID, ydoc.RunID)
	require.Len(t, ydoc.Variants, 2)
	assert.Len(t, ydoc.Variants[0].Forecast, 6)

	buf.Reset()
	require.NoError(t, Write(&buf, rep, config.FormatCSV))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "model,mode,horizon,n,mae,rmse,mape,mae_ratio,rmse_ratio", lines[0])
	assert.Len(t, lines, 5)

	assert.Error(t, Write(&buf, rep, "xml"))
}

func TestWriteDir(t *testing.T) {
	cfg := testConfig()
	cfg.Outliers.Enabled = false
	rep, err := newTestPipeline(cfg).Run(context.Background(), seasonalSeries(t))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteDir(dir, rep, config.FormatCSV)
	require.NoError(t, err)
	require.Len(t, paths, 5)

	data, err := os.ReadFile(filepath.Join(dir, "forecasts.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// Two variants and the naive benchmark, each with 12 ex-post and 6 ex-ante rows.
	assert.Len(t, lines, 1+3*(12+6))

	data, err = os.ReadFile(filepath.Join(dir, "fitted.csv"))
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1+2*120)
	assert.Equal(t, "model,time,actual,fitted,residual", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "base,2010-01,"))

	paths, err = WriteDir(dir, rep, config.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "report.json")}, paths)
}

func TestUnitRootTable(t *testing.T) {
	series := seasonalSeries(t)
	rows := UnitRootTable(series, 12)
	require.Len(t, rows, 12)
	assert.Equal(t, "level", rows[0].Series)
	assert.Equal(t, "diff+seasonal_diff", rows[11].Series)
	for _, r := range rows {
		assert.Empty(t, r.Err)
		assert.False(t, math.IsNaN(r.Statistic))
	}

	assert.Len(t, UnitRootTable(series, 1), 6)

	short := timeseries.New([]float64{1, 2, 3, 4, 5})
	for _, r := range UnitRootTable(short, 1) {
		assert.NotEmpty(t, r.Err)
		assert.True(t, math.IsNaN(r.Statistic))
	}

	var buf bytes.Buffer
	require.NoError(t, WriteUnitRootTable(&buf, rows))
	assert.Contains(t, buf.String(), "stationary")
	assert.Equal(t, 13, strings.Count(buf.String(), "\n"))
}

func TestIdentify(t *testing.T) {
	order := sarima.NewOrder(0, 1, 1, 0, 1, 1, 12)
	id, err := Identify(seasonalSeries(t), order)
	require.NoError(t, err)
	assert.Equal(t, 1, id.D)
	assert.Equal(t, 1, id.SD)
	require.Len(t, id.ACF, 25)
	require.Len(t, id.PACF, 25)
	assert.InDelta(t, 1, id.ACF[0], 1e-12)
	assert.InDelta(t, 1.959964/math.Sqrt(107), id.Bound, 1e-4)
	for _, lag := range id.SignificantACF {
		assert.Greater(t, math.Abs(id.ACF[lag]), id.Bound)
	}

	_, err = Identify(timeseries.New([]float64{1, 2, 3, 5, 4, 6, 8, 7, 9, 10, 12, 11, 13, 15}), order)
	assert.True(t, errors.Is(err, errs.ErrInsufficientData))
}

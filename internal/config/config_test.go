package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/sarimax/forecast"
	"github.com/sartorproj/sarimax/regressors"
	"github.com/sartorproj/sarimax/sarima"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	order, err := cfg.Model.Order()
	require.NoError(t, err)
	assert.Equal(t, sarima.NewOrder(0, 1, 1, 0, 1, 1, 12), order)

	opts, err := cfg.Model.FitOptions()
	require.NoError(t, err)
	assert.Equal(t, sarima.CSSML, opts.Method)
	assert.True(t, opts.IncludeConstant)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative order", func(c *Config) { c.Model.P = -1 }},
		{"seasonal without period", func(c *Config) { c.Model.Period = 1 }},
		{"unknown method", func(c *Config) { c.Model.Method = "ols" }},
		{"unknown outlier type", func(c *Config) { c.Outliers.Types = []string{"AO", "XX"} }},
		{"delta out of range", func(c *Config) { c.Outliers.Delta = 1.2 }},
		{"unknown distribution", func(c *Config) { c.Forecast.Distribution = "cauchy" }},
		{"zero horizon", func(c *Config) { c.Forecast.Horizon = 0 }},
		{"negative holdout", func(c *Config) { c.Forecast.Holdout = -1 }},
		{"alpha out of range", func(c *Config) { c.Forecast.Alpha = 1 }},
		{"unknown output format", func(c *Config) { c.Output.Format = "xml" }},
		{"invalid logging level", func(c *Config) { c.Logging.Level = "loud" }},
		{"invalid logging format", func(c *Config) { c.Logging.Format = "pretty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNonSeasonalOrderIgnoresPeriod(t *testing.T) {
	m := ModelConfig{P: 1, Period: 1, Method: "ML"}
	order, err := m.Order()
	require.NoError(t, err)
	assert.False(t, order.Seasonal())
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Outliers.Types = []string{"ls", "TC"}
	cfg.Outliers.Parallelism = 3
	sc, err := cfg.Outliers.SearchConfig()
	require.NoError(t, err)
	assert.Equal(t, []regressors.OutlierType{regressors.LevelShift, regressors.TransientChange}, sc.Types)
	assert.Equal(t, 3, sc.Parallelism)
	assert.Equal(t, 5.0, sc.CriticalValue)

	cfg.Forecast.Distribution = "student_t"
	ec, err := cfg.Forecast.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, forecast.StudentT, ec.Distribution)

	ac := cfg.Model.AutoConfig()
	assert.True(t, ac.Seasonal)
	assert.Equal(t, 12, ac.SeasonalM)
	assert.Equal(t, 1, ac.D)

	cfg.Input.DateColumn = "month"
	opts := cfg.Input.CSVOptions()
	assert.Equal(t, "month", opts.DateColumn)
	assert.Equal(t, "y", opts.ValueColumn)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sarimax.yaml")
	content := `
input:
  path: data/ipi.csv
  value_column: ipi
  log: true
model:
  p: 1
  d: 0
  q: 0
  sp: 1
  sd: 1
  sq: 0
  method: ML
outliers:
  types: [AO, LS]
  critical_value: 4
forecast:
  holdout: 24
output:
  format: yaml
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/ipi.csv", cfg.Input.Path)
	assert.Equal(t, "ipi", cfg.Input.ValueColumn)
	assert.True(t, cfg.Input.Log)
	assert.Equal(t, "2006-01-02", cfg.Input.DateFormat)

	order, err := cfg.Model.Order()
	require.NoError(t, err)
	assert.Equal(t, sarima.NewOrder(1, 0, 0, 1, 1, 0, 12), order)
	assert.Equal(t, "ML", cfg.Model.Method)

	assert.Equal(t, []string{"AO", "LS"}, cfg.Outliers.Types)
	assert.Equal(t, 4.0, cfg.Outliers.CriticalValue)
	assert.Equal(t, 4, cfg.Outliers.MaxOuterIter)
	assert.Equal(t, 24, cfg.Forecast.Holdout)
	assert.Equal(t, 12, cfg.Forecast.Horizon)
	assert.Equal(t, FormatYAML, cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SARIMAX_MODEL_P", "2")
	t.Setenv("SARIMAX_FORECAST_HORIZON", "6")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Model.P)
	assert.Equal(t, 6, cfg.Forecast.Horizon)
	assert.Equal(t, "IT", cfg.Calendar.Country)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: xml\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "invalid config")
}

// Package config loads the analysis configuration from YAML files and
// SARIMAX_* environment variables with viper.
package config

import (
	"fmt"
	"strings"

	"github.com/sartorproj/sarimax/autoarima"
	"github.com/sartorproj/sarimax/forecast"
	"github.com/sartorproj/sarimax/outliers"
	"github.com/sartorproj/sarimax/regressors"
	"github.com/sartorproj/sarimax/sarima"
	"github.com/sartorproj/sarimax/timeseries"
)

// Config is the configuration of an analysis run.
type Config struct {
	Input    InputConfig    `mapstructure:"input" yaml:"input"`
	Model    ModelConfig    `mapstructure:"model" yaml:"model"`
	Calendar CalendarConfig `mapstructure:"calendar" yaml:"calendar"`
	Outliers OutliersConfig `mapstructure:"outliers" yaml:"outliers"`
	Forecast ForecastConfig `mapstructure:"forecast" yaml:"forecast"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// InputConfig locates the series.
type InputConfig struct {
	Path        string `mapstructure:"path" yaml:"path"`
	DateColumn  string `mapstructure:"date_column" yaml:"date_column"`
	ValueColumn string `mapstructure:"value_column" yaml:"value_column"`
	DateFormat  string `mapstructure:"date_format" yaml:"date_format"`
	Name        string `mapstructure:"name" yaml:"name"`
	// Log fits the models on the natural logarithm of the series.
	Log bool `mapstructure:"log" yaml:"log"`
}

// ModelConfig describes the seasonal ARIMA order, or how to search for it.
type ModelConfig struct {
	P               int     `mapstructure:"p" yaml:"p"`
	D               int     `mapstructure:"d" yaml:"d"`
	Q               int     `mapstructure:"q" yaml:"q"`
	SP              int     `mapstructure:"sp" yaml:"sp"`
	SD              int     `mapstructure:"sd" yaml:"sd"`
	SQ              int     `mapstructure:"sq" yaml:"sq"`
	Period          int     `mapstructure:"period" yaml:"period"`
	Auto            bool    `mapstructure:"auto" yaml:"auto"`
	Criterion       string  `mapstructure:"criterion" yaml:"criterion"`
	IncludeConstant bool    `mapstructure:"include_constant" yaml:"include_constant"`
	Method          string  `mapstructure:"method" yaml:"method"`
	MaxIterations   int     `mapstructure:"max_iterations" yaml:"max_iterations"`
	RootTolerance   float64 `mapstructure:"root_tolerance" yaml:"root_tolerance"`
}

// CalendarConfig selects the calendar regressors.
type CalendarConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Country string `mapstructure:"country" yaml:"country"`
}

// OutliersConfig controls the outlier search.
type OutliersConfig struct {
	Enabled       bool     `mapstructure:"enabled" yaml:"enabled"`
	Types         []string `mapstructure:"types" yaml:"types"`
	Delta         float64  `mapstructure:"delta" yaml:"delta"`
	CriticalValue float64  `mapstructure:"critical_value" yaml:"critical_value"`
	MaxOuterIter  int      `mapstructure:"max_outer_iter" yaml:"max_outer_iter"`
	MaxInnerIter  int      `mapstructure:"max_inner_iter" yaml:"max_inner_iter"`
	MaxTotalIter  int      `mapstructure:"max_total_iter" yaml:"max_total_iter"`
	Tolerance     float64  `mapstructure:"tolerance" yaml:"tolerance"`
	Parallelism   int      `mapstructure:"parallelism" yaml:"parallelism"`
	Discard       bool     `mapstructure:"discard" yaml:"discard"`
}

// ForecastConfig sets the evaluation holdout and the forecast horizon.
type ForecastConfig struct {
	// Holdout is the number of final observations forecast ex post.
	Holdout      int     `mapstructure:"holdout" yaml:"holdout"`
	Horizon      int     `mapstructure:"horizon" yaml:"horizon"`
	Alpha        float64 `mapstructure:"alpha" yaml:"alpha"`
	Distribution string  `mapstructure:"distribution" yaml:"distribution"`
}

// OutputConfig selects where and how results are written.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	// Path is a directory; empty or "-" writes to stdout.
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
}

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DefaultConfig returns the configuration used when no file is given: an
// airline-type (0,1,1)(0,1,1)[12] model with Italian calendar effects, the
// outlier search and a 12-month holdout and horizon.
func DefaultConfig() *Config {
	oc := outliers.DefaultConfig()
	return &Config{
		Input: InputConfig{
			ValueColumn: "y",
			DateFormat:  "2006-01-02",
		},
		Model: ModelConfig{
			Q:               1,
			D:               1,
			SD:              1,
			SQ:              1,
			Period:          12,
			Criterion:       autoarima.CriterionAICc,
			IncludeConstant: true,
			Method:          sarima.CSSML.String(),
			MaxIterations:   sarima.DefaultMaxIterations,
			RootTolerance:   sarima.DefaultRootTolerance,
		},
		Calendar: CalendarConfig{
			Enabled: true,
			Country: "IT",
		},
		Outliers: OutliersConfig{
			Enabled:       true,
			Types:         []string{"AO", "LS", "TC"},
			Delta:         oc.Delta,
			CriticalValue: oc.CriticalValue,
			MaxOuterIter:  oc.MaxOuterIter,
			MaxInnerIter:  oc.MaxInnerIter,
			MaxTotalIter:  oc.MaxTotalIter,
			Tolerance:     oc.Tolerance,
			Discard:       oc.Discard,
		},
		Forecast: ForecastConfig{
			Holdout:      12,
			Horizon:      12,
			Alpha:        forecast.DefaultAlpha,
			Distribution: forecast.Normal.String(),
		},
		Output: OutputConfig{
			Format: FormatCSV,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			OutputPath: "stderr",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := c.Model.Order(); err != nil {
		return err
	}
	if _, err := sarima.ParseMethod(c.Model.Method); err != nil {
		return fmt.Errorf("model.method: %w", err)
	}
	if _, err := c.Outliers.SearchConfig(); err != nil {
		return err
	}
	if _, err := c.Forecast.EngineConfig(); err != nil {
		return err
	}
	if c.Forecast.Holdout < 0 {
		return fmt.Errorf("forecast.holdout must be non-negative, got %d", c.Forecast.Holdout)
	}
	if c.Forecast.Horizon < 1 {
		return fmt.Errorf("forecast.horizon must be positive, got %d", c.Forecast.Horizon)
	}
	if a := c.Forecast.Alpha; a <= 0 || a >= 1 {
		return fmt.Errorf("forecast.alpha must be in (0, 1), got %g", a)
	}
	switch strings.ToLower(c.Output.Format) {
	case FormatCSV, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("output.format must be csv, json or yaml, got %q", c.Output.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// Order returns the configured seasonal order.
func (m ModelConfig) Order() (sarima.Order, error) {
	period := m.Period
	if m.SP == 0 && m.SD == 0 && m.SQ == 0 && period < 2 {
		period = 0
	}
	o := sarima.NewOrder(m.P, m.D, m.Q, m.SP, m.SD, m.SQ, period)
	if err := o.Validate(); err != nil {
		return sarima.Order{}, err
	}
	return o, nil
}

// FitOptions returns the estimation options. The logger is left for the caller.
func (m ModelConfig) FitOptions() (sarima.Options, error) {
	method, err := sarima.ParseMethod(m.Method)
	if err != nil {
		return sarima.Options{}, err
	}
	return sarima.Options{
		IncludeConstant: m.IncludeConstant,
		Method:          method,
		MaxIterations:   m.MaxIterations,
		RootTolerance:   m.RootTolerance,
	}, nil
}

// AutoConfig returns the order search configuration. The configured
// differencing orders are kept fixed.
func (m ModelConfig) AutoConfig() *autoarima.Config {
	c := autoarima.DefaultConfig()
	c.MaxP, c.MaxQ = 3, 3
	c.MaxSP, c.MaxSQ = 1, 1
	c.D, c.SD = m.D, m.SD
	c.Seasonal = m.Period >= 2
	c.SeasonalM = m.Period
	c.Criterion = m.Criterion
	return c
}

// SearchConfig converts the section to an outlier search configuration.
func (o OutliersConfig) SearchConfig() (outliers.Config, error) {
	types := make([]regressors.OutlierType, 0, len(o.Types))
	for _, s := range o.Types {
		t, err := regressors.ParseOutlierType(s)
		if err != nil {
			return outliers.Config{}, fmt.Errorf("outliers.types: %w", err)
		}
		types = append(types, t)
	}
	if o.Delta < 0 || o.Delta >= 1 {
		return outliers.Config{}, fmt.Errorf("outliers.delta must be in [0, 1), got %g", o.Delta)
	}
	return outliers.Config{
		Types:         types,
		Delta:         o.Delta,
		CriticalValue: o.CriticalValue,
		MaxOuterIter:  o.MaxOuterIter,
		MaxInnerIter:  o.MaxInnerIter,
		MaxTotalIter:  o.MaxTotalIter,
		Tolerance:     o.Tolerance,
		Parallelism:   o.Parallelism,
		Discard:       o.Discard,
	}, nil
}

// EngineConfig converts the section to a forecast engine configuration.
func (f ForecastConfig) EngineConfig() (forecast.Config, error) {
	dist, err := forecast.ParseDistribution(f.Distribution)
	if err != nil {
		return forecast.Config{}, fmt.Errorf("forecast.distribution: %w", err)
	}
	return forecast.Config{Alpha: f.Alpha, Distribution: dist}, nil
}

// CSVOptions returns the loader options for the input section.
func (i InputConfig) CSVOptions() *timeseries.CSVOptions {
	opts := timeseries.DefaultCSVOptions()
	if i.DateColumn != "" {
		opts.DateColumn = i.DateColumn
	}
	if i.ValueColumn != "" {
		opts.ValueColumn = i.ValueColumn
	}
	if i.DateFormat != "" {
		opts.DateFormat = i.DateFormat
	}
	opts.Name = i.Name
	return opts
}

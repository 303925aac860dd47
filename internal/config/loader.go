package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SARIMAX_MODEL_P=2.
const EnvPrefix = "SARIMAX"

// Load reads configuration from configPath, or from config.yaml in the
// working directory or ./configs when configPath is empty. A missing default
// file is not an error; defaults and environment overrides still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return parseConfig(v)
}

// setDefaults registers every key so that environment overrides apply even
// without a file.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("input.path", d.Input.Path)
	v.SetDefault("input.date_column", d.Input.DateColumn)
	v.SetDefault("input.value_column", d.Input.ValueColumn)
	v.SetDefault("input.date_format", d.Input.DateFormat)
	v.SetDefault("input.name", d.Input.Name)
	v.SetDefault("input.log", d.Input.Log)

	v.SetDefault("model.p", d.Model.P)
	v.SetDefault("model.d", d.Model.D)
	v.SetDefault("model.q", d.Model.Q)
	v.SetDefault("model.sp", d.Model.SP)
	v.SetDefault("model.sd", d.Model.SD)
	v.SetDefault("model.sq", d.Model.SQ)
	v.SetDefault("model.period", d.Model.Period)
	v.SetDefault("model.auto", d.Model.Auto)
	v.SetDefault("model.criterion", d.Model.Criterion)
	v.SetDefault("model.include_constant", d.Model.IncludeConstant)
	v.SetDefault("model.method", d.Model.Method)
	v.SetDefault("model.max_iterations", d.Model.MaxIterations)
	v.SetDefault("model.root_tolerance", d.Model.RootTolerance)

	v.SetDefault("calendar.enabled", d.Calendar.Enabled)
	v.SetDefault("calendar.country", d.Calendar.Country)

	v.SetDefault("outliers.enabled", d.Outliers.Enabled)
	v.SetDefault("outliers.types", d.Outliers.Types)
	v.SetDefault("outliers.delta", d.Outliers.Delta)
	v.SetDefault("outliers.critical_value", d.Outliers.CriticalValue)
	v.SetDefault("outliers.max_outer_iter", d.Outliers.MaxOuterIter)
	v.SetDefault("outliers.max_inner_iter", d.Outliers.MaxInnerIter)
	v.SetDefault("outliers.max_total_iter", d.Outliers.MaxTotalIter)
	v.SetDefault("outliers.tolerance", d.Outliers.Tolerance)
	v.SetDefault("outliers.parallelism", d.Outliers.Parallelism)
	v.SetDefault("outliers.discard", d.Outliers.Discard)

	v.SetDefault("forecast.holdout", d.Forecast.Holdout)
	v.SetDefault("forecast.horizon", d.Forecast.Horizon)
	v.SetDefault("forecast.alpha", d.Forecast.Alpha)
	v.SetDefault("forecast.distribution", d.Forecast.Distribution)

	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.path", d.Output.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

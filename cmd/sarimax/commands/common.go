// Package commands implements the sarimax subcommands.
package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sartorproj/sarimax/internal/config"
	"github.com/sartorproj/sarimax/internal/logging"
	"github.com/sartorproj/sarimax/timeseries"
)

// Globals holds the persistent flags of the root command.
type Globals struct {
	ConfigFile string
	Verbose    bool
}

// load reads the configuration and builds the logger. The returned function
// releases the log output.
func (g *Globals) load() (*config.Config, *logrus.Logger, func() error, error) {
	cfg, err := config.Load(g.ConfigFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if g.Verbose {
		cfg.Logging.Level = "debug"
	}
	logger, closeFn, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closeFn, nil
}

func loadSeries(in config.InputConfig) (*timeseries.Series, error) {
	if in.Path == "" {
		return nil, fmt.Errorf("no input file: set input.path or pass --input")
	}
	series, err := timeseries.LoadCSV(in.Path, in.CSVOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", in.Path, err)
	}
	return series, nil
}

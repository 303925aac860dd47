package commands

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sartorproj/sarimax/internal/config"
	"github.com/sartorproj/sarimax/internal/report"
)

type RunOptions struct {
	Input   string
	Output  string
	Format  string
	Holdout int
	Horizon int
	Auto    bool
	Log     bool
}

func NewRunCmd(globals *Globals) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full analysis and write the report",
		Long: `Estimate the base, calendar and calendar+outliers variants, evaluate them
on the holdout against the seasonal naive benchmark and forecast the horizon.`,
		Example: `  # Airline model with Italian calendar effects, report on stdout
  sarimax run --input ipi.csv

  # Automatic order, JSON report in ./out
  sarimax run --input ipi.csv --auto --format json --output out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeFn, err := globals.load()
			if err != nil {
				return err
			}
			defer closeFn()
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runReport(cmd, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "input CSV file (overrides input.path)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (- for stdout)")
	cmd.Flags().StringVar(&opts.Format, "format", "", "output format (csv, json, yaml)")
	cmd.Flags().IntVar(&opts.Holdout, "holdout", 0, "number of final observations forecast ex post")
	cmd.Flags().IntVar(&opts.Horizon, "horizon", 0, "ex-ante forecast horizon")
	cmd.Flags().BoolVar(&opts.Auto, "auto", false, "select the ARMA orders automatically")
	cmd.Flags().BoolVar(&opts.Log, "log", false, "model the logarithm of the series")

	return cmd
}

// apply copies the flags the user set over the configuration.
func (o *RunOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input.Path = o.Input
	}
	if flags.Changed("output") {
		cfg.Output.Path = o.Output
	}
	if flags.Changed("format") {
		cfg.Output.Format = o.Format
	}
	if flags.Changed("holdout") {
		cfg.Forecast.Holdout = o.Holdout
	}
	if flags.Changed("horizon") {
		cfg.Forecast.Horizon = o.Horizon
	}
	if flags.Changed("auto") {
		cfg.Model.Auto = o.Auto
	}
	if flags.Changed("log") {
		cfg.Input.Log = o.Log
	}
}

func runReport(cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger) error {
	series, err := loadSeries(cfg.Input)
	if err != nil {
		return err
	}

	rep, err := report.NewPipeline(cfg, logger).Run(cmd.Context(), series)
	if err != nil {
		return err
	}

	if path := cfg.Output.Path; path != "" && path != "-" {
		files, err := report.WriteDir(path, rep, cfg.Output.Format)
		if err != nil {
			return err
		}
		for _, f := range files {
			logger.WithField("file", f).Info("report written")
		}
		printSummary(cmd.OutOrStdout(), rep)
		return nil
	}
	return report.Write(cmd.OutOrStdout(), rep, cfg.Output.Format)
}

func printSummary(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "run %s: %s, %d observations\n", rep.RunID, rep.Input.Name, rep.Input.N)
	for _, v := range rep.Variants {
		fmt.Fprintf(w, "  %-18s %s  AICc=%.2f  outliers=%d\n", v.Name, v.Order, v.Model.AICc(), len(v.Outliers))
	}
	if best, ok := rep.Errors.Best(report.ModeExPost); ok {
		fmt.Fprintf(w, "best ex-post variant: %s\n", best)
	}
	for _, v := range rep.Variants {
		fmt.Fprintf(w, "\n[%s]\n%s", v.Name, v.Model.Summary())
	}
}

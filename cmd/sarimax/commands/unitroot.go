package commands

import (
	"github.com/spf13/cobra"

	"github.com/sartorproj/sarimax/internal/report"
)

type UnitRootOptions struct {
	Input  string
	Period int
	Log    bool
}

func NewUnitRootCmd(globals *Globals) *cobra.Command {
	opts := &UnitRootOptions{}

	cmd := &cobra.Command{
		Use:     "unitroot",
		Short:   "Print ADF, KPSS and Phillips-Perron tests for the series and its differences",
		Example: `  sarimax unitroot --input ipi.csv --period 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, closeFn, err := globals.load()
			if err != nil {
				return err
			}
			defer closeFn()

			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.Input.Path = opts.Input
			}
			if flags.Changed("period") {
				cfg.Model.Period = opts.Period
			}
			if flags.Changed("log") {
				cfg.Input.Log = opts.Log
			}

			series, err := loadSeries(cfg.Input)
			if err != nil {
				return err
			}
			if cfg.Input.Log {
				if series, err = series.Log(); err != nil {
					return err
				}
			}
			return report.WriteUnitRootTable(cmd.OutOrStdout(), report.UnitRootTable(series, cfg.Model.Period))
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "input CSV file (overrides input.path)")
	cmd.Flags().IntVar(&opts.Period, "period", 12, "seasonal period")
	cmd.Flags().BoolVar(&opts.Log, "log", false, "test the logarithm of the series")

	return cmd
}

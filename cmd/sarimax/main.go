// Command sarimax fits seasonal ARIMA models with calendar effects and
// automatic outlier detection to a monthly series, evaluates them against the
// seasonal naive benchmark and forecasts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sartorproj/sarimax/cmd/sarimax/commands"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	globals := &commands.Globals{}

	rootCmd := &cobra.Command{
		Use:   "sarimax",
		Short: "Seasonal ARIMA modelling with calendar effects and outliers",
		Long: `Fit regression models with seasonal ARIMA errors to a monthly series,
detect additive outliers, level shifts and transient changes, and compare
ex-post and ex-ante forecasts with the seasonal naive benchmark.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globals.ConfigFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewRunCmd(globals))
	rootCmd.AddCommand(commands.NewUnitRootCmd(globals))
	rootCmd.AddCommand(commands.NewVersionCmd(version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

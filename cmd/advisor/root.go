package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const version = "v1.0.0"

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	var configPath string

	root := &cobra.Command{
		Use:     "advisor",
		Short:   "Decision-support engine for systematic equity trading",
		Long:    "Backtesting, risk analytics, regime detection and advisory decisions over daily OHLCV data.",
		Version: version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (defaults apply when empty)")
	// Accept snake_case flag spellings from older scripts.
	root.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(backtestCmd(&configPath))
	root.AddCommand(adviseCmd(&configPath))
	root.AddCommand(riskCmd(&configPath))
	root.AddCommand(regimeCmd(&configPath))

	return root.ExecuteContext(ctx)
}

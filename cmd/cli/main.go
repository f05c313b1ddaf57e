package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inferloop/healthtrack/cmd/cli/commands"
	"github.com/inferloop/healthtrack/pkg/constants"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "healthtrack-cli",
		Short: "Personal health metrics insights CLI",
		Long: `A command-line interface for forecasting weight, detecting outlying
readings and producing recommendations from exported health datasets.`,
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&global.ConfigFile, "config", "", "config file (default is $HOME/.healthtrack/cli.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewPredictCmd(global))
	rootCmd.AddCommand(commands.NewAnomaliesCmd(global))
	rootCmd.AddCommand(commands.NewRecommendCmd(global))
	rootCmd.AddCommand(commands.NewDashboardCmd(global))
	rootCmd.AddCommand(commands.NewSummaryCmd(global))
	rootCmd.AddCommand(commands.NewImportCmd(global))
	rootCmd.AddCommand(commands.NewExportCmd(global))

	return rootCmd
}

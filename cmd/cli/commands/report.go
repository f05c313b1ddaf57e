package commands

import (
	"github.com/spf13/cobra"

	"github.com/inferloop/healthtrack/pkg/constants"
)

type ReportOptions struct {
	DataOptions
	Days int
}

// NewDashboardCmd aggregates every insight for a window
func NewDashboardCmd(global *GlobalOptions) *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Build the full dashboard for the last N days",
		Example: `  # Dashboard for a historical export, as of its last day
  healthtrack-cli dashboard --input dataset.json --days 30 --now 2024-03-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, userID, cfg, err := newService(cmd.Context(), global, &opts.DataOptions)
			if err != nil {
				return err
			}

			result, err := service.Dashboard(cmd.Context(), userID, opts.Days)
			return writeOutcome(cmd.OutOrStdout(), cfg.Pretty, result, err)
		},
	}

	addDataFlags(cmd, &opts.DataOptions)
	cmd.Flags().IntVarP(&opts.Days, "days", "d", constants.DefaultDashboardDays, "Window in days (1-365)")

	return cmd
}

// NewSummaryCmd prints per-metric window statistics
func NewSummaryCmd(global *GlobalOptions) *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize every metric over the last N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, userID, cfg, err := newService(cmd.Context(), global, &opts.DataOptions)
			if err != nil {
				return err
			}

			result, err := service.Summary(cmd.Context(), userID, opts.Days)
			return writeOutcome(cmd.OutOrStdout(), cfg.Pretty, result, err)
		},
	}

	addDataFlags(cmd, &opts.DataOptions)
	cmd.Flags().IntVarP(&opts.Days, "days", "d", constants.DefaultSummaryDays, "Window in days (1-365)")

	return cmd
}

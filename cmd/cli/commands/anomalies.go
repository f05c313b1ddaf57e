package commands

import (
	"github.com/spf13/cobra"

	"github.com/inferloop/healthtrack/pkg/models"
)

type AnomaliesOptions struct {
	DataOptions
	Metric string
}

func NewAnomaliesCmd(global *GlobalOptions) *cobra.Command {
	opts := &AnomaliesOptions{}

	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Flag outlying readings of one body metric",
		Long: `Score every reading of the metric with an isolation forest and report
the most isolated 5% together with their deviation from the mean.`,
		Example: `  # Check body fat readings
  healthtrack-cli anomalies --input dataset.json --metric body_fat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, userID, cfg, err := newService(cmd.Context(), global, &opts.DataOptions)
			if err != nil {
				return err
			}

			result, err := service.DetectAnomalies(cmd.Context(), userID, models.Metric(opts.Metric))
			return writeOutcome(cmd.OutOrStdout(), cfg.Pretty, result, err)
		},
	}

	addDataFlags(cmd, &opts.DataOptions)
	cmd.Flags().StringVarP(&opts.Metric, "metric", "m", string(models.MetricWeight), "Metric to check")

	return cmd
}

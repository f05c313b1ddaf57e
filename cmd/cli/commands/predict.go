package commands

import (
	"github.com/spf13/cobra"

	"github.com/inferloop/healthtrack/pkg/constants"
)

type PredictOptions struct {
	DataOptions
	Days int
}

func NewPredictCmd(global *GlobalOptions) *cobra.Command {
	opts := &PredictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast weight for the coming days",
		Long: `Fit an ARIMA(5,1,0) model to the weight history and forecast one
value per day for the requested horizon.`,
		Example: `  # Two-week forecast from a CSV export
  healthtrack-cli predict --input weigh-ins.csv --days 14`,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, userID, cfg, err := newService(cmd.Context(), global, &opts.DataOptions)
			if err != nil {
				return err
			}

			result, err := service.PredictWeight(cmd.Context(), userID, opts.Days)
			return writeOutcome(cmd.OutOrStdout(), cfg.Pretty, result, err)
		},
	}

	addDataFlags(cmd, &opts.DataOptions)
	cmd.Flags().IntVarP(&opts.Days, "days", "d", constants.DefaultHorizonDays, "Forecast horizon in days (1-365)")

	return cmd
}

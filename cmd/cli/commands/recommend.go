package commands

import (
	"github.com/spf13/cobra"
)

func NewRecommendCmd(global *GlobalOptions) *cobra.Command {
	opts := &DataOptions{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print health advice from the latest readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, userID, cfg, err := newService(cmd.Context(), global, opts)
			if err != nil {
				return err
			}

			result, err := service.Recommendations(cmd.Context(), userID)
			return writeOutcome(cmd.OutOrStdout(), cfg.Pretty, result, err)
		},
	}

	addDataFlags(cmd, opts)

	return cmd
}

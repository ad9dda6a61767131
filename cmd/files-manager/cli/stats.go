package cli

import (
	"encoding/json"

	"github.com/pavel-fokin/files-manager/internal/app"
	"github.com/spf13/cobra"
)

func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the number of users and files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd, func(deps *app.Dependencies) error {
				stats, err := deps.Service.Stats(cmd.Context())
				if err != nil {
					return err
				}

				return json.NewEncoder(cmd.OutOrStdout()).Encode(stats)
			})
		},
	}

	return cmd
}

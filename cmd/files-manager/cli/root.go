package cli

import (
	"context"
	"fmt"

	"github.com/pavel-fokin/files-manager/internal/app"
	"github.com/pavel-fokin/files-manager/internal/config"
	"github.com/pavel-fokin/files-manager/internal/logging"
	"github.com/spf13/cobra"
)

type VersionInfo struct {
	Version string
	Commit  string
}

type configKey struct{}

func NewRootCommand(info VersionInfo) *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:           "files-manager",
		Short:         "Token-authenticated file storage service",
		Long:          "Upload files, images and folders, list them by folder, share them publicly and serve their content and thumbnails.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}

			logging.Setup(cfg.Log)

			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env", ".env.local"}, "dotenv files to load before reading the environment")

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}

func configFrom(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configKey{}).(*config.Config)
	return cfg
}

// withDependencies builds the backends for one command run and releases
// them afterwards.
func withDependencies(cmd *cobra.Command, run func(deps *app.Dependencies) error) error {
	cfg := configFrom(cmd)
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	deps, err := app.Build(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer deps.Close()

	return run(deps)
}

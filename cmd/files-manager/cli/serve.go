package cli

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/pavel-fokin/files-manager/internal/app"
	"github.com/pavel-fokin/files-manager/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd, func(deps *app.Dependencies) error {
				cfg := configFrom(cmd)
				ctx := cmd.Context()

				srv := server.New(server.Config{
					MaxSize:      cfg.MaxSize,
					ReadTimeout:  cfg.ReadTimeout,
					WriteTimeout: cfg.WriteTimeout,
					IdleTimeout:  cfg.IdleTimeout,
				}, deps.Service)

				go func() {
					<-ctx.Done()

					shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
					defer cancel()

					log.Info().Msg("Shutting down server")
					if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
						log.Error().Err(err).Msg("Graceful shutdown failed")
					}
				}()

				log.Info().Str("addr", cfg.Addr()).Msg("Starting server")
				if err := srv.Listen(cfg.Addr(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					return fmt.Errorf("failed to start server: %w", err)
				}

				log.Info().Msg("Server stopped")
				return nil
			})
		},
	}

	return cmd
}

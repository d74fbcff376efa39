package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vblinov/beamchat-server/internal/app"
	"github.com/vblinov/beamchat-server/internal/config"
	"github.com/vblinov/beamchat-server/internal/log"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "beamchat-server",
		Short:        "Real-time direct messaging server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bootstrap logger for config loading; replaced once the
			// configured level is known.
			bootLogger := log.New("info")

			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting beamchat server")

			application, err := app.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/minicom/internal/app"
	"github.com/vovakirdan/minicom/internal/config"
	"github.com/vovakirdan/minicom/internal/log"
)

type rootFlags struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "minicom-server",
		Short:         "Real-time chat room broker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config.yaml")
	pf.StringVar(&flags.overrides.Addr, "addr", "", "HTTP listen address")
	pf.StringVar(&flags.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.overrides.Store.Driver, "store", "", "message store driver (sqlite, memory, redis)")
	pf.DurationVar(&flags.overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the chat broker (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), flags)
		},
	})
	root.AddCommand(newConfigCmd(flags))

	return root
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the resolved configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := resolveConfig(flags)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return configCmd
}

func resolveConfig(flags *rootFlags) (config.Config, string, error) {
	bootLog := log.New("info", "console")
	cfg, path, err := config.Load(bootLog, flags.configPath)
	if err != nil {
		return cfg, path, err
	}
	cfg.UpdateFrom(flags.overrides)
	return cfg, path, nil
}

func serve(parent context.Context, flags *rootFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, path, err := resolveConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return err
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting minicom server")

	application, err := app.New(ctx, &cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize")
		return err
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

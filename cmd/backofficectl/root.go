package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/platform/config"
	"github.com/climbing-section/backoffice/internal/platform/logging"
	"github.com/climbing-section/backoffice/internal/wiring"
)

type rootOptions struct {
	envFile string
	quiet   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "backofficectl",
		Short:        "Operator tasks for the climbing section back office",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "load environment from this file before reading configuration")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress service logs")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newAdminCmd(opts),
		newExportCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return config.Config{}, fmt.Errorf("env file: %w", err)
		}
		return config.LoadFromEnv()
	}
	return config.Load()
}

func (o *rootOptions) logger(cfg config.Config) (*zap.Logger, error) {
	if o.quiet {
		return zap.NewNop(), nil
	}
	return logging.New(cfg.Env, cfg.LogLevel)
}

// openApp loads configuration and assembles the services. The caller closes the app.
func (o *rootOptions) openApp(cmd *cobra.Command, wopts wiring.Options) (*wiring.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := o.logger(cfg)
	if err != nil {
		return nil, err
	}
	return wiring.New(cmd.Context(), cfg, logger, wopts)
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/mellowboard/internal/app"
	"github.com/noah-isme/mellowboard/pkg/config"
	"github.com/noah-isme/mellowboard/pkg/logger"
)

// cliEnv carries the configuration and logger loaded before a subcommand runs.
type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}

	root := &cobra.Command{
		Use:           "mellowctl",
		Short:         "Operate the mellowboard activity tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			env.cfg = cfg
			env.logger = logr
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if env.logger != nil {
				_ = env.logger.Sync()
			}
		},
	}

	root.AddCommand(
		newMigrateCmd(env),
		newIngestCmd(env),
		newLeaderboardCmd(env),
		newExportCmd(env),
		newRunsCmd(env),
	)
	return root
}

// withApp builds the application for one command and closes it afterwards.
func (e *cliEnv) withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := app.New(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

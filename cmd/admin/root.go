package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/app"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/config"
	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigDir string
	Journal   bool
}

// NewRootCommand creates the root command of the admin CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "sos911-admin",
		Short:         "SOS-911 storage administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config", "", "directory holding config.yaml")
	cmd.PersistentFlags().BoolVar(&opts.Journal, "journal", false, "force the dual-write journal on")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewBackfillCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewSeedAdminCommand(opts))

	return cmd
}

// openRuntime loads configuration and connects to both stores.
func openRuntime(ctx context.Context, opts *RootOptions) (*app.Runtime, error) {
	cfg, err := config.Load(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.Journal {
		cfg.DualWrite.Journal = true
	}
	log, err := app.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.New(ctx, cfg, log)
}

// withRuntime runs fn against an open runtime and closes it afterwards.
func withRuntime(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, rt *app.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = appctx.StartTrace(ctx, appctx.OriginAdmin)
	rt, err := openRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())
	return fn(ctx, rt)
}

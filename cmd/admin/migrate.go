package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/app"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/storage/postgres"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create relational tables and document indexes",
		Long: `Apply the relational schema and create the document collection indexes.

Both steps are idempotent and safe to run on every deploy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *app.Runtime) error {
				if err := postgres.Migrate(ctx, rt.Pool); err != nil {
					return err
				}
				if err := rt.Mongo.EnsureIndexes(ctx, app.Schemas()...); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
				return nil
			})
		},
	}
}

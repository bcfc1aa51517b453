package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/app"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

// NewBackfillCommand creates the backfill-index command.
func NewBackfillCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-index [entity...]",
		Short: "Fill missing blind-index columns",
		Long: `Compute blind indexes for rows written before the index existed.

Rows whose ciphertext cannot be decoded are reported and skipped.
Without arguments every entity is processed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *app.Runtime) error {
				names, err := entityNames(rt, args)
				if err != nil {
					return err
				}
				var errs []error
				for _, name := range names {
					c, _ := rt.Coordinator(name)
					report, err := c.BackfillIndexes(ctx)
					fmt.Fprintf(cmd.OutOrStdout(), "%s: scanned=%d updated=%d failed=%d\n",
						name, report.Scanned, report.Updated, report.Failed)
					if err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", name, err))
					}
				}
				return errors.Join(errs...)
			})
		},
	}
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	var (
		batch   int
		batches int
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Drain the dual-write journal once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Journal = true
			return withRuntime(cmd, opts, func(ctx context.Context, rt *app.Runtime) error {
				r := rt.Reconciler()
				var total domain.BatchResult
				for i := 0; batches <= 0 || i < batches; i++ {
					res, err := r.ProcessBatch(ctx, batch)
					if err != nil {
						return err
					}
					total.Claimed += res.Claimed
					total.Reconciled += res.Reconciled
					total.Retried += res.Retried
					if res.Claimed < batch {
						break
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "claimed=%d reconciled=%d retried=%d\n",
					total.Claimed, total.Reconciled, total.Retried)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 100, "intents claimed per batch")
	cmd.Flags().IntVar(&batches, "max-batches", 0, "stop after this many batches (0 drains the journal)")
	return cmd
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(opts *RootOptions) *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "sweep [entity...]",
		Short: "Repair document halves that drifted from the relational store",
		Long: `Walk every relational row, recreate missing document halves and copy the
relational estado onto documents that disagree with it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *app.Runtime) error {
				names, err := entityNames(rt, args)
				if err != nil {
					return err
				}
				r := rt.Reconciler()
				for _, name := range names {
					report, err := r.Sweep(ctx, name, batch)
					if err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: scanned=%d created=%d realigned=%d missing_primary=%d\n",
						name, report.Scanned, report.CreatedDocuments, report.RealignedStatus, report.MissingPrimary)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 500, "rows read per page")
	return cmd
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "journal",
		Short: "Show dual-write intents per state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Journal = true
			return withRuntime(cmd, opts, func(ctx context.Context, rt *app.Runtime) error {
				stats, err := rt.Journal.Stats(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "STATE\tCOUNT")
				for _, s := range []domain.WriteState{
					domain.StatePending,
					domain.StateRelationalCommitted,
					domain.StateDocumentCommitted,
					domain.StateReconciled,
					domain.StateFailed,
				} {
					fmt.Fprintf(w, "%s\t%d\n", s, stats[s])
				}
				return w.Flush()
			})
		},
	}
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <entity> <id>",
		Short: "Print the audit trail of one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}
			return withRuntime(cmd, opts, func(ctx context.Context, rt *app.Runtime) error {
				if _, ok := rt.Coordinator(args[0]); !ok {
					return fmt.Errorf("unknown entity %q", args[0])
				}
				records, err := rt.Audit.History(ctx, args[0], id, limit)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "WHEN\tACTION\tUSER\tFIELDS")
				for _, r := range records {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Action, r.UserID, r.Fields)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	return cmd
}

func entityNames(rt *app.Runtime, args []string) ([]string, error) {
	if len(args) == 0 {
		names := make([]string, 0, len(app.Schemas()))
		for _, s := range app.Schemas() {
			names = append(names, s.Entity)
		}
		return names, nil
	}
	for _, name := range args {
		if _, ok := rt.Coordinator(name); !ok {
			return nil, fmt.Errorf("unknown entity %q", name)
		}
	}
	return args, nil
}

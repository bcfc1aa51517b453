// Package main is the entry point for the SOS-911 reconciliation worker.
// It drains the dual-write journal, finishing writes that stopped between stores.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/app"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/config"
	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/storage/postgres"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

const reconciledRetention = 7 * 24 * time.Hour

func main() {
	configDir := flag.String("config", "", "directory holding config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}
	// The worker only makes sense with a journal to drain.
	cfg.DualWrite.Journal = true

	log, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting sos911 worker")

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize runtime", "error", err)
	}
	defer rt.Close(context.Background())

	worker := NewWorker(rt.Reconciler(), rt.Journal, rt.Pool, cfg.Worker, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker polls the journal on a fixed interval.
type Worker struct {
	reconciler *domain.Reconciler
	journal    *postgres.Journal
	pool       *postgres.Pool
	cfg        config.WorkerConfig
	log        *logger.Logger
}

func NewWorker(r *domain.Reconciler, j *postgres.Journal, pool *postgres.Pool, cfg config.WorkerConfig, log *logger.Logger) *Worker {
	return &Worker{
		reconciler: r,
		journal:    j,
		pool:       pool,
		cfg:        cfg,
		log:        log.WithComponent("worker"),
	}
}

// Run processes batches until ctx is cancelled. A full batch is followed
// immediately by another one instead of waiting for the next tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for w.drain(ctx) {
			}
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	ctx = appctx.StartTrace(ctx, appctx.OriginWorker)
	log := w.log.WithContext(ctx)
	res, err := w.reconciler.ProcessBatch(ctx, w.cfg.BatchSize)
	if err != nil {
		log.Errorw("journal batch failed", "error", err)
		return false
	}
	if res.Claimed > 0 {
		log.Infow("journal batch processed",
			"claimed", res.Claimed,
			"reconciled", res.Reconciled,
			"retried", res.Retried,
		)
	}
	return res.Claimed == w.cfg.BatchSize
}

func (w *Worker) cleanup(ctx context.Context) {
	n, err := w.journal.PurgeReconciled(ctx, reconciledRetention)
	if err != nil {
		w.log.Errorw("journal purge failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("purged reconciled intents", "count", n)
	}

	stats, err := w.journal.Stats(ctx)
	if err != nil {
		w.log.Warnw("journal stats failed", "error", err)
	} else if stats[domain.StateFailed] > 0 {
		w.log.Warnw("journal holds failed intents", "failed", stats[domain.StateFailed])
	}
	w.pool.LogStats(ctx)
}

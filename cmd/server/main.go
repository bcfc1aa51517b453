// Package main is the entry point for the SOS-911 API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/app"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/config"
	v1 "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1/handlers"
)

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

	log, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting sos911 server", "env", cfg.App.Env)

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize runtime", "error", err)
	}
	defer rt.Close(context.Background())

	routerCfg := v1.RouterConfig{
		Logger:       log,
		JWTValidator: rt.Auth,
		Auth:         rt.Auth,
		Services:     rt.Services,
		Stores: map[string]handlers.Pinger{
			"postgres": rt.Pool,
			"mongo":    rt.Mongo,
		},
		Debug: cfg.App.Development(),
	}
	if rt.Journal != nil {
		routerCfg.Journal = rt.Journal
	}
	router := v1.NewRouter(routerCfg)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

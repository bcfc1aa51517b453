// Package app wires configuration into stores, codec and entity services.
// The server, worker and admin binaries share it.
package app

import (
	"context"
	"fmt"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/config"
	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/crypto"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/contenido"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/dispositivo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/grupo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/mensaje"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/notificacion"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/servicio"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/usuario"
	v1 "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/storage/mongo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/storage/postgres"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

// Schemas lists every split-record entity, parents before children.
func Schemas() []*domain.Schema {
	return []*domain.Schema{
		usuario.Schema,
		cliente.Schema,
		grupo.Schema,
		dispositivo.Schema,
		mensaje.Schema,
		servicio.Schema,
		contenido.Schema,
		notificacion.Schema,
	}
}

// Runtime holds the open connections and the services built on them.
type Runtime struct {
	Config  *config.Config
	Logger  *logger.Logger
	Pool    *postgres.Pool
	TxM     *postgres.TxManager
	Mongo   *mongo.Client
	Codec   *crypto.Codec
	Journal *postgres.Journal
	Audit   *postgres.AuditLog

	Deps     domain.Deps
	Creds    *auth.Credentials
	JWT      *auth.JWTService
	Auth     *auth.Service
	Services v1.Services
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.Development(),
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxFiles:    cfg.Log.MaxFiles,
	})
}

// New opens both stores and builds the services. Close releases everything.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *Runtime, err error) {
	rt := &Runtime{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			rt.Close(context.Background())
		}
	}()

	poolCfg := postgres.DefaultPoolConfig(cfg.Postgres.DSN)
	poolCfg.MaxConns = cfg.Postgres.MaxConns
	poolCfg.MinConns = cfg.Postgres.MinConns
	if rt.Pool, err = postgres.NewPool(ctx, poolCfg); err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	rt.TxM = postgres.NewTxManager(rt.Pool)
	log.Info("postgres connection established")

	if rt.Mongo, err = mongo.Connect(ctx, mongo.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
		Timeout:     cfg.Mongo.Timeout,
	}); err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	log.Infow("mongo connection established", "database", cfg.Mongo.Database)

	master, err := crypto.ParseMasterKey(cfg.Crypto.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("crypto.master_key: %w", err)
	}
	legacy, err := crypto.ParseMasterKeys(cfg.Crypto.LegacyKeys)
	if err != nil {
		return nil, fmt.Errorf("crypto.legacy_keys: %w", err)
	}
	if rt.Codec, err = crypto.NewCodec(master, legacy...); err != nil {
		return nil, err
	}

	rt.Audit = postgres.NewAuditLog(rt.TxM)
	rt.Deps = domain.Deps{
		Relational: postgres.NewRelationalStore(rt.TxM),
		Documents:  rt.Mongo.Documents(),
		Codec:      rt.Codec,
		Tx:         rt.TxM,
		Audit:      rt.Audit,
		Logger:     log,
	}
	if cfg.DualWrite.Journal {
		if rt.Journal, err = postgres.NewJournal(rt.TxM, cfg.DualWrite.Grace); err != nil {
			return nil, err
		}
		rt.Deps.Journal = rt.Journal
		log.Infow("dual-write journal enabled", "grace", cfg.DualWrite.Grace)
	}

	rt.Creds = auth.NewCredentials(auth.PasswordMode(cfg.Auth.PasswordMode), cfg.Auth.PasswordMinLength)
	jwtCfg := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	if cfg.Auth.TokenTTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.Auth.TokenTTL
	}
	rt.JWT = auth.NewJWTService(jwtCfg)

	rt.Services = v1.Services{
		Usuarios:       usuario.NewService(rt.Deps, rt.Creds),
		Clientes:       cliente.NewService(rt.Deps, rt.Creds),
		Grupos:         grupo.NewService(rt.Deps),
		Dispositivos:   dispositivo.NewService(rt.Deps),
		Mensajes:       mensaje.NewService(rt.Deps),
		Servicios:      servicio.NewService(rt.Deps),
		Contenido:      contenido.NewService(rt.Deps),
		Notificaciones: notificacion.NewService(rt.Deps),
	}
	rt.Auth = auth.NewService(map[string]*domain.Coordinator{
		appctx.KindUsuario: rt.Services.Usuarios.Coordinator,
		appctx.KindCliente: rt.Services.Clientes.Coordinator,
	}, rt.Creds, rt.JWT, log)

	return rt, nil
}

// Coordinator returns the coordinator of the named entity.
func (rt *Runtime) Coordinator(entityName string) (*domain.Coordinator, bool) {
	for _, c := range rt.coordinators() {
		if c.Schema().Entity == entityName {
			return c, true
		}
	}
	return nil, false
}

func (rt *Runtime) coordinators() []*domain.Coordinator {
	s := rt.Services
	return []*domain.Coordinator{
		s.Usuarios.Coordinator,
		s.Clientes.Coordinator,
		s.Grupos.Coordinator,
		s.Dispositivos.Coordinator,
		s.Mensajes.Coordinator,
		s.Servicios.Coordinator,
		s.Contenido.Coordinator,
		s.Notificaciones.Coordinator,
	}
}

// Reconciler builds a reconciler over every entity.
func (rt *Runtime) Reconciler() *domain.Reconciler {
	r := domain.NewReconciler(rt.Deps, Schemas()...)
	if rt.Config.Worker.Lease > 0 {
		r = r.WithLease(rt.Config.Worker.Lease)
	}
	return r
}

// Close releases the codec keys and both connections.
func (rt *Runtime) Close(ctx context.Context) {
	if rt.Codec != nil {
		rt.Codec.Close()
	}
	if rt.Mongo != nil {
		if err := rt.Mongo.Close(ctx); err != nil {
			rt.Logger.Warnw("mongo disconnect failed", "error", err)
		}
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}

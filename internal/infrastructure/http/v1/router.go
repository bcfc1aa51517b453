// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/contenido"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/dispositivo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/grupo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/mensaje"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/notificacion"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/servicio"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/usuario"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1/handlers"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1/middleware"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/metadata"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

// Services groups the entity services exposed over HTTP.
type Services struct {
	Usuarios       *usuario.Service
	Clientes       *cliente.Service
	Grupos         *grupo.Service
	Dispositivos   *dispositivo.Service
	Mensajes       *mensaje.Service
	Servicios      *servicio.Service
	Contenido      *contenido.Service
	Notificaciones *notificacion.Service
}

func (s Services) schemas() []*domain.Schema {
	return []*domain.Schema{
		s.Usuarios.Schema(),
		s.Clientes.Schema(),
		s.Grupos.Schema(),
		s.Dispositivos.Schema(),
		s.Mensajes.Schema(),
		s.Servicios.Schema(),
		s.Contenido.Schema(),
		s.Notificaciones.Schema(),
	}
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Auth backs the login and password endpoints
	Auth handlers.Authenticator

	Services Services

	// Metadata describes the entities. Built from Services when nil.
	Metadata *metadata.Registry

	// Stores are pinged by the readiness probe, keyed by name
	Stores map[string]handlers.Pinger

	// Journal reports the dual-write backlog. Optional.
	Journal handlers.JournalStats

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// ErrorHandler wraps Recovery so a recovered panic is still rendered.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.Stores, cfg.Journal)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	{
		registerPublicRoutes(v1, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerEntityRoutes(protected, cfg)
		registerMeRoutes(protected, cfg)
		registerMetaRoutes(protected, cfg)
	}

	return router
}

func registerPublicRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	authHandler := handlers.NewAuthHandler(cfg.Auth)
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/usuarios/login", authHandler.Login(appctx.KindUsuario))
		authGroup.POST("/clientes/login", authHandler.Login(appctx.KindCliente))
	}

	// Self-registration of clientes.
	clientes := handlers.NewEntityHandler(cfg.Services.Clientes.Coordinator)
	rg.POST("/clientes", clientes.Create)

	contenidoHandler := handlers.NewContenidoHandler(cfg.Services.Contenido)
	rg.GET("/contenido/seccion/:seccion", contenidoHandler.GetBySection)
}

func registerEntityRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	staffOnly := middleware.RequireKind(appctx.KindUsuario)

	usuarios := rg.Group("/usuarios")
	usuarios.Use(staffOnly)
	handlers.NewEntityHandler(cfg.Services.Usuarios.Coordinator).RegisterRoutes(usuarios)

	selfOrStaff := middleware.SelfOrKind("id", appctx.KindUsuario)
	clienteHandler := handlers.NewEntityHandler(cfg.Services.Clientes.Coordinator)
	clientes := rg.Group("/clientes")
	{
		clientes.GET("", staffOnly, clienteHandler.List)
		clientes.GET("/:id", selfOrStaff, clienteHandler.Get)
		clientes.PATCH("/:id", selfOrStaff, clienteHandler.Update)
		clientes.DELETE("/:id", staffOnly, clienteHandler.Delete)
	}

	// Clientes only see and change records they own.
	mensajeHandler := handlers.NewMensajeHandler(cfg.Services.Mensajes)
	mensajeHandler.ScopeToOwner(mensaje.FieldClienteID, appctx.KindUsuario)
	mensajeHandler.RegisterRoutes(rg.Group("/mensajes"))

	grupos := rg.Group("/grupos")
	handlers.NewEntityHandler(cfg.Services.Grupos.Coordinator).
		ScopeToOwner(grupo.FieldClienteID, appctx.KindUsuario).
		RegisterRoutes(grupos)
	grupos.GET("/:id/mensajes", mensajeHandler.ListByGroup)

	dispositivoHandler := handlers.NewDispositivoHandler(cfg.Services.Dispositivos)
	dispositivoHandler.ScopeToOwner(dispositivo.FieldClienteID, appctx.KindUsuario)
	dispositivos := rg.Group("/dispositivos")
	dispositivoHandler.RegisterRoutes(dispositivos)
	dispositivos.POST("/resolve", staffOnly, dispositivoHandler.Resolve)

	// Notifications belong to their receptor; a cliente sends them as emisor.
	notificacionHandler := handlers.NewNotificacionHandler(cfg.Services.Notificaciones)
	notificacionHandler.ScopeToOwner(notificacion.FieldEmisorID, appctx.KindUsuario)
	notificaciones := rg.Group("/notificaciones")
	notificacionHandler.RegisterRoutes(notificaciones)
	notificaciones.POST("/:id/estado", notificacionHandler.Transition)

	handlers.NewEntityHandler(cfg.Services.Servicios.Coordinator).
		RegisterRoutes(rg.Group("/servicios"), staffOnly)

	handlers.NewContenidoHandler(cfg.Services.Contenido).
		RegisterRoutes(rg.Group("/contenido"), staffOnly)
}

func registerMeRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	authHandler := handlers.NewAuthHandler(cfg.Auth)
	me := rg.Group("/me")
	{
		me.POST("/contrasena", authHandler.ChangePassword)

		owned := me.Group("")
		owned.Use(middleware.RequireKind(appctx.KindCliente))
		owned.GET("/grupos", handlers.NewEntityHandler(cfg.Services.Grupos.Coordinator).ListOwned)
		owned.GET("/dispositivos", handlers.NewEntityHandler(cfg.Services.Dispositivos.Coordinator).ListOwned)
		owned.GET("/mensajes", handlers.NewEntityHandler(cfg.Services.Mensajes.Coordinator).ListOwned)
		owned.GET("/notificaciones", handlers.NewEntityHandler(cfg.Services.Notificaciones.Coordinator).ListOwned)
	}
}

func registerMetaRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	registry := cfg.Metadata
	if registry == nil {
		registry = metadata.FromSchemas(cfg.Services.schemas()...)
	}
	h := handlers.NewMetadataHandler(registry)
	meta := rg.Group("/meta")
	meta.Use(middleware.RequireKind(appctx.KindUsuario))
	{
		meta.GET("/entities", h.List)
		meta.GET("/entities/:name", h.Get)
	}
}

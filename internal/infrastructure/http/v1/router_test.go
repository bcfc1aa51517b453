package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/contenido"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/dispositivo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/domaintest"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/grupo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/mensaje"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/notificacion"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/servicio"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/usuario"
	v1 "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1/handlers"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	router *gin.Engine
	jwt    *auth.JWTService
}

func newTestServer(t *testing.T, stores map[string]handlers.Pinger) *testServer {
	t.Helper()
	env := domaintest.NewEnv(t)
	deps := env.Deps()
	creds := auth.NewCredentials(auth.ModeReversible, 8)
	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))

	services := v1.Services{
		Usuarios:       usuario.NewService(deps, creds),
		Clientes:       cliente.NewService(deps, creds),
		Grupos:         grupo.NewService(deps),
		Dispositivos:   dispositivo.NewService(deps),
		Mensajes:       mensaje.NewService(deps),
		Servicios:      servicio.NewService(deps),
		Contenido:      contenido.NewService(deps),
		Notificaciones: notificacion.NewService(deps),
	}
	authSvc := auth.NewService(map[string]*domain.Coordinator{
		appctx.KindUsuario: services.Usuarios.Coordinator,
		appctx.KindCliente: services.Clientes.Coordinator,
	}, creds, jwtSvc, logger.Nop())

	return &testServer{
		router: v1.NewRouter(v1.RouterConfig{
			Logger:       logger.Nop(),
			JWTValidator: authSvc,
			Auth:         authSvc,
			Services:     services,
			Stores:       stores,
		}),
		jwt: jwtSvc,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) token(t *testing.T, id int64, kind string) string {
	t.Helper()
	tok, _, err := s.jwt.GenerateAccessToken(fmt.Sprint(id), kind, []string{kind})
	require.NoError(t, err)
	return tok
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) register(t *testing.T, correo, cedula string) int64 {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/clientes", "", map[string]any{
		"nombre":           "Cliente " + cedula,
		"correo":           correo,
		"cedula_identidad": cedula,
		"contrasena":       "password-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(t, w)["id"].(float64))
}

func TestRouter_RegisterLoginAndListOwned(t *testing.T) {
	s := newTestServer(t, nil)

	id := s.register(t, "carla@example.com", "0101")

	w := s.do(t, http.MethodPost, "/api/v1/auth/clientes/login", "", map[string]string{
		"correo":     "carla@example.com",
		"contrasena": "password-1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode(t, w)
	assert.Equal(t, "Bearer", login["tokenType"])
	assert.Equal(t, float64(id), login["id"])
	token := login["accessToken"].(string)

	w = s.do(t, http.MethodPost, "/api/v1/grupos", token, map[string]any{
		"nombre":     "Familia",
		"cliente_id": id,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	campos := decode(t, w)["campos"].(map[string]any)
	assert.NotEmpty(t, campos["codigo_acceso"])

	w = s.do(t, http.MethodGet, "/api/v1/me/grupos", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode(t, w)
	assert.Equal(t, float64(1), page["totalCount"])
}

func TestRouter_RegistrationNeverEchoesPassword(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/clientes", "", map[string]any{
		"nombre":           "Ana",
		"correo":           "ana@example.com",
		"cedula_identidad": "0303",
		"contrasena":       "password-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	campos := decode(t, w)["campos"].(map[string]any)
	assert.Equal(t, "ana@example.com", campos["correo"])
	assert.NotContains(t, campos, "contrasena")
}

func TestRouter_LoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "carla@example.com", "0101")

	w := s.do(t, http.MethodPost, "/api/v1/auth/clientes/login", "", map[string]string{
		"correo":     "carla@example.com",
		"contrasena": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/grupos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/grupos", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
}

func TestRouter_KindGuards(t *testing.T) {
	s := newTestServer(t, nil)
	first := s.register(t, "a@example.com", "0101")
	second := s.register(t, "b@example.com", "0202")
	clienteToken := s.token(t, first, appctx.KindCliente)
	staffToken := s.token(t, 1, appctx.KindUsuario)

	t.Run("staff only collections", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/usuarios", clienteToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.do(t, http.MethodGet, "/api/v1/usuarios", staffToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("clientes read only themselves", func(t *testing.T) {
		w := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/clientes/%d", first), clienteToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/clientes/%d", second), clienteToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/clientes/%d", second), staffToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("owned listings are for clientes", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/me/grupos", staffToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRouter_RequestErrors(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, 1, appctx.KindUsuario)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"malformed filter", http.MethodGet, "/api/v1/grupos?filter=nope", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"non numeric id", http.MethodGet, "/api/v1/grupos/abc", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing record", http.MethodGet, "/api/v1/grupos/999", nil, http.StatusNotFound, "NOT_FOUND"},
		{"missing required field", http.MethodPost, "/api/v1/servicios", map[string]any{}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, decode(t, w)["code"])
		})
	}
}

func TestRouter_DeleteThenGet(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.register(t, "a@example.com", "0101")
	token := s.token(t, 1, appctx.KindUsuario)
	path := fmt.Sprintf("/api/v1/clientes/%d", id)

	w := s.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, path+"?includeDeleted=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "eliminado", decode(t, w)["estado"])
}

func TestHealth_Ready(t *testing.T) {
	healthy := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	s := newTestServer(t, map[string]handlers.Pinger{"postgres": healthy, "mongo": healthy})
	w := s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s = newTestServer(t, map[string]handlers.Pinger{"postgres": healthy, "mongo": down})
	w = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks := decode(t, w)["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["postgres"])
	assert.Contains(t, checks["mongo"], "connection refused")
}

func TestRouter_Metadata(t *testing.T) {
	s := newTestServer(t, nil)
	staff := s.token(t, 1, appctx.KindUsuario)

	w := s.do(t, http.MethodGet, "/api/v1/meta/entities/clientes", staff, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	def := decode(t, w)
	assert.Equal(t, "clientes", def["name"])
	assert.Equal(t, "relational_first", def["order"])

	w = s.do(t, http.MethodGet, "/api/v1/meta/entities/nope", staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/meta/entities", s.token(t, 2, appctx.KindCliente), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_ClientesOnlyTouchTheirOwnRecords(t *testing.T) {
	s := newTestServer(t, nil)
	first := s.register(t, "a@example.com", "0101")
	second := s.register(t, "b@example.com", "0202")
	firstToken := s.token(t, first, appctx.KindCliente)
	secondToken := s.token(t, second, appctx.KindCliente)
	staffToken := s.token(t, 1, appctx.KindUsuario)

	w := s.do(t, http.MethodPost, "/api/v1/grupos", firstToken, map[string]any{"nombre": "Familia"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, float64(first), created["campos"].(map[string]any)["cliente_id"], "owner defaults to the caller")
	path := fmt.Sprintf("/api/v1/grupos/%d", int64(created["id"].(float64)))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"get", http.MethodGet, path, nil},
		{"patch", http.MethodPatch, path, map[string]any{"nombre": "Ajeno"}},
		{"delete", http.MethodDelete, path, nil},
		{"create for someone else", http.MethodPost, "/api/v1/grupos", map[string]any{"nombre": "X", "cliente_id": first}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, secondToken, tt.body)
			assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
			assert.Equal(t, "FORBIDDEN", decode(t, w)["code"])
		})
	}

	w = s.do(t, http.MethodGet, "/api/v1/grupos", secondToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["totalCount"], "listing is scoped to the caller")

	w = s.do(t, http.MethodGet, "/api/v1/grupos", staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["totalCount"])

	w = s.do(t, http.MethodPatch, path, firstToken, map[string]any{"nombre": "Familia Ruiz"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPatch, path, staffToken, map[string]any{"nombre": "Familia R."})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

package dispositivo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/dispositivo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/domaintest"
)

func newClient(t *testing.T, svc *cliente.Service, correo, cedula string) int64 {
	t.Helper()
	rec, err := svc.Create(context.Background(), entity.Fields{
		"nombre":           "Cliente " + cedula,
		"correo":           correo,
		"cedula_identidad": cedula,
		"contrasena":       "password-1",
	})
	require.NoError(t, err)
	return rec.ID
}

func TestResolveToken_PrefersNewestRegistration(t *testing.T) {
	env := domaintest.NewEnv(t)
	ctx := context.Background()
	clientes := cliente.NewService(env.Deps(), auth.NewCredentials(auth.ModeReversible, 8))
	devices := dispositivo.NewService(env.Deps())

	first := newClient(t, clientes, "a@example.com", "0101")
	second := newClient(t, clientes, "b@example.com", "0202")

	_, err := devices.Create(ctx, entity.Fields{"cliente_id": first, "token": "fcm-123", "modelo": "A10"})
	require.NoError(t, err)
	env.Clock.Advance(time.Hour)
	newest, err := devices.Create(ctx, entity.Fields{"cliente_id": second, "token": "fcm-123", "modelo": "S22"})
	require.NoError(t, err, "tokens are not unique")

	_, err = devices.ResolveToken(ctx, " fcm-123 ")
	assert.True(t, apperror.IsNotFound(err), "tokens match exactly")

	got, err := devices.ResolveToken(ctx, "fcm-123")
	require.NoError(t, err)
	assert.Equal(t, newest.ID, got.ID)
	assert.Equal(t, "fcm-123", got.Fields["token"])

	require.NoError(t, devices.Delete(ctx, newest.ID))
	got, err = devices.ResolveToken(ctx, "fcm-123")
	require.NoError(t, err)
	assert.Equal(t, first, got.Fields["cliente_id"])

	_, err = devices.ResolveToken(ctx, "unknown")
	assert.True(t, apperror.IsNotFound(err))
}

func TestList_JoinsOwnerName(t *testing.T) {
	env := domaintest.NewEnv(t)
	ctx := context.Background()
	clientes := cliente.NewService(env.Deps(), auth.NewCredentials(auth.ModeReversible, 8))
	devices := dispositivo.NewService(env.Deps())

	owner := newClient(t, clientes, "a@example.com", "0101")
	_, err := devices.Create(ctx, entity.Fields{"cliente_id": owner, "token": "t-1", "sistema_operativo": "android"})
	require.NoError(t, err)

	res, err := devices.ListOwned(ctx, owner, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Cliente 0101", res.Items[0].Joined["cliente"]["nombre"])
	assert.Equal(t, "android", res.Items[0].Fields["sistema_operativo"])
}

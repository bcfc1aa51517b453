package mensaje_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/domaintest"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/grupo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/mensaje"
)

func TestCreate_UpdatesGroupAndSenderCounters(t *testing.T) {
	env := domaintest.NewEnv(t)
	ctx := context.Background()
	clientes := cliente.NewService(env.Deps(), auth.NewCredentials(auth.ModeReversible, 8))
	grupos := grupo.NewService(env.Deps())
	mensajes := mensaje.NewService(env.Deps())

	sender, err := clientes.Create(ctx, entity.Fields{
		"nombre": "Rosa", "correo": "rosa@example.com", "cedula_identidad": "0303", "contrasena": "password-1",
	})
	require.NoError(t, err)
	g, err := grupos.Create(ctx, entity.Fields{"nombre": "Familia", "cliente_id": sender.ID})
	require.NoError(t, err)
	assert.Len(t, g.Fields["codigo_acceso"], 8)

	for _, text := range []string{"primer aviso", "segundo aviso"} {
		_, err := mensajes.Create(ctx, entity.Fields{
			"cliente_id": sender.ID,
			"grupo_id":   g.ID,
			"mensaje":    text,
			"latitud":    -0.2201,
			"longitud":   "-78.5123",
		})
		require.NoError(t, err)
	}
	_, err = mensajes.Create(ctx, entity.Fields{"cliente_id": sender.ID, "mensaje": "sin grupo"})
	require.NoError(t, err)

	gotGroup, err := grupos.Get(ctx, g.ID, domain.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), gotGroup.Fields["total_mensajes"])

	gotSender, err := clientes.Get(ctx, sender.ID, domain.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), gotSender.Fields["mensajes_enviados"])

	res, err := mensajes.ListByGroup(ctx, g.ID, domain.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)
	for _, item := range res.Items {
		assert.Equal(t, "Familia", item.Joined["grupo"]["nombre"])
		assert.Equal(t, "Rosa", item.Joined["cliente"]["nombre"])
		assert.Contains(t, item.Fields["mensaje"], "aviso")
	}
}

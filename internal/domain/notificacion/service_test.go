package notificacion_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/domaintest"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/notificacion"
)

func TestTransition_Lifecycle(t *testing.T) {
	env := domaintest.NewEnv(t)
	ctx := context.Background()
	clientes := cliente.NewService(env.Deps(), auth.NewCredentials(auth.ModeReversible, 8))
	alerts := notificacion.NewService(env.Deps())

	receptor, err := clientes.Create(ctx, entity.Fields{
		"nombre": "Rosa", "correo": "rosa@example.com", "cedula_identidad": "0303", "contrasena": "password-1",
	})
	require.NoError(t, err)

	n, err := alerts.Create(ctx, entity.Fields{"receptor_id": receptor.ID, "titulo": "SOS", "cuerpo": "Ayuda en Av. Amazonas"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, n.Status)
	assert.Equal(t, "Ayuda en Av. Amazonas", n.Fields["cuerpo"])

	got, err := clientes.Get(ctx, receptor.ID, domain.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Fields["notificaciones_recibidas"])

	steps := []struct {
		to string
		ok bool
	}{
		{"recibida", false},
		{"enviada", true},
		{"enviada", true},
		{"recibida", true},
		{"pendiente", false},
		{"resuelta", true},
		{"activo", false},
	}
	for _, step := range steps {
		rec, err := alerts.Transition(ctx, n.ID, step.to)
		if !step.ok {
			assert.True(t, apperror.IsValidation(err), "-> %s", step.to)
			continue
		}
		require.NoError(t, err, "-> %s", step.to)
		assert.Equal(t, entity.Status(step.to), rec.Status)
		assert.True(t, rec.Consistent())
	}

	require.NoError(t, alerts.Delete(ctx, n.ID))
	_, err = alerts.Transition(ctx, n.ID, "resuelta")
	assert.True(t, apperror.IsNotFound(err))
}

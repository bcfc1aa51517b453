package contenido_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/contenido"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/domaintest"
)

func TestSections_PlaintextUniqueness(t *testing.T) {
	env := domaintest.NewEnv(t)
	ctx := context.Background()
	svc := contenido.NewService(env.Deps())

	rec, err := svc.Create(ctx, entity.Fields{"seccion": "inicio", "titulo": "Bienvenido", "imagenes": []any{"a.png"}})
	require.NoError(t, err)

	_, err = svc.Create(ctx, entity.Fields{"seccion": "inicio"})
	assert.True(t, apperror.IsDuplicate(err))

	got, err := svc.GetBySection(ctx, "inicio")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "Bienvenido", got.Fields["titulo"])

	require.NoError(t, svc.Delete(ctx, rec.ID))
	_, err = svc.GetBySection(ctx, "inicio")
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Create(ctx, entity.Fields{"seccion": "inicio"})
	assert.NoError(t, err, "deleted sections free their name")
}

package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/dispositivo"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/mensaje"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/metadata"
)

func fieldByName(t *testing.T, def metadata.EntityDef, name string) metadata.FieldDef {
	t.Helper()
	for _, f := range def.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %s not described", name)
	return metadata.FieldDef{}
}

func TestDescribe_Cliente(t *testing.T) {
	def := metadata.Describe(cliente.Schema)

	assert.Equal(t, "clientes", def.Name)
	assert.Equal(t, metadata.OrderRelationalFirst, def.Order)

	correo := fieldByName(t, def, "correo")
	assert.True(t, correo.Encrypted)
	assert.True(t, correo.Searchable)
	assert.True(t, correo.Unique)
	assert.False(t, correo.Filterable)

	password := fieldByName(t, def, "contrasena")
	assert.True(t, password.WriteOnly)

	counter := fieldByName(t, def, "mensajes_enviados")
	assert.True(t, counter.ReadOnly)
	assert.Equal(t, metadata.TypeInteger, counter.Type)

	medica := fieldByName(t, def, "informacion_medica")
	assert.Equal(t, metadata.StoreDocument, medica.Store)
}

func TestDescribe_ReferencesAndOrder(t *testing.T) {
	def := metadata.Describe(mensaje.Schema)
	assert.Equal(t, metadata.OrderDocumentFirst, def.Order)

	dev := metadata.Describe(dispositivo.Schema)
	owner := fieldByName(t, dev, "cliente_id")
	assert.Equal(t, metadata.TypeReference, owner.Type)
	assert.Equal(t, "clientes", owner.ReferenceType)
	assert.Equal(t, "cliente_id", dev.Owner)
	assert.Equal(t, []string{"cliente"}, dev.Joins)
}

func TestRegistry_ListIsSorted(t *testing.T) {
	r := metadata.FromSchemas(mensaje.Schema, cliente.Schema, dispositivo.Schema)

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "clientes", list[0].Name)
	assert.Equal(t, "dispositivos", list[1].Name)
	assert.Equal(t, "mensajes", list[2].Name)

	_, ok := r.Get("grupos")
	assert.False(t, ok)
}

package domain_test

import (
	"testing"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/domaintest"
)

// Small schemas mirroring the shapes used by the real entities.

func ownerSchema() *domain.Schema {
	return &domain.Schema{
		Entity:        "clientes",
		Table:         "clientes",
		IDColumn:      "id",
		Collection:    "clientes",
		RefField:      "idClienteSql",
		InitialStatus: entity.StatusActive,
		Fields: []domain.Field{
			{Name: "nombre", Kind: domain.KindString, Sensitive: true, Required: true},
			{Name: "correo", Kind: domain.KindString, Sensitive: true, Indexed: true, Unique: true, Required: true},
			{Name: "cedula_identidad", Kind: domain.KindString, Sensitive: true, Indexed: true, Unique: true},
			{Name: "mensajes_enviados", Kind: domain.KindInt, Counter: true},
			{Name: "telefono", Placement: domain.InDocument, Kind: domain.KindString, Sensitive: true},
			{Name: "ciudad", Placement: domain.InDocument, Kind: domain.KindString},
		},
	}
}

func messageSchema(owner *domain.Schema) *domain.Schema {
	return &domain.Schema{
		Entity:        "mensajes",
		Table:         "mensajes",
		IDColumn:      "id",
		Collection:    "mensajes",
		RefField:      "documento_id",
		Order:         domain.DocumentFirst,
		InitialStatus: entity.StatusActive,
		OwnerField:    "cliente_id",
		Fields: []domain.Field{
			{Name: "cliente_id", Kind: domain.KindInt, Required: true, Immutable: true, References: owner},
			{Name: "mensaje", Placement: domain.InDocument, Kind: domain.KindString, Sensitive: true, Required: true},
			{Name: "latitud", Placement: domain.InDocument, Kind: domain.KindDecimal},
		},
		Counters: []domain.Counter{{Field: "cliente_id", Target: owner, Column: "mensajes_enviados"}},
		Joins:    []domain.Join{{Field: "cliente_id", Alias: "cliente", Target: owner, Columns: []string{"nombre"}}},
	}
}

func alertSchema(owner *domain.Schema) *domain.Schema {
	return &domain.Schema{
		Entity:        "notificaciones",
		Table:         "notificaciones",
		IDColumn:      "id",
		Collection:    "notificaciones",
		RefField:      "idNotificacionSql",
		InitialStatus: entity.StatusPending,
		Transitions: entity.Transitions{
			entity.StatusPending: {entity.StatusSent, entity.StatusResolved},
			entity.StatusSent:    {entity.StatusReceived},
		},
		Fields: []domain.Field{
			{Name: "receptor_id", Kind: domain.KindInt, Required: true, References: owner},
			{Name: "cuerpo", Placement: domain.InDocument, Kind: domain.KindString, Sensitive: true},
		},
		Counters: []domain.Counter{{Field: "receptor_id", Target: owner, Column: "mensajes_enviados"}},
	}
}

type fixture struct {
	env      *domaintest.Env
	owners   *domain.Coordinator
	messages *domain.Coordinator
	alerts   *domain.Coordinator
	schemas  []*domain.Schema
}

func newFixture(t *testing.T, journaled bool) *fixture {
	t.Helper()
	env := domaintest.NewEnv(t)
	deps := env.Deps()
	if journaled {
		deps = env.JournaledDeps()
	}
	owner := ownerSchema()
	msg := messageSchema(owner)
	alert := alertSchema(owner)
	return &fixture{
		env:      env,
		owners:   domain.NewCoordinator(owner, deps),
		messages: domain.NewCoordinator(msg, deps),
		alerts:   domain.NewCoordinator(alert, deps),
		schemas:  []*domain.Schema{owner, msg, alert},
	}
}

func ownerInput(correo string) entity.Fields {
	return entity.Fields{
		"nombre":   "Ana Pérez",
		"correo":   correo,
		"telefono": "0991234567",
		"ciudad":   "Quito",
	}
}

// Package notificacion holds alerts delivered to clientes and their delivery lifecycle.
package notificacion

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
)

const (
	FieldReceptorID = "receptor_id"
	FieldEmisorID   = "emisor_id"
	FieldTipo       = "tipo"
	FieldTitulo     = "titulo"
	FieldCuerpo     = "cuerpo"
	FieldDatos      = "datos"
)

// Lifecycle is the delivery allow-list. eliminado is only reached through delete.
var Lifecycle = entity.Transitions{
	entity.StatusPending:  {entity.StatusSent, entity.StatusResolved},
	entity.StatusSent:     {entity.StatusReceived},
	entity.StatusReceived: {entity.StatusResolved},
}

var Schema = &domain.Schema{
	Entity:        "notificaciones",
	Table:         "notificaciones",
	IDColumn:      "id",
	Collection:    "notificaciones",
	RefField:      "idNotificacionSql",
	InitialStatus: entity.StatusPending,
	Transitions:   Lifecycle,
	OwnerField:    FieldReceptorID,
	Fields: []domain.Field{
		{Name: FieldReceptorID, Kind: domain.KindInt, Required: true, Immutable: true, References: cliente.Schema},
		{Name: FieldEmisorID, Kind: domain.KindInt, Immutable: true, References: cliente.Schema},
		{Name: FieldTipo, Kind: domain.KindString},
		{Name: FieldTitulo, Placement: domain.InDocument, Kind: domain.KindString},
		{Name: FieldCuerpo, Placement: domain.InDocument, Kind: domain.KindString, Sensitive: true},
		{Name: FieldDatos, Placement: domain.InDocument, Kind: domain.KindAny},
	},
	Counters: []domain.Counter{
		{Field: FieldReceptorID, Target: cliente.Schema, Column: cliente.FieldNotificacionesRecibidas},
	},
}

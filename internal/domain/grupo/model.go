// Package grupo holds the emergency groups a cliente creates and shares by access code.
package grupo

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
)

const (
	FieldNombre        = "nombre"
	FieldClienteID     = "cliente_id"
	FieldTotalMensajes = "total_mensajes"
	FieldDescripcion   = "descripcion"
	FieldCodigoAcceso  = "codigo_acceso"
)

var Schema = &domain.Schema{
	Entity:        "grupos",
	Table:         "grupos",
	IDColumn:      "id",
	Collection:    "grupos",
	RefField:      "idGrupoSql",
	InitialStatus: entity.StatusActive,
	OwnerField:    FieldClienteID,
	Fields: []domain.Field{
		{Name: FieldNombre, Kind: domain.KindString, Required: true},
		{Name: FieldClienteID, Kind: domain.KindInt, Required: true, Immutable: true, References: cliente.Schema},
		{Name: FieldTotalMensajes, Kind: domain.KindInt, Counter: true},
		{Name: FieldDescripcion, Placement: domain.InDocument, Kind: domain.KindString},
		{Name: FieldCodigoAcceso, Placement: domain.InDocument, Kind: domain.KindString},
	},
}

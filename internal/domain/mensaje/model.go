// Package mensaje holds alert messages. The document is the primary record:
// it is written first and the relational row only carries routing metadata.
package mensaje

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/grupo"
)

const (
	FieldClienteID   = "cliente_id"
	FieldGrupoID     = "grupo_id"
	FieldDocumentoID = "documento_id"
	FieldMensaje     = "mensaje"
	FieldLatitud     = "latitud"
	FieldLongitud    = "longitud"
	FieldTipo        = "tipo"
)

var Schema = &domain.Schema{
	Entity:        "mensajes",
	Table:         "mensajes",
	IDColumn:      "id",
	Collection:    "mensajes",
	RefField:      FieldDocumentoID,
	Order:         domain.DocumentFirst,
	InitialStatus: entity.StatusActive,
	OwnerField:    FieldClienteID,
	Fields: []domain.Field{
		{Name: FieldClienteID, Kind: domain.KindInt, Required: true, Immutable: true, References: cliente.Schema},
		{Name: FieldGrupoID, Kind: domain.KindInt, Immutable: true, References: grupo.Schema},
		{Name: FieldMensaje, Placement: domain.InDocument, Kind: domain.KindString, Sensitive: true, Required: true},
		{Name: FieldLatitud, Placement: domain.InDocument, Kind: domain.KindDecimal},
		{Name: FieldLongitud, Placement: domain.InDocument, Kind: domain.KindDecimal},
		{Name: FieldTipo, Placement: domain.InDocument, Kind: domain.KindString},
	},
	Counters: []domain.Counter{
		{Field: FieldGrupoID, Target: grupo.Schema, Column: grupo.FieldTotalMensajes},
		{Field: FieldClienteID, Target: cliente.Schema, Column: cliente.FieldMensajesEnviados},
	},
	Joins: []domain.Join{
		{Field: FieldClienteID, Alias: "cliente", Target: cliente.Schema, Columns: []string{"nombre"}},
		{Field: FieldGrupoID, Alias: "grupo", Target: grupo.Schema, Columns: []string{grupo.FieldNombre}},
	},
}

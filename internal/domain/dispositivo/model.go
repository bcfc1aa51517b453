// Package dispositivo holds the push-enabled devices registered by clientes.
package dispositivo

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/cliente"
)

const (
	FieldClienteID        = "cliente_id"
	FieldToken            = "token"
	FieldTipoDispositivo  = "tipo_dispositivo"
	FieldModelo           = "modelo"
	FieldSistemaOperativo = "sistema_operativo"
	FieldVersionApp       = "version_app"
)

// Schema describes dispositivos. Tokens are not unique: a handset that changes
// owner keeps its token, and resolution prefers the newest registration.
var Schema = &domain.Schema{
	Entity:        "dispositivos",
	Table:         "dispositivos",
	IDColumn:      "id",
	Collection:    "dispositivos",
	RefField:      "idDispositivoSql",
	InitialStatus: entity.StatusActive,
	OwnerField:    FieldClienteID,
	Fields: []domain.Field{
		{Name: FieldClienteID, Kind: domain.KindInt, Required: true, References: cliente.Schema},
		{Name: FieldToken, Kind: domain.KindString, Sensitive: true, Indexed: true, Required: true},
		{Name: FieldTipoDispositivo, Kind: domain.KindString},
		{Name: FieldModelo, Kind: domain.KindString},
		{Name: FieldSistemaOperativo, Placement: domain.InDocument, Kind: domain.KindString},
		{Name: FieldVersionApp, Placement: domain.InDocument, Kind: domain.KindString},
	},
	Joins: []domain.Join{
		{Field: FieldClienteID, Alias: "cliente", Target: cliente.Schema, Columns: []string{"nombre"}},
	},
}

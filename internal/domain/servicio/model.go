// Package servicio holds the emergency services directory maintained by usuarios.
package servicio

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/usuario"
)

const (
	FieldNombre      = "nombre"
	FieldTelefono    = "telefono"
	FieldUsuarioID   = "usuario_id"
	FieldDescripcion = "descripcion"
	FieldDireccion   = "direccion"
	FieldHorario     = "horario"
)

var Schema = &domain.Schema{
	Entity:        "servicios_emergencia",
	Table:         "servicios_emergencia",
	IDColumn:      "id",
	Collection:    "servicios_emergencia",
	RefField:      "idServicioSql",
	InitialStatus: entity.StatusActive,
	Fields: []domain.Field{
		{Name: FieldNombre, Kind: domain.KindString, Required: true},
		{Name: FieldTelefono, Kind: domain.KindString, Sensitive: true, Required: true},
		{Name: FieldUsuarioID, Kind: domain.KindInt, References: usuario.Schema},
		{Name: FieldDescripcion, Placement: domain.InDocument, Kind: domain.KindString},
		{Name: FieldDireccion, Placement: domain.InDocument, Kind: domain.KindString, Sensitive: true},
		{Name: FieldHorario, Placement: domain.InDocument, Kind: domain.KindAny},
	},
}

// Package usuario holds staff accounts: the operators and administrators of the platform.
package usuario

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
)

const (
	FieldTelefono  = "telefono"
	FieldDireccion = "direccion"
	FieldRol       = "rol"
)

// Schema describes usuarios.
var Schema = &domain.Schema{
	Entity:        "usuarios",
	Table:         "usuarios",
	IDColumn:      "id",
	Collection:    "usuarios",
	RefField:      "idUsuarioSql",
	InitialStatus: entity.StatusActive,
	Fields: append(auth.AccountFields(),
		domain.Field{Name: FieldTelefono, Placement: domain.InDocument, Kind: domain.KindString, Sensitive: true},
		domain.Field{Name: FieldDireccion, Placement: domain.InDocument, Kind: domain.KindString, Sensitive: true},
		domain.Field{Name: FieldRol, Placement: domain.InDocument, Kind: domain.KindString},
	),
}

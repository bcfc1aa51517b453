// Package cliente holds end-user accounts: the people who raise alerts.
package cliente

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/auth"
)

const (
	FieldNotificacionesRecibidas = "notificaciones_recibidas"
	FieldMensajesEnviados        = "mensajes_enviados"
	FieldTelefono                = "telefono"
	FieldDireccion               = "direccion"
	FieldFechaNacimiento         = "fecha_nacimiento"
	FieldInformacionMedica       = "informacion_medica"
)

// Schema describes clientes. The counters are maintained by notificaciones and mensajes.
var Schema = &domain.Schema{
	Entity:        "clientes",
	Table:         "clientes",
	IDColumn:      "id",
	Collection:    "clientes",
	RefField:      "idClienteSql",
	InitialStatus: entity.StatusActive,
	Fields: append(auth.AccountFields(),
		domain.Field{Name: FieldNotificacionesRecibidas, Kind: domain.KindInt, Counter: true},
		domain.Field{Name: FieldMensajesEnviados, Kind: domain.KindInt, Counter: true},
		domain.Field{Name: FieldTelefono, Placement: domain.InDocument, Kind: domain.KindString, Sensitive: true},
		domain.Field{Name: FieldDireccion, Placement: domain.InDocument, Kind: domain.KindString, Sensitive: true},
		domain.Field{Name: FieldFechaNacimiento, Placement: domain.InDocument, Kind: domain.KindString},
		domain.Field{Name: FieldInformacionMedica, Placement: domain.InDocument, Kind: domain.KindAny},
	),
}

// Package contenido holds the editable sections of the public site.
package contenido

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

const (
	FieldSeccion   = "seccion"
	FieldTitulo    = "titulo"
	FieldContenido = "contenido"
	FieldImagenes  = "imagenes"
)

// Schema describes contenido_pagina. seccion is plaintext, so uniqueness is a plain count.
var Schema = &domain.Schema{
	Entity:        "contenido_pagina",
	Table:         "contenido_pagina",
	IDColumn:      "id",
	Collection:    "contenido_pagina",
	RefField:      "idContenidoSql",
	InitialStatus: entity.StatusActive,
	Fields: []domain.Field{
		{Name: FieldSeccion, Kind: domain.KindString, Required: true, Unique: true},
		{Name: FieldTitulo, Placement: domain.InDocument, Kind: domain.KindString},
		{Name: FieldContenido, Placement: domain.InDocument, Kind: domain.KindString},
		{Name: FieldImagenes, Placement: domain.InDocument, Kind: domain.KindAny},
	},
}

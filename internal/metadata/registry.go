// Package metadata publishes a client-facing description of every entity:
// which store holds each field, and which fields are encrypted or filterable.
package metadata

import (
	"sort"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

// WriteOrder names the half written first.
type WriteOrder string

const (
	OrderRelationalFirst WriteOrder = "relational_first"
	OrderDocumentFirst   WriteOrder = "document_first"
)

// FieldType defines the data type of a field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInteger   FieldType = "integer"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeAny       FieldType = "any"
	TypeReference FieldType = "reference"
)

// Store names the half that holds a field.
type Store string

const (
	StoreRelational Store = "relational"
	StoreDocument   Store = "document"
)

// EntityDef describes a split-record entity.
type EntityDef struct {
	Name          string     `json:"name"`
	Table         string     `json:"table"`
	Collection    string     `json:"collection"`
	Order         WriteOrder `json:"order"`
	InitialStatus string     `json:"initialStatus"`
	Owner         string     `json:"owner,omitempty"`
	Fields        []FieldDef `json:"fields"`
	Joins         []string   `json:"joins,omitempty"`
}

// FieldDef describes a field.
type FieldDef struct {
	Name          string    `json:"name"`
	Type          FieldType `json:"type"`
	Store         Store     `json:"store"`
	ReferenceType string    `json:"referenceType,omitempty"`
	Required      bool      `json:"required,omitempty"`
	ReadOnly      bool      `json:"readOnly,omitempty"`
	Immutable     bool      `json:"immutable,omitempty"`
	Encrypted     bool      `json:"encrypted,omitempty"`
	Searchable    bool      `json:"searchable,omitempty"`
	Unique        bool      `json:"unique,omitempty"`
	Filterable    bool      `json:"filterable,omitempty"`
	WriteOnly     bool      `json:"writeOnly,omitempty"`
}

// Registry stores entity definitions.
type Registry struct {
	entities map[string]EntityDef
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]EntityDef),
	}
}

// FromSchemas builds a registry describing schemas.
func FromSchemas(schemas ...*domain.Schema) *Registry {
	r := NewRegistry()
	for _, s := range schemas {
		r.Register(Describe(s))
	}
	return r
}

func (r *Registry) Register(def EntityDef) {
	r.entities[def.Name] = def
}

func (r *Registry) Get(name string) (EntityDef, bool) {
	d, ok := r.entities[name]
	return d, ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []EntityDef {
	list := make([]EntityDef, 0, len(r.entities))
	for _, def := range r.entities {
		list = append(list, def)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Describe converts a schema into its public definition.
func Describe(s *domain.Schema) EntityDef {
	def := EntityDef{
		Name:          s.Entity,
		Table:         s.Table,
		Collection:    s.Collection,
		Order:         OrderRelationalFirst,
		InitialStatus: s.InitialStatus.String(),
		Owner:         s.OwnerField,
		Fields:        make([]FieldDef, 0, len(s.Fields)),
	}
	if s.Order == domain.DocumentFirst {
		def.Order = OrderDocumentFirst
	}
	for _, f := range s.Fields {
		def.Fields = append(def.Fields, describeField(s, f))
	}
	for _, j := range s.Joins {
		def.Joins = append(def.Joins, j.Alias)
	}
	return def
}

func describeField(s *domain.Schema, f domain.Field) FieldDef {
	fd := FieldDef{
		Name:       f.Name,
		Type:       fieldType(f.Kind),
		Store:      StoreRelational,
		Required:   f.Required,
		ReadOnly:   f.Counter,
		Immutable:  f.Immutable,
		Encrypted:  f.Sensitive,
		Searchable: f.Indexed,
		Unique:     f.Unique,
		Filterable: s.Filterable(f.Name),
		WriteOnly:  f.Credential,
	}
	if f.Placement == domain.InDocument {
		fd.Store = StoreDocument
	}
	if f.References != nil {
		fd.Type = TypeReference
		fd.ReferenceType = f.References.Entity
	}
	return fd
}

func fieldType(k domain.Kind) FieldType {
	switch k {
	case domain.KindInt:
		return TypeInteger
	case domain.KindDecimal:
		return TypeNumber
	case domain.KindBool:
		return TypeBoolean
	case domain.KindAny:
		return TypeAny
	default:
		return TypeString
	}
}

package domain

import (
	"fmt"
	"strings"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
)

// Columns and document fields shared by every split record.
const (
	ColStatus    = "estado"
	ColCreatedAt = "fecha_creacion"
	ColUpdatedAt = "fecha_modificacion"
	DocID        = "_id"
)

// Placement says which half of the record holds a field.
type Placement int

const (
	InRelational Placement = iota
	InDocument
)

// Kind is the accepted input shape of a field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindDecimal
	KindBool
	KindAny
)

// WriteOrder is the order in which the two halves are written.
type WriteOrder int

const (
	// RelationalFirst writes the relational half, then the document carrying its id.
	RelationalFirst WriteOrder = iota
	// DocumentFirst writes the document, then a relational row holding the document _id.
	DocumentFirst
)

// Field describes one attribute of an entity.
type Field struct {
	Name      string
	Placement Placement
	Kind      Kind

	// Sensitive values are encrypted before they reach either store.
	Sensitive bool
	// Indexed adds a <name>_hash blind-index column. Sensitive relational fields only.
	Indexed bool
	// Unique is enforced among active rows through the scan lookup.
	Unique bool
	Required bool
	Immutable bool
	// Credential values are write-only: never composed into a view.
	Credential bool
	// Counter fields are maintained by the counter updater and cannot be written.
	Counter bool
	// References names the table an integer foreign key must point into.
	References *Schema
}

// HashColumn returns the blind-index column for f, or "" when f is not indexed.
func (f Field) HashColumn() string {
	if !f.Indexed {
		return ""
	}
	return f.Name + "_hash"
}

// Counter is a side effect of creating a record: column on the table referenced
// by Field is incremented for the id held in Field.
type Counter struct {
	Field  string
	Target *Schema
	Column string
}

// Join projects Columns of the row referenced by Field into list views under Alias.
type Join struct {
	Field   string
	Alias   string
	Target  *Schema
	Columns []string
}

// Schema is the complete description of one split-record entity.
type Schema struct {
	Entity     string
	Table      string
	IDColumn   string
	Collection string
	// RefField is the document field holding the relational id (RelationalFirst)
	// or the relational column holding the document _id (DocumentFirst).
	RefField string
	Order    WriteOrder

	Fields        []Field
	InitialStatus entity.Status
	Transitions   entity.Transitions
	Counters      []Counter
	Joins         []Join

	// OwnerField is the relational column scoping "my records" listings.
	OwnerField string
}

// Relational returns the table descriptor.
func (s *Schema) Relational() Table {
	return Table{Name: s.Table, IDColumn: s.IDColumn}
}

// Field returns the field named name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Filterable reports whether name can appear in a plaintext list predicate.
func (s *Schema) Filterable(name string) bool {
	switch name {
	case s.IDColumn, ColStatus, ColCreatedAt, ColUpdatedAt:
		return true
	}
	f, ok := s.Field(name)
	return ok && f.Placement == InRelational && !f.Sensitive && !f.Credential
}

// Validate checks the schema for wiring mistakes.
func (s *Schema) Validate() error {
	var errs []string
	if s.Entity == "" || s.Table == "" || s.IDColumn == "" || s.Collection == "" || s.RefField == "" {
		errs = append(errs, "entity, table, id column, collection and ref field are required")
	}
	if s.InitialStatus == "" {
		errs = append(errs, "initial status is required")
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.Name] {
			errs = append(errs, fmt.Sprintf("duplicate field %s", f.Name))
		}
		seen[f.Name] = true
		switch f.Name {
		case ColStatus, ColCreatedAt, ColUpdatedAt, s.IDColumn, s.RefField, DocID:
			errs = append(errs, fmt.Sprintf("field %s uses a reserved name", f.Name))
		}
		if f.Indexed && (!f.Sensitive || f.Placement != InRelational) {
			errs = append(errs, fmt.Sprintf("field %s: only sensitive relational fields can be indexed", f.Name))
		}
		if f.Unique && f.Placement != InRelational {
			errs = append(errs, fmt.Sprintf("field %s: unique fields must be relational", f.Name))
		}
		if f.Sensitive && f.Kind != KindString {
			errs = append(errs, fmt.Sprintf("field %s: only string fields can be encrypted", f.Name))
		}
		if f.References != nil && (f.Kind != KindInt || f.Placement != InRelational) {
			errs = append(errs, fmt.Sprintf("field %s: references must be relational integers", f.Name))
		}
		if f.Counter && (f.Kind != KindInt || f.Placement != InRelational) {
			errs = append(errs, fmt.Sprintf("field %s: counters must be relational integers", f.Name))
		}
	}
	for _, c := range s.Counters {
		if !seen[c.Field] || c.Target == nil || c.Column == "" {
			errs = append(errs, fmt.Sprintf("counter on %s is incomplete", c.Field))
		}
	}
	for _, j := range s.Joins {
		if !seen[j.Field] || j.Target == nil || j.Alias == "" {
			errs = append(errs, fmt.Sprintf("join on %s is incomplete", j.Field))
		}
	}
	if s.OwnerField != "" && !seen[s.OwnerField] {
		errs = append(errs, fmt.Sprintf("owner field %s is not declared", s.OwnerField))
	}
	if len(errs) > 0 {
		return fmt.Errorf("schema %s: %s", s.Entity, strings.Join(errs, "; "))
	}
	return nil
}

package entity

// Record is the composed, decrypted view of one split record.
type Record struct {
	ID        int64   `json:"id"`
	Status    Status  `json:"estado"`
	CreatedAt string  `json:"fecha_creacion"`
	UpdatedAt *string `json:"fecha_modificacion"`

	// DocumentStatus mirrors the document half; nil when that half is missing.
	DocumentStatus *Status `json:"estado_documento"`

	Fields Fields `json:"campos"`

	// Joined holds read-only projections of related relational rows keyed by alias.
	Joined map[string]Fields `json:"relacionados,omitempty"`
}

// Consistent reports whether both halves carry the same status.
func (r Record) Consistent() bool {
	return r.DocumentStatus != nil && *r.DocumentStatus == r.Status
}

// Package entity provides the shared vocabulary of split records: status, timestamps and field maps.
package entity

import "fmt"

// Status is the lifecycle marker stored on both halves of a record.
type Status string

const (
	StatusActive   Status = "activo"
	StatusDeleted  Status = "eliminado"
	StatusPending  Status = "pendiente"
	StatusSent     Status = "enviada"
	StatusReceived Status = "recibida"
	StatusResolved Status = "resuelta"
)

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// ParseStatus accepts only values from the global vocabulary.
func ParseStatus(v string) (Status, error) {
	switch s := Status(v); s {
	case StatusActive, StatusDeleted, StatusPending, StatusSent, StatusReceived, StatusResolved:
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", v)
}

// Transitions is an explicit allow-list of status changes reachable through an update.
// Soft delete is not a transition: it is always allowed from any non-deleted status.
type Transitions map[Status][]Status

// Allows reports whether from -> to is permitted. A no-op change is always allowed.
func (t Transitions) Allows(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Reachable reports whether s appears anywhere in the allow-list.
func (t Transitions) Reachable(s Status) bool {
	for from, targets := range t {
		if from == s {
			return true
		}
		for _, to := range targets {
			if to == s {
				return true
			}
		}
	}
	return false
}

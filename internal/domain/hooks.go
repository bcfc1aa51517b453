package domain

import (
	"context"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
)

// HookEvent identifies when a hook runs.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	AfterDelete  HookEvent = "after_delete"
)

// Hook sees the record id (0 before create) and the plaintext input fields.
// Before-hooks may rewrite fields; an error aborts the operation before any write.
type Hook func(ctx context.Context, id int64, fields entity.Fields) error

// HookRegistry holds hooks per event.
type HookRegistry struct {
	hooks map[HookEvent][]Hook
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{hooks: make(map[HookEvent][]Hook)}
}

// On registers a hook for the specified event.
func (r *HookRegistry) On(event HookEvent, hook Hook) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event.
func (r *HookRegistry) Run(ctx context.Context, event HookEvent, id int64, fields entity.Fields) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, id, fields); err != nil {
			return err
		}
	}
	return nil
}

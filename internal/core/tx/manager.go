// Package tx defines the relational transaction boundary used by the dual-write journal.
// The document store never takes part in a transaction.
package tx

import (
	"context"
)

// Manager runs fn inside one relational transaction.
// A failing fn rolls the transaction back; nested calls reuse the transaction in ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Passthrough is a Manager that runs fn directly.
// It is used when the relational write does not need to be paired with a journal row.
type Passthrough struct{}

// RunInTransaction implements Manager.
func (Passthrough) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

package domain

import (
	"context"
	"fmt"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

const defaultScanPage = 500

// LookupQuery finds rows whose encrypted Column decrypts to Value.
type LookupQuery struct {
	Table      Table
	Column     string
	HashColumn string
	Value      string

	// Where holds extra plaintext predicates. Active rows are implied unless IncludeDeleted.
	Where          []filter.Item
	ExcludeID      *int64
	IncludeDeleted bool
}

// ScanLookup answers exact-equality questions over encrypted columns by decrypting candidates.
// A blind-index column narrows the candidate set; rows whose index is still NULL are
// always scanned, so the result equals a full decrypt-and-compare.
// Candidates are visited newest first, so the first match is the most recently created.
type ScanLookup struct {
	rel      RelationalStore
	codec    Codec
	pageSize int
}

// NewScanLookup creates a lookup over rel.
func NewScanLookup(rel RelationalStore, codec Codec) *ScanLookup {
	return &ScanLookup{rel: rel, codec: codec, pageSize: defaultScanPage}
}

// QueryFor builds a lookup of field = value against schema s.
func (s *Schema) QueryFor(field, value string) (LookupQuery, error) {
	f, ok := s.Field(field)
	if !ok || f.Placement != InRelational {
		return LookupQuery{}, fmt.Errorf("%s has no relational field %s", s.Entity, field)
	}
	return LookupQuery{
		Table:      s.Relational(),
		Column:     f.Name,
		HashColumn: f.HashColumn(),
		Value:      value,
	}, nil
}

// Find returns every matching row, newest first.
func (l *ScanLookup) Find(ctx context.Context, q LookupQuery) ([]Row, error) {
	var matches []Row
	err := l.scan(ctx, q, func(row Row) bool {
		matches = append(matches, row)
		return true
	})
	return matches, err
}

// First returns the most recently created matching row.
func (l *ScanLookup) First(ctx context.Context, q LookupQuery) (Row, bool, error) {
	var found Row
	err := l.scan(ctx, q, func(row Row) bool {
		found = row
		return false
	})
	return found, found != nil, err
}

// Exists reports whether any row matches.
func (l *ScanLookup) Exists(ctx context.Context, q LookupQuery) (bool, error) {
	_, ok, err := l.First(ctx, q)
	return ok, err
}

// scan feeds matching rows to visit until it returns false.
func (l *ScanLookup) scan(ctx context.Context, q LookupQuery, visit func(Row) bool) error {
	want := q.Value
	if want == "" {
		// Undecodable values read as "", so an empty probe would match them.
		return nil
	}

	where := append([]filter.Item(nil), q.Where...)
	if !q.IncludeDeleted {
		where = append(where, filter.Ne(ColStatus, string(entity.StatusDeleted)))
	}
	if q.ExcludeID != nil {
		where = append(where, filter.Ne(q.Table.IDColumn, *q.ExcludeID))
	}
	if q.HashColumn != "" {
		if h := l.codec.BlindIndex(q.Column, want); h != "" {
			where = append(where, filter.Item{
				Field:    q.HashColumn,
				Operator: filter.EqualOrNull,
				Value:    h,
			})
		}
	}

	for offset := 0; ; offset += l.pageSize {
		rows, err := l.rel.Select(ctx, q.Table, Query{
			Where:   where,
			OrderBy: []Order{{Column: ColCreatedAt, Desc: true}, {Column: q.Table.IDColumn, Desc: true}},
			Limit:   l.pageSize,
			Offset:  offset,
		})
		if err != nil {
			return apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("scan %s.%s: %w", q.Table.Name, q.Column, err))
		}
		for _, row := range rows {
			ct, _ := row[q.Column].(string)
			if ct == "" {
				continue
			}
			if l.codec.SafeDecrypt(ct) == want {
				if !visit(row) {
					return nil
				}
			}
		}
		if len(rows) < l.pageSize {
			return nil
		}
	}
}

package domain

import (
	"context"
	"fmt"
	"strconv"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

// refOf returns the value linking row to its document and the document field to match on.
func (s *Schema) refOf(row Row) (field string, value string, ok bool) {
	if s.Order == DocumentFirst {
		v, ok := row[s.RefField].(string)
		return DocID, v, ok && v != ""
	}
	id, ok := entity.CoerceInt(row[s.IDColumn])
	if !ok {
		return s.RefField, "", false
	}
	return s.RefField, strconv.FormatInt(id, 10), true
}

// docKey returns the document field holding the link back to the relational half.
func (s *Schema) docKey() string {
	if s.Order == DocumentFirst {
		return DocID
	}
	return s.RefField
}

// compose merges both halves into a decrypted view.
// A nil doc yields nil for every document-only field.
func (c *Coordinator) compose(row Row, doc Document) entity.Record {
	return composeRecord(c.schema, c.deps.Codec, row, doc)
}

func composeRecord(s *Schema, codec Codec, row Row, doc Document) entity.Record {
	id, _ := entity.CoerceInt(row[s.IDColumn])
	rec := entity.Record{
		ID:        id,
		Status:    entity.Status(row.GetString(ColStatus)),
		CreatedAt: row.GetString(ColCreatedAt),
		Fields:    make(entity.Fields, len(s.Fields)),
	}
	if u, ok := row[ColUpdatedAt].(string); ok && u != "" {
		rec.UpdatedAt = &u
	}
	if doc != nil {
		ds := entity.Status(doc.GetString(ColStatus))
		rec.DocumentStatus = &ds
	}

	for _, f := range s.Fields {
		if f.Credential {
			continue
		}
		var v any
		if f.Placement == InRelational {
			v = row[f.Name]
		} else if doc != nil {
			v = doc[f.Name]
		}
		if f.Sensitive {
			if ct, ok := v.(string); ok {
				v = codec.SafeDecrypt(ct)
			}
		}
		if f.Kind == KindInt && v != nil {
			if n, ok := entity.CoerceInt(v); ok {
				v = n
			}
		}
		if f.Kind == KindDecimal && v != nil {
			if d, ok := entity.CoerceDecimal(v); ok {
				v = d
			}
		}
		rec.Fields[f.Name] = v
	}
	return rec
}

// loadDocuments fetches the documents for rows keyed by link value.
func (c *Coordinator) loadDocuments(ctx context.Context, rows []Row) (map[string]Document, error) {
	refs := make([]any, 0, len(rows))
	for _, row := range rows {
		if _, ref, ok := c.schema.refOf(row); ok {
			refs = append(refs, ref)
		}
	}
	out := make(map[string]Document, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	docs, err := c.deps.Documents.FindMany(ctx, c.schema.Collection, c.schema.docKey(), refs)
	if err != nil {
		return nil, apperror.NewStore(apperror.StoreDocument, false, fmt.Errorf("load %s documents: %w", c.schema.Collection, err))
	}
	for _, d := range docs {
		key := fmt.Sprint(d[c.schema.docKey()])
		out[key] = d
	}
	return out, nil
}

// loadJoins projects related rows into each record. Joins are read-only enrichment.
func (c *Coordinator) loadJoins(ctx context.Context, rows []Row, recs []entity.Record) error {
	for _, j := range c.schema.Joins {
		ids := make([]any, 0, len(rows))
		seen := make(map[int64]bool, len(rows))
		for _, row := range rows {
			id, ok := entity.CoerceInt(row[j.Field])
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}

		target := j.Target.Relational()
		cols := append([]string{target.IDColumn}, j.Columns...)
		related, err := c.deps.Relational.Select(ctx, target, Query{
			Columns: cols,
			Where:   []filter.Item{{Field: target.IDColumn, Operator: filter.InList, Value: ids}},
		})
		if err != nil {
			return apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("join %s: %w", j.Alias, err))
		}

		byID := make(map[int64]entity.Fields, len(related))
		for _, r := range related {
			id, _ := entity.CoerceInt(r[target.IDColumn])
			proj := make(entity.Fields, len(j.Columns))
			for _, col := range j.Columns {
				v := r[col]
				if f, ok := j.Target.Field(col); ok && f.Sensitive {
					if ct, ok := v.(string); ok {
						v = c.deps.Codec.SafeDecrypt(ct)
					}
				}
				proj[col] = v
			}
			byID[id] = proj
		}

		for i, row := range rows {
			id, ok := entity.CoerceInt(row[j.Field])
			if !ok {
				continue
			}
			if proj, ok := byID[id]; ok {
				if recs[i].Joined == nil {
					recs[i].Joined = make(map[string]entity.Fields, len(c.schema.Joins))
				}
				recs[i].Joined[j.Alias] = proj
			}
		}
	}
	return nil
}

package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

// staged is a validated, encrypted change split by destination.
type staged struct {
	rel    Row
	doc    Document
	fields []string
	status *entity.Status
}

// validateInput checks names, kinds and required fields, and coerces values.
// It never touches the document store and only reads the relational one for references.
func (c *Coordinator) validateInput(ctx context.Context, in entity.Fields, creating bool) (entity.Fields, *entity.Status, error) {
	out := make(entity.Fields, len(in))
	var status *entity.Status

	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := in[name]
		if name == ColStatus {
			if creating {
				return nil, nil, apperror.NewFieldValidation(name, "status is assigned by the server on create")
			}
			s, ok := raw.(string)
			if !ok {
				return nil, nil, apperror.NewFieldValidation(name, "status must be a string")
			}
			parsed, err := entity.ParseStatus(s)
			if err != nil {
				return nil, nil, apperror.NewFieldValidation(name, err.Error())
			}
			status = &parsed
			continue
		}

		f, ok := c.schema.Field(name)
		if !ok {
			return nil, nil, apperror.NewFieldValidation(name, "unknown field")
		}
		if f.Counter {
			return nil, nil, apperror.NewFieldValidation(name, "field is maintained by the server")
		}
		if f.Immutable && !creating {
			return nil, nil, apperror.NewFieldValidation(name, "field cannot be changed")
		}

		v, err := coerce(f, raw)
		if err != nil {
			return nil, nil, apperror.NewFieldValidation(name, err.Error())
		}
		if f.Required && isBlank(v) {
			return nil, nil, apperror.NewFieldValidation(name, "field is required")
		}
		out[name] = v
	}

	if creating {
		for _, f := range c.schema.Fields {
			if !f.Required {
				continue
			}
			if _, ok := out[f.Name]; !ok {
				return nil, nil, apperror.NewFieldValidation(f.Name, "field is required")
			}
		}
	}

	if err := c.checkReferences(ctx, out); err != nil {
		return nil, nil, err
	}
	return out, status, nil
}

func coerce(f Field, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch f.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return s, nil
	case KindInt:
		n, ok := entity.CoerceInt(raw)
		if !ok {
			return nil, fmt.Errorf("must be an integer")
		}
		return n, nil
	case KindDecimal:
		d, ok := entity.CoerceDecimal(raw)
		if !ok {
			return nil, fmt.Errorf("must be a number")
		}
		return d, nil
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("must be a boolean")
		}
		return b, nil
	}
	return raw, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// checkReferences verifies that every foreign key points at an active row.
func (c *Coordinator) checkReferences(ctx context.Context, values entity.Fields) error {
	for _, f := range c.schema.Fields {
		if f.References == nil {
			continue
		}
		v, ok := values[f.Name]
		if !ok || v == nil {
			continue
		}
		target := f.References.Relational()
		n, err := c.deps.Relational.Count(ctx, target, []filter.Item{
			filter.Eq(target.IDColumn, v),
			filter.Ne(ColStatus, string(entity.StatusDeleted)),
		})
		if err != nil {
			return apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("check %s reference: %w", f.Name, err))
		}
		if n == 0 {
			return apperror.NewFieldValidation(f.Name, fmt.Sprintf("referenced %s does not exist", f.References.Entity))
		}
	}
	return nil
}

// checkUnique rejects values already held by another active row.
func (c *Coordinator) checkUnique(ctx context.Context, values entity.Fields, exclude *int64) error {
	for _, f := range c.schema.Fields {
		if !f.Unique {
			continue
		}
		v, ok := values[f.Name]
		if !ok || isBlank(v) {
			continue
		}

		var taken bool
		if f.Sensitive {
			q, err := c.schema.QueryFor(f.Name, v.(string))
			if err != nil {
				return apperror.NewInternal(err)
			}
			q.ExcludeID = exclude
			if taken, err = c.lookup.Exists(ctx, q); err != nil {
				return err
			}
		} else {
			where := []filter.Item{
				filter.Eq(f.Name, v),
				filter.Ne(ColStatus, string(entity.StatusDeleted)),
			}
			if exclude != nil {
				where = append(where, filter.Ne(c.schema.IDColumn, *exclude))
			}
			n, err := c.deps.Relational.Count(ctx, c.schema.Relational(), where)
			if err != nil {
				return apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("check unique %s: %w", f.Name, err))
			}
			taken = n > 0
		}
		if taken {
			return apperror.NewDuplicate(c.schema.Entity, f.Name)
		}
	}
	return nil
}

// stage encrypts sensitive values, computes blind indexes and splits by half.
func (c *Coordinator) stage(values entity.Fields) (staged, error) {
	st := staged{rel: Row{}, doc: Document{}}
	for _, f := range c.schema.Fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		st.fields = append(st.fields, f.Name)

		stored := v
		if f.Sensitive && v != nil {
			plain := v.(string)
			ct, err := c.deps.Codec.Encrypt(plain)
			if err != nil {
				return staged{}, apperror.NewInternal(fmt.Errorf("encrypt %s: %w", f.Name, err))
			}
			stored = ct
			if f.Indexed {
				st.rel[f.HashColumn()] = c.deps.Codec.BlindIndex(f.Name, plain)
			}
		} else if f.Indexed {
			st.rel[f.HashColumn()] = nil
		}

		if f.Placement == InRelational {
			st.rel[f.Name] = stored
		} else {
			st.doc[f.Name] = stored
		}
	}
	return st, nil
}

package postgres

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

var _ domain.RelationalStore = (*RelationalStore)(nil)

// Column and table names are interpolated into SQL, so only plain identifiers pass.
var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// RelationalStore stores relational halves as loosely typed rows.
// Every call joins the transaction carried by ctx.
type RelationalStore struct {
	txm *TxManager
}

// NewRelationalStore creates a relational store.
func NewRelationalStore(txm *TxManager) *RelationalStore {
	return &RelationalStore{txm: txm}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert implements domain.RelationalStore.
func (s *RelationalStore) Insert(ctx context.Context, t domain.Table, row domain.Row) (int64, error) {
	sql, args, err := buildInsert(t, row)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := s.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", t.Name, err)
	}
	return id, nil
}

// Update implements domain.RelationalStore.
func (s *RelationalStore) Update(ctx context.Context, t domain.Table, set domain.Row, where []filter.Item) (int64, error) {
	sql, args, err := buildUpdate(t, set, where)
	if err != nil {
		return 0, err
	}
	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", t.Name, err)
	}
	return tag.RowsAffected(), nil
}

// Increment implements domain.RelationalStore.
func (s *RelationalStore) Increment(ctx context.Context, t domain.Table, id int64, column string, set domain.Row) (int64, error) {
	sql, args, err := buildIncrement(t, id, column, set)
	if err != nil {
		return 0, err
	}
	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("increment %s.%s: %w", t.Name, column, err)
	}
	return tag.RowsAffected(), nil
}

// Select implements domain.RelationalStore.
func (s *RelationalStore) Select(ctx context.Context, t domain.Table, q domain.Query) ([]domain.Row, error) {
	sql, args, err := buildSelect(t, q)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", t.Name, err)
	}
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = normalizeRow(r)
	}
	return out, nil
}

// Count implements domain.RelationalStore.
func (s *RelationalStore) Count(ctx context.Context, t domain.Table, where []filter.Item) (int64, error) {
	sql, args, err := buildCount(t, where)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}
	return n, nil
}

func buildInsert(t domain.Table, row domain.Row) (string, []any, error) {
	if err := checkTable(t); err != nil {
		return "", nil, err
	}
	if err := checkColumns(row); err != nil {
		return "", nil, err
	}
	return builder().
		Insert(t.Name).
		SetMap(map[string]any(row)).
		Suffix("RETURNING " + t.IDColumn).
		ToSql()
}

func buildUpdate(t domain.Table, set domain.Row, where []filter.Item) (string, []any, error) {
	if err := checkTable(t); err != nil {
		return "", nil, err
	}
	if len(set) == 0 {
		return "", nil, fmt.Errorf("update %s: nothing to set", t.Name)
	}
	if err := checkColumns(set); err != nil {
		return "", nil, err
	}
	conds, err := conditions(where)
	if err != nil {
		return "", nil, err
	}
	q := builder().Update(t.Name).SetMap(map[string]any(set))
	for _, c := range conds {
		q = q.Where(c)
	}
	return q.ToSql()
}

func buildIncrement(t domain.Table, id int64, column string, set domain.Row) (string, []any, error) {
	if err := checkTable(t); err != nil {
		return "", nil, err
	}
	if !identifier.MatchString(column) {
		return "", nil, fmt.Errorf("invalid column: %q", column)
	}
	if err := checkColumns(set); err != nil {
		return "", nil, err
	}
	q := builder().
		Update(t.Name).
		Set(column, squirrel.Expr(fmt.Sprintf("COALESCE(%s, 0) + 1", column)))
	if len(set) > 0 {
		q = q.SetMap(map[string]any(set))
	}
	return q.Where(squirrel.Eq{t.IDColumn: id}).ToSql()
}

func buildSelect(t domain.Table, dq domain.Query) (string, []any, error) {
	if err := checkTable(t); err != nil {
		return "", nil, err
	}
	cols := dq.Columns
	if len(cols) == 0 {
		cols = []string{"*"}
	} else {
		for _, c := range cols {
			if !identifier.MatchString(c) {
				return "", nil, fmt.Errorf("invalid column: %q", c)
			}
		}
	}
	conds, err := conditions(dq.Where)
	if err != nil {
		return "", nil, err
	}

	q := builder().Select(cols...).From(t.Name)
	for _, c := range conds {
		q = q.Where(c)
	}

	if len(dq.OrderBy) > 0 {
		terms := make([]string, 0, len(dq.OrderBy))
		for _, o := range dq.OrderBy {
			if !identifier.MatchString(o.Column) {
				return "", nil, fmt.Errorf("invalid order column: %q", o.Column)
			}
			if o.Desc {
				terms = append(terms, o.Column+" DESC")
			} else {
				terms = append(terms, o.Column+" ASC")
			}
		}
		q = q.OrderBy(terms...)
	}
	if dq.Limit > 0 {
		q = q.Limit(uint64(dq.Limit))
	}
	if dq.Offset > 0 {
		q = q.Offset(uint64(dq.Offset))
	}
	return q.ToSql()
}

func buildCount(t domain.Table, where []filter.Item) (string, []any, error) {
	if err := checkTable(t); err != nil {
		return "", nil, err
	}
	conds, err := conditions(where)
	if err != nil {
		return "", nil, err
	}
	q := builder().Select("COUNT(*)").From(t.Name)
	for _, c := range conds {
		q = q.Where(c)
	}
	return q.ToSql()
}

// conditions translates filter items into squirrel predicates, one per item.
func conditions(items []filter.Item) ([]squirrel.Sqlizer, error) {
	out := make([]squirrel.Sqlizer, 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		if !identifier.MatchString(item.Field) {
			return nil, fmt.Errorf("invalid filter column: %s", item.Field)
		}

		switch item.Operator {
		case filter.Equal, filter.InList:
			out = append(out, squirrel.Eq{item.Field: item.Value})
		case filter.NotEqual, filter.NotInList:
			out = append(out, squirrel.NotEq{item.Field: item.Value})
		case filter.LessOrEqual:
			out = append(out, squirrel.LtOrEq{item.Field: item.Value})
		case filter.GreaterOrEqual:
			out = append(out, squirrel.GtOrEq{item.Field: item.Value})
		case filter.Less:
			out = append(out, squirrel.Lt{item.Field: item.Value})
		case filter.Greater:
			out = append(out, squirrel.Gt{item.Field: item.Value})
		case filter.IsNull:
			out = append(out, squirrel.Eq{item.Field: nil})
		case filter.IsNotNull:
			out = append(out, squirrel.NotEq{item.Field: nil})
		case filter.Contains:
			out = append(out, squirrel.ILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		case filter.NotContains:
			out = append(out, squirrel.NotILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		case filter.EqualOrNull:
			out = append(out, squirrel.Or{
				squirrel.Eq{item.Field: item.Value},
				squirrel.Eq{item.Field: nil},
			})
		}
	}
	return out, nil
}

func checkTable(t domain.Table) error {
	if !identifier.MatchString(t.Name) || !identifier.MatchString(t.IDColumn) {
		return fmt.Errorf("invalid table %q (id %q)", t.Name, t.IDColumn)
	}
	return nil
}

func checkColumns(row domain.Row) error {
	for col := range row {
		if !identifier.MatchString(col) {
			return fmt.Errorf("invalid column: %q", col)
		}
	}
	return nil
}

// normalizeRow widens integer columns to int64.
func normalizeRow(r map[string]any) domain.Row {
	out := make(domain.Row, len(r))
	for k, v := range r {
		switch n := v.(type) {
		case int16:
			out[k] = int64(n)
		case int32:
			out[k] = int64(n)
		case int:
			out[k] = int64(n)
		default:
			out[k] = v
		}
	}
	return out
}

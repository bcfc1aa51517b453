// Package domaintest provides in-memory stores for exercising coordinators without databases.
package domaintest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

// failures holds one-shot injected errors keyed by "op:target".
type failures struct {
	mu   sync.Mutex
	next map[string]error
}

func (f *failures) set(op, target string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next == nil {
		f.next = make(map[string]error)
	}
	f.next[op+":"+target] = err
}

func (f *failures) take(op, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := op + ":" + target
	err := f.next[key]
	delete(f.next, key)
	return err
}

// --- Relational ---

// MemoryRelational is a RelationalStore backed by maps. Every statement is atomic.
type MemoryRelational struct {
	mu     sync.Mutex
	tables map[string]map[int64]domain.Row
	seq    map[string]int64
	fail   failures
}

var _ domain.RelationalStore = (*MemoryRelational)(nil)

// NewMemoryRelational creates an empty store.
func NewMemoryRelational() *MemoryRelational {
	return &MemoryRelational{
		tables: make(map[string]map[int64]domain.Row),
		seq:    make(map[string]int64),
	}
}

// FailNext makes the next op ("insert", "update", "increment", "select", "count") on table fail.
func (m *MemoryRelational) FailNext(op, table string, err error) {
	m.fail.set(op, table, err)
}

// Raw returns a copy of the stored row, bypassing filters.
func (m *MemoryRelational) Raw(table string, id int64) domain.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables[table][id].Clone()
}

// Put stores row as-is under id, for seeding legacy data.
func (m *MemoryRelational) Put(t domain.Table, id int64, row domain.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.table(t.Name)
	r := row.Clone()
	r[t.IDColumn] = id
	rows[id] = r
	if id > m.seq[t.Name] {
		m.seq[t.Name] = id
	}
}

func (m *MemoryRelational) table(name string) map[int64]domain.Row {
	rows, ok := m.tables[name]
	if !ok {
		rows = make(map[int64]domain.Row)
		m.tables[name] = rows
	}
	return rows
}

func (m *MemoryRelational) Insert(_ context.Context, t domain.Table, row domain.Row) (int64, error) {
	if err := m.fail.take("insert", t.Name); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq[t.Name]++
	id := m.seq[t.Name]
	r := row.Clone()
	r[t.IDColumn] = id
	m.table(t.Name)[id] = r
	return id, nil
}

func (m *MemoryRelational) Update(_ context.Context, t domain.Table, set domain.Row, where []filter.Item) (int64, error) {
	if err := m.fail.take("update", t.Name); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.table(t.Name) {
		if !matchAll(row, where) {
			continue
		}
		for k, v := range set {
			row[k] = v
		}
		n++
	}
	return n, nil
}

func (m *MemoryRelational) Increment(_ context.Context, t domain.Table, id int64, column string, set domain.Row) (int64, error) {
	if err := m.fail.take("increment", t.Name); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.table(t.Name)[id]
	if !ok {
		return 0, nil
	}
	current, _ := entity.CoerceInt(row[column])
	row[column] = current + 1
	for k, v := range set {
		row[k] = v
	}
	return 1, nil
}

func (m *MemoryRelational) Select(_ context.Context, t domain.Table, q domain.Query) ([]domain.Row, error) {
	if err := m.fail.take("select", t.Name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Row
	for _, row := range m.table(t.Name) {
		if matchAll(row, q.Where) {
			out = append(out, row)
		}
	}
	order := q.OrderBy
	if len(order) == 0 {
		order = []domain.Order{{Column: t.IDColumn}}
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range order {
			c := compare(out[i][o.Column], out[j][o.Column])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			out = nil
		} else {
			out = out[q.Offset:]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	result := make([]domain.Row, 0, len(out))
	for _, row := range out {
		if len(q.Columns) == 0 {
			result = append(result, row.Clone())
			continue
		}
		proj := make(domain.Row, len(q.Columns))
		for _, col := range q.Columns {
			proj[col] = row[col]
		}
		result = append(result, proj)
	}
	return result, nil
}

func (m *MemoryRelational) Count(_ context.Context, t domain.Table, where []filter.Item) (int64, error) {
	if err := m.fail.take("count", t.Name); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.table(t.Name) {
		if matchAll(row, where) {
			n++
		}
	}
	return n, nil
}

// --- Documents ---

// MemoryDocuments is a DocumentStore backed by slices.
type MemoryDocuments struct {
	mu    sync.Mutex
	colls map[string][]domain.Document
	fail  failures
}

var _ domain.DocumentStore = (*MemoryDocuments)(nil)

// NewMemoryDocuments creates an empty store.
func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{colls: make(map[string][]domain.Document)}
}

// FailNext makes the next op ("insert", "find", "upsert") on collection fail.
func (m *MemoryDocuments) FailNext(op, collection string, err error) {
	m.fail.set(op, collection, err)
}

// All returns copies of every document in collection.
func (m *MemoryDocuments) All(collection string) []domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Document, 0, len(m.colls[collection]))
	for _, d := range m.colls[collection] {
		out = append(out, d.Clone())
	}
	return out
}

// Remove deletes the documents whose field equals value, simulating a lost write.
func (m *MemoryDocuments) Remove(collection, field string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.colls[collection][:0]
	for _, d := range m.colls[collection] {
		if compare(d[field], value) != 0 {
			kept = append(kept, d)
		}
	}
	m.colls[collection] = kept
}

func (m *MemoryDocuments) NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func (m *MemoryDocuments) Insert(_ context.Context, collection string, doc domain.Document) (string, error) {
	if err := m.fail.take("insert", collection); err != nil {
		return "", err
	}
	d := doc.Clone()
	id, _ := d[domain.DocID].(string)
	if id == "" {
		id = m.NewID()
		d[domain.DocID] = id
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.colls[collection] {
		if existing[domain.DocID] == id {
			return "", fmt.Errorf("duplicate _id %s", id)
		}
	}
	m.colls[collection] = append(m.colls[collection], d)
	return id, nil
}

func (m *MemoryDocuments) FindOne(_ context.Context, collection, field string, value any) (domain.Document, error) {
	if err := m.fail.take("find", collection); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.colls[collection] {
		if compare(d[field], value) == 0 {
			return d.Clone(), nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (m *MemoryDocuments) FindMany(_ context.Context, collection, field string, values []any) ([]domain.Document, error) {
	if err := m.fail.take("find", collection); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for _, d := range m.colls[collection] {
		for _, v := range values {
			if compare(d[field], v) == 0 {
				out = append(out, d.Clone())
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryDocuments) Upsert(_ context.Context, collection, field string, value any, set domain.Document) error {
	if err := m.fail.take("upsert", collection); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.colls[collection] {
		if compare(d[field], value) == 0 {
			for k, v := range set {
				d[k] = v
			}
			return nil
		}
	}
	d := set.Clone()
	d[field] = value
	if _, ok := d[domain.DocID]; !ok {
		d[domain.DocID] = m.NewID()
	}
	m.colls[collection] = append(m.colls[collection], d)
	return nil
}

// --- Predicates ---

func matchAll(row domain.Row, where []filter.Item) bool {
	for _, item := range where {
		if !match(row, item) {
			return false
		}
	}
	return true
}

// match follows SQL semantics: comparisons against NULL are false.
func match(row domain.Row, item filter.Item) bool {
	v := row[item.Field]
	switch item.Operator {
	case filter.IsNull:
		return v == nil
	case filter.IsNotNull:
		return v != nil
	case filter.EqualOrNull:
		return v == nil || compare(v, item.Value) == 0
	}
	if v == nil {
		return false
	}
	switch item.Operator {
	case filter.Equal:
		return compare(v, item.Value) == 0
	case filter.NotEqual:
		return compare(v, item.Value) != 0
	case filter.Less:
		return compare(v, item.Value) < 0
	case filter.LessOrEqual:
		return compare(v, item.Value) <= 0
	case filter.Greater:
		return compare(v, item.Value) > 0
	case filter.GreaterOrEqual:
		return compare(v, item.Value) >= 0
	case filter.InList:
		return inList(v, item.Value)
	case filter.NotInList:
		return !inList(v, item.Value)
	case filter.Contains:
		return strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(fmt.Sprint(item.Value)))
	case filter.NotContains:
		return !strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(fmt.Sprint(item.Value)))
	}
	return false
}

func inList(v, list any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if compare(v, rv.Index(i).Interface()) == 0 {
			return true
		}
	}
	return false
}

// compare orders values of mixed numeric shapes; strings compare lexically.
// NULL sorts before everything.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return strings.Compare(as, bs)
	}
	if ai, ok := entity.CoerceInt(a); ok {
		if bi, ok := entity.CoerceInt(b); ok {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			return 0
		}
	}
	if ad, ok := entity.CoerceDecimal(a); ok {
		if bd, ok := entity.CoerceDecimal(b); ok {
			return ad.Cmp(bd)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

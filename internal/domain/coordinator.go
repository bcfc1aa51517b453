// Package domain implements encrypted dual-store persistence: every entity is a
// relational half and a document half linked by the relational id, with selected
// fields encrypted before they reach either store.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/tx"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

var tracer = otel.Tracer("sos911/coordinator")

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Deps are the collaborators shared by all coordinators.
type Deps struct {
	Relational RelationalStore
	Documents  DocumentStore
	Codec      Codec

	// Tx pairs relational writes with journal rows. Defaults to tx.Passthrough.
	Tx tx.Manager
	// Journal enables recoverable dual writes. Nil keeps best-effort two-phase writes.
	Journal Journal
	// Audit receives committed mutations. Optional.
	Audit AuditLog

	Clock  entity.Clock
	Logger *logger.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Tx == nil {
		d.Tx = tx.Passthrough{}
	}
	if d.Clock == nil {
		d.Clock = entity.SystemClock
	}
	if d.Logger == nil {
		d.Logger = logger.Default()
	}
	return d
}

// ReadOptions tunes Get.
type ReadOptions struct {
	IncludeDeleted bool
}

// ListFilter selects a page of records. Filters apply to plaintext relational columns only.
type ListFilter struct {
	Filters        []filter.Item
	IncludeDeleted bool
	// OrderBy is a column name, prefixed with "-" for descending.
	OrderBy string
	Limit   int
	Offset  int
}

// ListResult contains paginated results.
type ListResult struct {
	Items      []entity.Record `json:"items"`
	TotalCount int64           `json:"totalCount"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// Coordinator runs create, read, update and soft delete for one schema across both stores.
// There is no cross-store transaction: writes are ordered and a failure between them
// leaves the record partially applied, which the optional journal later repairs.
type Coordinator struct {
	schema   *Schema
	deps     Deps
	lookup   *ScanLookup
	counters *CounterUpdater
	hooks    *HookRegistry
	log      *logger.Logger
}

// NewCoordinator creates a coordinator. It panics on an invalid schema: schemas are
// static wiring and a broken one is a programming error.
func NewCoordinator(schema *Schema, deps Deps) *Coordinator {
	if err := schema.Validate(); err != nil {
		panic(err)
	}
	deps = deps.withDefaults()
	return &Coordinator{
		schema:   schema,
		deps:     deps,
		lookup:   NewScanLookup(deps.Relational, deps.Codec),
		counters: NewCounterUpdater(deps.Relational, deps.Clock),
		hooks:    NewHookRegistry(),
		log:      deps.Logger.WithComponent("coordinator").With("entity", schema.Entity),
	}
}

// Schema returns the entity schema.
func (c *Coordinator) Schema() *Schema { return c.schema }

// Lookup returns the scan lookup bound to the coordinator's stores.
func (c *Coordinator) Lookup() *ScanLookup { return c.lookup }

// Hooks returns the hook registry for external registration.
func (c *Coordinator) Hooks() *HookRegistry { return c.hooks }

// Codec returns the field codec.
func (c *Coordinator) Codec() Codec { return c.deps.Codec }

func (c *Coordinator) now() string { return entity.Stamp(c.deps.Clock()) }

func (c *Coordinator) startSpan(ctx context.Context, op string, id int64) (context.Context, trace.Span) {
	return tracer.Start(ctx, c.schema.Entity+"."+op, trace.WithAttributes(
		attribute.String("entity", c.schema.Entity),
		attribute.Int64("record.id", id),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Create validates input, enforces uniqueness, encrypts and writes both halves.
func (c *Coordinator) Create(ctx context.Context, in entity.Fields) (rec entity.Record, err error) {
	ctx, span := c.startSpan(ctx, "create", 0)
	defer func() { endSpan(span, err) }()

	// 1. Validate input before any mutation
	values, _, err := c.validateInput(ctx, in, true)
	if err != nil {
		return entity.Record{}, err
	}
	if err := c.hooks.Run(ctx, BeforeCreate, 0, values); err != nil {
		return entity.Record{}, err
	}

	// 2. Uniqueness among active rows
	if err := c.checkUnique(ctx, values, nil); err != nil {
		return entity.Record{}, err
	}

	// 3. Encrypt and split
	st, err := c.stage(values)
	if err != nil {
		return entity.Record{}, err
	}

	now := c.now()
	status := string(c.schema.InitialStatus)
	st.rel[ColStatus] = status
	st.rel[ColCreatedAt] = now
	st.doc[ColStatus] = status
	st.doc[ColCreatedAt] = now
	st.doc[ColUpdatedAt] = nil

	// 4-5. Write both halves in schema order
	var id int64
	if c.schema.Order == DocumentFirst {
		id, err = c.createDocumentFirst(ctx, st)
	} else {
		id, err = c.createRelationalFirst(ctx, st)
	}
	if err != nil {
		return entity.Record{ID: id}, err
	}
	span.SetAttributes(attribute.Int64("record.id", id))

	// 6. Counter side effects
	c.applyCounters(ctx, st.rel)

	c.audit(ctx, id, OpCreate, st.fields)
	if err := c.hooks.Run(ctx, AfterCreate, id, values); err != nil {
		c.log.WithContext(ctx).Warnw("after-create hook failed", "id", id, "error", err)
	}

	st.rel[c.schema.IDColumn] = id
	return c.compose(st.rel, st.doc), nil
}

func (c *Coordinator) createRelationalFirst(ctx context.Context, st staged) (int64, error) {
	var (
		id       int64
		intentID string
	)
	err := c.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if id, err = c.deps.Relational.Insert(ctx, c.schema.Relational(), st.rel); err != nil {
			return err
		}
		st.doc[c.schema.RefField] = strconv.FormatInt(id, 10)
		if c.deps.Journal != nil {
			intentID, err = c.deps.Journal.Record(ctx, Intent{
				Entity:      c.schema.Entity,
				Operation:   OpCreate,
				State:       StateRelationalCommitted,
				RecordID:    id,
				DocumentRef: strconv.FormatInt(id, 10),
				Document:    st.doc,
			})
		}
		return err
	})
	if err != nil {
		return 0, apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("insert %s: %w", c.schema.Table, err))
	}

	if _, err := c.deps.Documents.Insert(ctx, c.schema.Collection, st.doc); err != nil {
		c.log.WithContext(ctx).Errorw("document insert failed after relational commit",
			"id", id, "collection", c.schema.Collection, "error", err)
		return id, apperror.NewStore(apperror.StoreDocument, true, fmt.Errorf("insert %s document: %w", c.schema.Collection, err)).
			WithDetail("id", id)
	}
	c.advance(ctx, intentID, StateReconciled, id)
	return id, nil
}

func (c *Coordinator) createDocumentFirst(ctx context.Context, st staged) (int64, error) {
	ref := c.deps.Documents.NewID()
	st.doc[DocID] = ref
	st.rel[c.schema.RefField] = ref

	var intentID string
	if c.deps.Journal != nil {
		var err error
		intentID, err = c.deps.Journal.Record(ctx, Intent{
			Entity:      c.schema.Entity,
			Operation:   OpCreate,
			State:       StatePending,
			DocumentRef: ref,
			Document:    st.doc,
			Row:         st.rel,
		})
		if err != nil {
			return 0, apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("record %s intent: %w", c.schema.Entity, err))
		}
	}

	if _, err := c.deps.Documents.Insert(ctx, c.schema.Collection, st.doc); err != nil {
		c.abandon(ctx, intentID, err)
		return 0, apperror.NewStore(apperror.StoreDocument, false, fmt.Errorf("insert %s document: %w", c.schema.Collection, err))
	}
	c.advance(ctx, intentID, StateDocumentCommitted, 0)

	var id int64
	err := c.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if id, err = c.deps.Relational.Insert(ctx, c.schema.Relational(), st.rel); err != nil {
			return err
		}
		if intentID != "" {
			return c.deps.Journal.Advance(ctx, intentID, StateReconciled, id)
		}
		return nil
	})
	if err != nil {
		c.log.WithContext(ctx).Errorw("relational insert failed after document commit",
			"document_id", ref, "table", c.schema.Table, "error", err)
		return 0, apperror.NewStore(apperror.StoreRelational, true, fmt.Errorf("insert %s: %w", c.schema.Table, err)).
			WithDetail("document_id", ref)
	}
	return id, nil
}

// Get returns one record. Deleted records are hidden unless opts.IncludeDeleted.
func (c *Coordinator) Get(ctx context.Context, id int64, opts ReadOptions) (rec entity.Record, err error) {
	ctx, span := c.startSpan(ctx, "get", id)
	defer func() { endSpan(span, err) }()

	row, err := c.loadRow(ctx, id, opts.IncludeDeleted)
	if err != nil {
		return entity.Record{}, err
	}

	var doc Document
	if field, ref, ok := c.schema.refOf(row); ok {
		doc, err = c.deps.Documents.FindOne(ctx, c.schema.Collection, field, ref)
		if errors.Is(err, ErrDocumentNotFound) {
			c.log.WithContext(ctx).Warnw("document half missing", "id", id, "ref", ref)
			doc, err = nil, nil
		}
		if err != nil {
			return entity.Record{}, apperror.NewStore(apperror.StoreDocument, false, fmt.Errorf("get %s document: %w", c.schema.Collection, err))
		}
	}
	return c.compose(row, doc), nil
}

// List returns a page of records with their documents and joins.
func (c *Coordinator) List(ctx context.Context, lf ListFilter) (res ListResult, err error) {
	ctx, span := c.startSpan(ctx, "list", 0)
	defer func() { endSpan(span, err) }()

	where := make([]filter.Item, 0, len(lf.Filters)+1)
	for _, item := range lf.Filters {
		if !c.schema.Filterable(item.Field) {
			return ListResult{}, apperror.NewFieldValidation(item.Field, "field cannot be filtered")
		}
		if err := item.Validate(); err != nil {
			return ListResult{}, apperror.NewFieldValidation(item.Field, err.Error())
		}
		where = append(where, item)
	}
	if !lf.IncludeDeleted {
		where = append(where, filter.Ne(ColStatus, string(entity.StatusDeleted)))
	}

	order, err := c.parseOrder(lf.OrderBy)
	if err != nil {
		return ListResult{}, err
	}

	limit := lf.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := max(lf.Offset, 0)
	res = ListResult{Limit: limit, Offset: offset, Items: []entity.Record{}}

	table := c.schema.Relational()
	if res.TotalCount, err = c.deps.Relational.Count(ctx, table, where); err != nil {
		return ListResult{}, apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("count %s: %w", c.schema.Table, err))
	}
	rows, err := c.deps.Relational.Select(ctx, table, Query{Where: where, OrderBy: order, Limit: limit, Offset: offset})
	if err != nil {
		return ListResult{}, apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("list %s: %w", c.schema.Table, err))
	}

	docs, err := c.loadDocuments(ctx, rows)
	if err != nil {
		return ListResult{}, err
	}
	for _, row := range rows {
		var doc Document
		if _, ref, ok := c.schema.refOf(row); ok {
			doc = docs[ref]
		}
		res.Items = append(res.Items, c.compose(row, doc))
	}
	if err := c.loadJoins(ctx, rows, res.Items); err != nil {
		return ListResult{}, err
	}
	return res, nil
}

// ListOwned lists records whose owner column equals ownerID.
func (c *Coordinator) ListOwned(ctx context.Context, ownerID int64, lf ListFilter) (ListResult, error) {
	if c.schema.OwnerField == "" {
		return ListResult{}, apperror.NewForbidden(c.schema.Entity + " has no owner")
	}
	lf.Filters = append(append([]filter.Item(nil), lf.Filters...), filter.Eq(c.schema.OwnerField, ownerID))
	return c.List(ctx, lf)
}

func (c *Coordinator) parseOrder(orderBy string) ([]Order, error) {
	if orderBy == "" {
		return []Order{{Column: ColCreatedAt, Desc: true}, {Column: c.schema.IDColumn, Desc: true}}, nil
	}
	desc := strings.HasPrefix(orderBy, "-")
	col := strings.TrimPrefix(orderBy, "-")
	if !c.schema.Filterable(col) {
		return nil, apperror.NewFieldValidation(col, "field cannot be used for ordering")
	}
	return []Order{{Column: col, Desc: desc}, {Column: c.schema.IDColumn, Desc: desc}}, nil
}

// Update rewrites only the fields present in the request plus the modification stamp.
func (c *Coordinator) Update(ctx context.Context, id int64, in entity.Fields) (rec entity.Record, err error) {
	ctx, span := c.startSpan(ctx, "update", id)
	defer func() { endSpan(span, err) }()

	if len(in) == 0 {
		return entity.Record{}, apperror.NewValidation("no fields to update")
	}

	// 1. Validate input and load the current active row
	values, status, err := c.validateInput(ctx, in, false)
	if err != nil {
		return entity.Record{}, err
	}
	current, err := c.loadRow(ctx, id, false)
	if err != nil {
		return entity.Record{}, err
	}
	if status != nil {
		if err := c.checkTransition(entity.Status(current.GetString(ColStatus)), *status); err != nil {
			return entity.Record{}, err
		}
	}
	if err := c.hooks.Run(ctx, BeforeUpdate, id, values); err != nil {
		return entity.Record{}, err
	}

	// 2. Uniqueness excluding this record
	if err := c.checkUnique(ctx, values, &id); err != nil {
		return entity.Record{}, err
	}

	// 3. Stage the change and append the modification stamp
	st, err := c.stage(values)
	if err != nil {
		return entity.Record{}, err
	}
	now := c.now()
	if status != nil {
		st.rel[ColStatus] = string(*status)
		st.doc[ColStatus] = string(*status)
		st.fields = append(st.fields, ColStatus)
	}
	if len(st.rel) > 0 {
		st.rel[ColUpdatedAt] = now
	}
	st.doc[ColUpdatedAt] = now

	// 4. Write both halves in schema order
	_, ref, _ := c.schema.refOf(current)
	if c.schema.Order == DocumentFirst {
		err = c.mirrorDocumentFirst(ctx, OpUpdate, id, ref, st.rel, st.doc)
	} else {
		err = c.mirrorRelationalFirst(ctx, OpUpdate, id, ref, st.rel, st.doc)
	}
	if err != nil {
		return entity.Record{}, err
	}

	c.audit(ctx, id, OpUpdate, st.fields)
	if err := c.hooks.Run(ctx, AfterUpdate, id, values); err != nil {
		c.log.WithContext(ctx).Warnw("after-update hook failed", "id", id, "error", err)
	}
	return c.Get(ctx, id, ReadOptions{})
}

func (c *Coordinator) checkTransition(from, to entity.Status) error {
	if to == entity.StatusDeleted {
		return apperror.NewFieldValidation(ColStatus, "use delete to remove a record")
	}
	if from == to {
		return nil
	}
	if !c.schema.Transitions.Allows(from, to) {
		return apperror.NewFieldValidation(ColStatus, fmt.Sprintf("transition %s -> %s is not allowed", from, to)).
			WithDetail("from", from).
			WithDetail("to", to)
	}
	return nil
}

// Delete marks the record eliminado on both halves. Deleting twice is NotFound.
func (c *Coordinator) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := c.startSpan(ctx, "delete", id)
	defer func() { endSpan(span, err) }()

	now := c.now()
	set := Row{ColStatus: string(entity.StatusDeleted), ColUpdatedAt: now}
	docSet := Document{ColStatus: string(entity.StatusDeleted), ColUpdatedAt: now}

	if c.schema.Order == DocumentFirst {
		current, err := c.loadRow(ctx, id, false)
		if err != nil {
			return err
		}
		_, ref, _ := c.schema.refOf(current)
		err = c.mirrorDocumentFirst(ctx, OpDelete, id, ref, set, docSet)
		if err != nil {
			return err
		}
	} else {
		err = c.mirrorRelationalFirst(ctx, OpDelete, id, strconv.FormatInt(id, 10), set, docSet)
		if err != nil {
			return err
		}
	}

	c.audit(ctx, id, OpDelete, []string{ColStatus})
	if err := c.hooks.Run(ctx, AfterDelete, id, nil); err != nil {
		c.log.WithContext(ctx).Warnw("after-delete hook failed", "id", id, "error", err)
	}
	return nil
}

// mirrorRelationalFirst applies set to the active row, then docSet to its document.
func (c *Coordinator) mirrorRelationalFirst(ctx context.Context, op Operation, id int64, ref string, set Row, docSet Document) error {
	var intentID string
	err := c.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if len(set) > 0 {
			n, err := c.deps.Relational.Update(ctx, c.schema.Relational(), set, c.activeRow(id))
			if err != nil {
				return apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("update %s: %w", c.schema.Table, err))
			}
			if n == 0 {
				return apperror.NewNotFound(c.schema.Entity, id)
			}
		}
		if c.deps.Journal == nil {
			return nil
		}
		var err error
		intentID, err = c.deps.Journal.Record(ctx, Intent{
			Entity:      c.schema.Entity,
			Operation:   op,
			State:       StateRelationalCommitted,
			RecordID:    id,
			DocumentRef: ref,
			Document:    docSet,
		})
		if err != nil {
			return apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("record %s intent: %w", c.schema.Entity, err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := c.deps.Documents.Upsert(ctx, c.schema.Collection, c.schema.RefField, ref, docSet); err != nil {
		c.log.WithContext(ctx).Errorw("document write failed after relational commit",
			"id", id, "operation", op, "error", err)
		return apperror.NewStore(apperror.StoreDocument, len(set) > 0, fmt.Errorf("%s %s document: %w", op, c.schema.Collection, err)).
			WithDetail("id", id)
	}
	c.advance(ctx, intentID, StateReconciled, id)
	return nil
}

// mirrorDocumentFirst applies docSet to the document, then set to the relational row.
func (c *Coordinator) mirrorDocumentFirst(ctx context.Context, op Operation, id int64, ref string, set Row, docSet Document) error {
	var intentID string
	if c.deps.Journal != nil {
		var err error
		intentID, err = c.deps.Journal.Record(ctx, Intent{
			Entity:      c.schema.Entity,
			Operation:   op,
			State:       StatePending,
			RecordID:    id,
			DocumentRef: ref,
			Document:    docSet,
			Row:         set,
		})
		if err != nil {
			return apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("record %s intent: %w", c.schema.Entity, err))
		}
	}

	if err := c.deps.Documents.Upsert(ctx, c.schema.Collection, DocID, ref, docSet); err != nil {
		c.abandon(ctx, intentID, err)
		return apperror.NewStore(apperror.StoreDocument, false, fmt.Errorf("%s %s document: %w", op, c.schema.Collection, err))
	}
	c.advance(ctx, intentID, StateDocumentCommitted, id)

	if len(set) == 0 {
		c.advance(ctx, intentID, StateReconciled, id)
		return nil
	}
	err := c.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := c.deps.Relational.Update(ctx, c.schema.Relational(), set, c.activeRow(id))
		if err != nil {
			return apperror.NewStore(apperror.StoreRelational, true, fmt.Errorf("update %s: %w", c.schema.Table, err))
		}
		if n == 0 {
			return apperror.NewNotFound(c.schema.Entity, id)
		}
		if intentID != "" {
			return c.deps.Journal.Advance(ctx, intentID, StateReconciled, id)
		}
		return nil
	})
	if err != nil {
		c.log.WithContext(ctx).Errorw("relational write failed after document commit",
			"id", id, "operation", op, "error", err)
	}
	return err
}

func (c *Coordinator) activeRow(id int64) []filter.Item {
	return []filter.Item{
		filter.Eq(c.schema.IDColumn, id),
		filter.Ne(ColStatus, string(entity.StatusDeleted)),
	}
}

// Row returns the raw active relational half with ciphertext intact.
func (c *Coordinator) Row(ctx context.Context, id int64) (Row, error) {
	return c.loadRow(ctx, id, false)
}

// loadRow fetches the relational half or returns NotFound.
func (c *Coordinator) loadRow(ctx context.Context, id int64, includeDeleted bool) (Row, error) {
	where := []filter.Item{filter.Eq(c.schema.IDColumn, id)}
	if !includeDeleted {
		where = append(where, filter.Ne(ColStatus, string(entity.StatusDeleted)))
	}
	rows, err := c.deps.Relational.Select(ctx, c.schema.Relational(), Query{Where: where, Limit: 1})
	if err != nil {
		return nil, apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("get %s: %w", c.schema.Table, err))
	}
	if len(rows) == 0 {
		return nil, apperror.NewNotFound(c.schema.Entity, id)
	}
	return rows[0], nil
}

// applyCounters runs the create side effects. Failures are logged, never surfaced:
// the record itself is already committed.
func (c *Coordinator) applyCounters(ctx context.Context, row Row) {
	runCounters(ctx, c.schema, c.counters, row, c.log)
}

func runCounters(ctx context.Context, s *Schema, counters *CounterUpdater, row Row, log *logger.Logger) {
	for _, ctr := range s.Counters {
		target, ok := entity.CoerceInt(row[ctr.Field])
		if !ok {
			continue
		}
		if err := counters.Increment(ctx, ctr.Target.Relational(), target, ctr.Column); err != nil {
			log.WithContext(ctx).Warnw("counter increment failed",
				"table", ctr.Target.Table, "column", ctr.Column, "target_id", target, "error", err)
		}
	}
}

func (c *Coordinator) advance(ctx context.Context, intentID string, state WriteState, id int64) {
	if intentID == "" {
		return
	}
	if err := c.deps.Journal.Advance(ctx, intentID, state, id); err != nil {
		c.log.WithContext(ctx).Warnw("journal advance failed", "intent", intentID, "state", state, "error", err)
	}
}

// abandon marks an intent whose first write never happened.
func (c *Coordinator) abandon(ctx context.Context, intentID string, cause error) {
	if intentID == "" {
		return
	}
	if err := c.deps.Journal.Advance(ctx, intentID, StateFailed, 0); err != nil {
		c.log.WithContext(ctx).Warnw("journal abandon failed", "intent", intentID, "cause", cause, "error", err)
	}
}

func (c *Coordinator) audit(ctx context.Context, id int64, op Operation, fields []string) {
	if c.deps.Audit == nil {
		return
	}
	err := c.deps.Audit.Log(ctx, AuditEntry{
		Entity:   c.schema.Entity,
		RecordID: id,
		Action:   op,
		Fields:   fields,
		UserID:   appctx.GetUserID(ctx),
	})
	if err != nil {
		c.log.WithContext(ctx).Warnw("audit log failed", "id", id, "operation", op, "error", err)
	}
}

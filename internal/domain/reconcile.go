package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

// DefaultLease is how long a claimed intent stays invisible to other workers.
const DefaultLease = 2 * time.Minute

// Reconciler finishes dual writes that stopped halfway, replaying journal intents
// and repairing drift found by sweeping the relational store.
type Reconciler struct {
	deps         Deps
	coordinators map[string]*Coordinator
	counters     *CounterUpdater
	lease        time.Duration
	log          *logger.Logger
}

// NewReconciler creates a reconciler for the given schemas.
func NewReconciler(deps Deps, schemas ...*Schema) *Reconciler {
	deps = deps.withDefaults()
	r := &Reconciler{
		deps:         deps,
		coordinators: make(map[string]*Coordinator, len(schemas)),
		counters:     NewCounterUpdater(deps.Relational, deps.Clock),
		lease:        DefaultLease,
		log:          deps.Logger.WithComponent("reconciler"),
	}
	for _, s := range schemas {
		r.coordinators[s.Entity] = NewCoordinator(s, deps)
	}
	return r
}

// WithLease overrides the claim lease.
func (r *Reconciler) WithLease(d time.Duration) *Reconciler {
	r.lease = d
	return r
}

// BatchResult summarises one ProcessBatch call.
type BatchResult struct {
	Claimed    int
	Reconciled int
	Retried    int
}

// ProcessBatch claims up to limit unfinished intents and drives each to reconciled.
// A failing intent is rescheduled; the journal marks it failed after too many attempts.
func (r *Reconciler) ProcessBatch(ctx context.Context, limit int) (BatchResult, error) {
	if r.deps.Journal == nil {
		return BatchResult{}, errors.New("reconciler: no journal configured")
	}
	intents, err := r.deps.Journal.Claim(ctx, limit, r.lease)
	if err != nil {
		return BatchResult{}, fmt.Errorf("claim intents: %w", err)
	}

	res := BatchResult{Claimed: len(intents)}
	for _, in := range intents {
		if err := r.apply(ctx, in); err != nil {
			r.log.WithContext(ctx).Warnw("intent replay failed",
				"intent", in.ID, "entity", in.Entity, "operation", in.Operation, "state", in.State,
				"attempts", in.Attempts, "error", err)
			if rerr := r.deps.Journal.Retry(ctx, in.ID, err); rerr != nil {
				return res, fmt.Errorf("reschedule intent %s: %w", in.ID, rerr)
			}
			res.Retried++
			continue
		}
		res.Reconciled++
	}
	return res, nil
}

func (r *Reconciler) apply(ctx context.Context, in Intent) error {
	c, ok := r.coordinators[in.Entity]
	if !ok {
		return fmt.Errorf("unknown entity %q", in.Entity)
	}
	s := c.schema
	later, err := r.deps.Journal.Newer(ctx, in)
	if err != nil {
		return fmt.Errorf("load newer intents: %w", err)
	}
	doc := s.restore(s.withoutSuperseded(in.Document, later, func(l Intent) entity.Fields { return l.Document }))
	row := s.restore(in.Row)
	if in.Operation != OpCreate {
		row = s.restore(s.withoutSuperseded(in.Row, later, func(l Intent) entity.Fields { return l.Row }))
	}
	merge := len(later) > 0

	if s.Order == RelationalFirst {
		if in.State != StateRelationalCommitted {
			return fmt.Errorf("unexpected state %s for %s", in.State, s.Entity)
		}
		if err := r.ensureDocument(ctx, s, in.Operation, s.RefField, in.DocumentRef, doc, merge); err != nil {
			return err
		}
		return r.deps.Journal.Advance(ctx, in.ID, StateReconciled, in.RecordID)
	}

	if in.State == StatePending {
		if err := r.ensureDocument(ctx, s, in.Operation, DocID, in.DocumentRef, doc, merge); err != nil {
			return err
		}
		if err := r.deps.Journal.Advance(ctx, in.ID, StateDocumentCommitted, in.RecordID); err != nil {
			return err
		}
		in.State = StateDocumentCommitted
	}
	if in.State != StateDocumentCommitted {
		return fmt.Errorf("unexpected state %s for %s", in.State, s.Entity)
	}

	if in.Operation == OpCreate {
		return r.finishDocumentFirstCreate(ctx, in, s, row)
	}
	return r.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		if len(row) > 0 {
			// Zero rows means the record was deleted meanwhile; nothing left to mirror.
			if _, err := r.deps.Relational.Update(ctx, s.Relational(), row, []filter.Item{
				filter.Eq(s.IDColumn, in.RecordID),
			}); err != nil {
				return err
			}
		}
		return r.deps.Journal.Advance(ctx, in.ID, StateReconciled, in.RecordID)
	})
}

// withoutSuperseded drops every key that a later intent on the same record also
// writes, so a replay never puts back an older value. Identity keys are kept.
func (s *Schema) withoutSuperseded(values entity.Fields, later []Intent, pick func(Intent) entity.Fields) entity.Fields {
	if len(later) == 0 || values == nil {
		return values
	}
	out := values.Clone()
	for _, l := range later {
		for k := range pick(l) {
			switch k {
			case DocID, s.RefField, ColCreatedAt:
				continue
			}
			delete(out, k)
		}
	}
	return out
}

// ensureDocument makes the document write of an intent happen exactly once in effect.
// A create whose document already exists is merged into it when newer intents
// may have created that document first.
func (r *Reconciler) ensureDocument(ctx context.Context, s *Schema, op Operation, field, ref string, doc Document, merge bool) error {
	if op != OpCreate {
		return r.deps.Documents.Upsert(ctx, s.Collection, field, ref, doc)
	}
	_, err := r.deps.Documents.FindOne(ctx, s.Collection, field, ref)
	if err == nil {
		if merge {
			return r.deps.Documents.Upsert(ctx, s.Collection, field, ref, doc)
		}
		return nil
	}
	if !errors.Is(err, ErrDocumentNotFound) {
		return err
	}
	_, err = r.deps.Documents.Insert(ctx, s.Collection, doc)
	return err
}

func (r *Reconciler) finishDocumentFirstCreate(ctx context.Context, in Intent, s *Schema, row Row) error {
	existing, err := r.deps.Relational.Select(ctx, s.Relational(), Query{
		Columns: []string{s.IDColumn},
		Where:   []filter.Item{filter.Eq(s.RefField, in.DocumentRef)},
		Limit:   1,
	})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		id, _ := entity.CoerceInt(existing[0][s.IDColumn])
		return r.deps.Journal.Advance(ctx, in.ID, StateReconciled, id)
	}

	var id int64
	err = r.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if id, err = r.deps.Relational.Insert(ctx, s.Relational(), row); err != nil {
			return err
		}
		return r.deps.Journal.Advance(ctx, in.ID, StateReconciled, id)
	})
	if err != nil {
		return err
	}
	runCounters(ctx, s, r.counters, row, r.log)
	r.log.WithContext(ctx).Infow("relational half restored", "entity", s.Entity, "id", id, "document_id", in.DocumentRef)
	return nil
}

// SweepReport summarises one Sweep.
type SweepReport struct {
	Scanned          int
	CreatedDocuments int
	RealignedStatus  int
	// MissingPrimary counts relational rows whose document-first half is gone.
	// Its content cannot be rebuilt from the relational side.
	MissingPrimary int
}

// Sweep walks every relational row of entity, recreates missing document halves
// and copies the relational status onto documents that drifted from it.
// The relational half is the source of truth for status.
func (r *Reconciler) Sweep(ctx context.Context, entityName string, batch int) (SweepReport, error) {
	c, ok := r.coordinators[entityName]
	if !ok {
		return SweepReport{}, fmt.Errorf("unknown entity %q", entityName)
	}
	if batch <= 0 {
		batch = defaultScanPage
	}
	s := c.schema

	var (
		report SweepReport
		lastID int64
	)
	for {
		rows, err := r.deps.Relational.Select(ctx, s.Relational(), Query{
			Where:   []filter.Item{{Field: s.IDColumn, Operator: filter.Greater, Value: lastID}},
			OrderBy: []Order{{Column: s.IDColumn}},
			Limit:   batch,
		})
		if err != nil {
			return report, fmt.Errorf("sweep %s: %w", s.Table, err)
		}
		docs, err := c.loadDocuments(ctx, rows)
		if err != nil {
			return report, err
		}

		for _, row := range rows {
			report.Scanned++
			lastID, _ = entity.CoerceInt(row[s.IDColumn])
			field, ref, ok := s.refOf(row)
			if !ok {
				continue
			}
			status := row.GetString(ColStatus)
			doc, found := docs[ref]

			switch {
			case !found && s.Order == DocumentFirst:
				report.MissingPrimary++
				r.log.WithContext(ctx).Warnw("document half missing and cannot be rebuilt",
					"entity", s.Entity, "id", lastID, "document_id", ref)
			case !found:
				stub := Document{
					s.RefField:   ref,
					ColStatus:    status,
					ColCreatedAt: row.GetString(ColCreatedAt),
					ColUpdatedAt: row[ColUpdatedAt],
				}
				if _, err := r.deps.Documents.Insert(ctx, s.Collection, stub); err != nil {
					return report, fmt.Errorf("recreate %s document %s: %w", s.Collection, ref, err)
				}
				report.CreatedDocuments++
			case doc.GetString(ColStatus) != status:
				set := Document{ColStatus: status, ColUpdatedAt: row[ColUpdatedAt]}
				if err := r.deps.Documents.Upsert(ctx, s.Collection, field, ref, set); err != nil {
					return report, fmt.Errorf("realign %s document %s: %w", s.Collection, ref, err)
				}
				report.RealignedStatus++
			}
		}
		if len(rows) < batch {
			return report, nil
		}
	}
}

// restore converts values decoded from a journal payload back to the shapes
// the stores expect: json.Number becomes int64 or decimal per the field kind.
func (s *Schema) restore(values entity.Fields) entity.Fields {
	if values == nil {
		return nil
	}
	out := values.Clone()
	for name, v := range out {
		if v == nil {
			continue
		}
		f, ok := s.Field(name)
		if !ok {
			if name == s.IDColumn {
				if n, ok := entity.CoerceInt(v); ok {
					out[name] = n
				}
			}
			continue
		}
		switch f.Kind {
		case KindInt:
			if n, ok := entity.CoerceInt(v); ok {
				out[name] = n
			}
		case KindDecimal:
			if d, ok := entity.CoerceDecimal(v); ok {
				out[name] = d
			}
		}
	}
	if ref, ok := out[s.RefField]; ok && s.Order == RelationalFirst {
		if n, ok := entity.CoerceInt(ref); ok {
			out[s.RefField] = strconv.FormatInt(n, 10)
		}
	}
	return out
}

package domaintest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

// MaxAttempts is the retry budget before an intent is marked failed.
const MaxAttempts = 5

type journalEntry struct {
	intent     domain.Intent
	seq        int
	availAfter time.Time
}

// MemoryJournal is a Journal kept in memory. It ignores transactions.
type MemoryJournal struct {
	mu      sync.Mutex
	entries map[string]*journalEntry
	seq     int
	now     func() time.Time
}

var _ domain.Journal = (*MemoryJournal)(nil)

// NewMemoryJournal creates an empty journal using clock for leases.
func NewMemoryJournal(clock func() time.Time) *MemoryJournal {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryJournal{entries: make(map[string]*journalEntry), now: clock}
}

func (j *MemoryJournal) Record(_ context.Context, in domain.Intent) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++
	in.ID = uuid.NewString()
	in.Document = in.Document.Clone()
	in.Row = in.Row.Clone()
	j.entries[in.ID] = &journalEntry{intent: in, seq: j.seq}
	return in.ID, nil
}

func (j *MemoryJournal) Advance(_ context.Context, id string, state domain.WriteState, recordID int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[id]
	if !ok {
		return fmt.Errorf("intent %s not found", id)
	}
	e.intent.State = state
	if recordID != 0 {
		e.intent.RecordID = recordID
	}
	return nil
}

func (j *MemoryJournal) Claim(_ context.Context, limit int, lease time.Duration) ([]domain.Intent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.now()

	var ready []*journalEntry
	for _, e := range j.entries {
		if !open(e.intent.State) || e.availAfter.After(now) {
			continue
		}
		ready = append(ready, e)
	}
	sort.Slice(ready, func(a, b int) bool { return ready[a].seq < ready[b].seq })
	if limit > 0 && len(ready) > limit {
		ready = ready[:limit]
	}

	out := make([]domain.Intent, 0, len(ready))
	for _, e := range ready {
		e.availAfter = now.Add(lease)
		e.intent.Attempts++
		out = append(out, e.intent)
	}
	return out, nil
}

func (j *MemoryJournal) Retry(_ context.Context, id string, cause error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[id]
	if !ok {
		return fmt.Errorf("intent %s not found", id)
	}
	e.intent.LastError = cause.Error()
	if e.intent.Attempts >= MaxAttempts {
		e.intent.State = domain.StateFailed
		return nil
	}
	e.availAfter = j.now().Add(time.Duration(e.intent.Attempts) * time.Second)
	return nil
}

func (j *MemoryJournal) Newer(_ context.Context, in domain.Intent) ([]domain.Intent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	self, ok := j.entries[in.ID]
	if !ok {
		return nil, fmt.Errorf("intent %s not found", in.ID)
	}
	var later []*journalEntry
	for _, e := range j.entries {
		if e.seq <= self.seq || e.intent.State == domain.StateFailed {
			continue
		}
		if e.intent.Entity == in.Entity && e.intent.DocumentRef == in.DocumentRef {
			later = append(later, e)
		}
	}
	sort.Slice(later, func(a, b int) bool { return later[a].seq < later[b].seq })
	out := make([]domain.Intent, 0, len(later))
	for _, e := range later {
		out = append(out, e.intent)
	}
	return out, nil
}

// Intents returns every recorded intent in recording order.
func (j *MemoryJournal) Intents() []domain.Intent {
	j.mu.Lock()
	defer j.mu.Unlock()
	entries := make([]*journalEntry, 0, len(j.entries))
	for _, e := range j.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].seq < entries[b].seq })
	out := make([]domain.Intent, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.intent)
	}
	return out
}

func open(s domain.WriteState) bool {
	switch s {
	case domain.StatePending, domain.StateRelationalCommitted, domain.StateDocumentCommitted:
		return true
	}
	return false
}

// MemoryAudit collects audit entries.
type MemoryAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *MemoryAudit) Log(_ context.Context, entry domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

// Entries returns the collected entries.
func (a *MemoryAudit) Entries() []domain.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AuditEntry(nil), a.entries...)
}

// Clock is a settable clock for deterministic stamps.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock creates a clock at t.
func NewClock(t time.Time) *Clock { return &Clock{t: t} }

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

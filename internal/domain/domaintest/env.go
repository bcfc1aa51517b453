package domaintest

import (
	"bytes"
	"testing"
	"time"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/crypto"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/pkg/logger"
)

// Env wires in-memory stores, a real codec and a fake clock.
type Env struct {
	Relational *MemoryRelational
	Documents  *MemoryDocuments
	Journal    *MemoryJournal
	Audit      *MemoryAudit
	Clock      *Clock
	Codec      *crypto.Codec
}

// NewEnv creates an environment whose codec is released when t finishes.
func NewEnv(t testing.TB) *Env {
	t.Helper()
	codec, err := crypto.NewCodec(TestKey(1))
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	t.Cleanup(codec.Close)

	clock := NewClock(time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local))
	return &Env{
		Relational: NewMemoryRelational(),
		Documents:  NewMemoryDocuments(),
		Journal:    NewMemoryJournal(clock.Now),
		Audit:      &MemoryAudit{},
		Clock:      clock,
		Codec:      codec,
	}
}

// Deps returns coordinator dependencies without a journal.
func (e *Env) Deps() domain.Deps {
	return domain.Deps{
		Relational: e.Relational,
		Documents:  e.Documents,
		Codec:      e.Codec,
		Audit:      e.Audit,
		Clock:      e.Clock.Now,
		Logger:     logger.Nop(),
	}
}

// JournaledDeps returns coordinator dependencies with the memory journal.
func (e *Env) JournaledDeps() domain.Deps {
	d := e.Deps()
	d.Journal = e.Journal
	return d
}

// TestKey returns a deterministic 32-byte master key.
func TestKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, crypto.MasterKeySize)
}

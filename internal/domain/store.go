package domain

import (
	"context"
	"errors"
	"time"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
)

// Row is one relational half keyed by column name.
type Row = entity.Fields

// Document is one document half keyed by field name.
type Document = entity.Fields

// ErrDocumentNotFound is returned by DocumentStore lookups that match nothing.
var ErrDocumentNotFound = errors.New("document not found")

// Table names a relational table and its generated id column.
type Table struct {
	Name     string
	IDColumn string
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Query selects relational rows. Nil Columns selects every column.
type Query struct {
	Columns []string
	Where   []filter.Item
	OrderBy []Order
	Limit   int
	Offset  int
}

// RelationalStore persists relational halves. The store assigns ids on insert.
type RelationalStore interface {
	// Insert writes row and returns the generated id.
	Insert(ctx context.Context, t Table, row Row) (int64, error)

	// Update applies set to every row matching where and returns the affected count.
	Update(ctx context.Context, t Table, set Row, where []filter.Item) (int64, error)

	// Increment runs column = COALESCE(column, 0) + 1 plus set on one row as a single statement.
	Increment(ctx context.Context, t Table, id int64, column string, set Row) (int64, error)

	Select(ctx context.Context, t Table, q Query) ([]Row, error)
	Count(ctx context.Context, t Table, where []filter.Item) (int64, error)
}

// DocumentStore persists document halves. Every document has a string _id.
type DocumentStore interface {
	// NewID returns a fresh document id, used when the id must be known before the insert.
	NewID() string

	// Insert writes doc and returns its _id. A missing _id is generated.
	Insert(ctx context.Context, collection string, doc Document) (string, error)

	// FindOne returns the first document whose field equals value or ErrDocumentNotFound.
	FindOne(ctx context.Context, collection, field string, value any) (Document, error)

	// FindMany returns every document whose field is one of values.
	FindMany(ctx context.Context, collection, field string, values []any) ([]Document, error)

	// Upsert applies $set to the document whose field equals value, inserting it when absent.
	Upsert(ctx context.Context, collection, field string, value any, set Document) error
}

// Codec protects sensitive field values.
type Codec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
	SafeDecrypt(ciphertext string) string
	BlindIndex(field, value string) string
}

// WriteState is the position of one dual write in its lifecycle.
type WriteState string

const (
	StatePending             WriteState = "pending"
	StateRelationalCommitted WriteState = "relational_committed"
	StateDocumentCommitted   WriteState = "document_committed"
	StateReconciled          WriteState = "reconciled"
	StateFailed              WriteState = "failed"
)

// Operation is the coordinator operation an intent belongs to.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Intent records a dual write so a reconciler can finish it after a partial failure.
type Intent struct {
	ID          string
	Entity      string
	Operation   Operation
	State       WriteState
	RecordID    int64
	DocumentRef string
	Document    Document
	Row         Row
	Attempts    int
	LastError   string
}

// Journal stores intents. Record joins the relational transaction carried by ctx.
type Journal interface {
	Record(ctx context.Context, in Intent) (string, error)
	Advance(ctx context.Context, id string, state WriteState, recordID int64) error
	Claim(ctx context.Context, limit int, lease time.Duration) ([]Intent, error)
	Retry(ctx context.Context, id string, cause error) error
	// Newer returns the intents recorded after in for the same entity and document,
	// oldest first. Failed intents are left out.
	Newer(ctx context.Context, in Intent) ([]Intent, error)
}

// AuditEntry describes one committed mutation. Only field names are kept, never values.
type AuditEntry struct {
	Entity   string
	RecordID int64
	Action   Operation
	Fields   []string
	UserID   string
}

// AuditLog stores audit entries.
type AuditLog interface {
	Log(ctx context.Context, entry AuditEntry) error
}

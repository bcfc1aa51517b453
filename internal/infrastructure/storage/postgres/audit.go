package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

var _ domain.AuditLog = (*AuditLog)(nil)

// AuditLog writes committed mutations to sys_audit. Entries name the touched
// fields and never carry their values.
type AuditLog struct {
	txm *TxManager
}

// NewAuditLog creates an audit log.
func NewAuditLog(txm *TxManager) *AuditLog {
	return &AuditLog{txm: txm}
}

// Log implements domain.AuditLog.
func (a *AuditLog) Log(ctx context.Context, entry domain.AuditEntry) error {
	fields, err := json.Marshal(entry.Fields)
	if err != nil {
		return fmt.Errorf("marshal audit fields: %w", err)
	}
	_, err = a.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (id, entity_type, entity_id, action, user_id, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), entry.Entity, entry.RecordID, string(entry.Action), entry.UserID, fields, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// AuditRecord is one stored audit entry.
type AuditRecord struct {
	ID         string          `db:"id" json:"id"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   int64           `db:"entity_id" json:"entityId"`
	Action     string          `db:"action" json:"action"`
	UserID     string          `db:"user_id" json:"userId"`
	Fields     json.RawMessage `db:"fields" json:"fields"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// History returns the newest audit entries of one record.
func (a *AuditLog) History(ctx context.Context, entityType string, entityID int64, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []AuditRecord
	err := pgxscan.Select(ctx, a.txm.GetQuerier(ctx), &out, `
		SELECT id, entity_type, entity_id, action, user_id, fields, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	return out, nil
}

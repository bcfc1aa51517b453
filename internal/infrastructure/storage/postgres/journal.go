package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

// MaxJournalAttempts is the retry budget before an intent is marked failed.
const MaxJournalAttempts = 5

// CompressionAlgo names the encoding of a stored payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

var _ domain.Journal = (*Journal)(nil)

// Journal keeps dual-write intents in sys_dual_write.
//
// Record runs on the querier in ctx, so the intent commits or rolls back together
// with the relational write it describes. Fresh intents stay invisible to Claim for
// a grace period so the reconciler does not race the coordinator that created them.
type Journal struct {
	txm               *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
	grace             time.Duration
}

// NewJournal creates a journal. Payloads larger than 8 KiB are stored zstd-compressed.
func NewJournal(txm *TxManager, grace time.Duration) (*Journal, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Journal{
		txm:               txm,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 8 * 1024,
		grace:             grace,
	}, nil
}

type intentPayload struct {
	Document domain.Document `json:"document,omitempty"`
	Row      domain.Row      `json:"row,omitempty"`
}

func (j *Journal) encodePayload(in domain.Intent) ([]byte, CompressionAlgo, error) {
	raw, err := json.Marshal(intentPayload{Document: in.Document, Row: in.Row})
	if err != nil {
		return nil, "", fmt.Errorf("marshal intent payload: %w", err)
	}
	if len(raw) > j.compressThreshold {
		return j.encoder.EncodeAll(raw, nil), CompressionZstd, nil
	}
	return raw, CompressionNone, nil
}

func (j *Journal) decodePayload(data []byte, algo CompressionAlgo) (intentPayload, error) {
	var p intentPayload
	if algo == CompressionZstd {
		var err error
		if data, err = j.decoder.DecodeAll(data, nil); err != nil {
			return p, fmt.Errorf("decompress intent payload: %w", err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("unmarshal intent payload: %w", err)
	}
	return p, nil
}

// Record implements domain.Journal.
func (j *Journal) Record(ctx context.Context, in domain.Intent) (string, error) {
	payload, algo, err := j.encodePayload(in)
	if err != nil {
		return "", err
	}
	if in.State == "" {
		in.State = domain.StatePending
	}
	id := uuid.NewString()
	_, err = j.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_dual_write (
			id, entity, operation, state, record_id, document_ref,
			payload, compression_algo, attempts, next_attempt_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NOW() + make_interval(secs => $9), NOW(), NOW())
	`, id, in.Entity, string(in.Operation), string(in.State), in.RecordID, in.DocumentRef,
		payload, string(algo), j.grace.Seconds())
	if err != nil {
		return "", fmt.Errorf("insert intent: %w", err)
	}
	return id, nil
}

// Advance implements domain.Journal. A zero recordID keeps the stored one.
func (j *Journal) Advance(ctx context.Context, id string, state domain.WriteState, recordID int64) error {
	tag, err := j.txm.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_dual_write
		SET state = $2,
		    record_id = CASE WHEN $3::BIGINT = 0 THEN record_id ELSE $3::BIGINT END,
		    updated_at = NOW()
		WHERE id = $1
	`, id, string(state), recordID)
	if err != nil {
		return fmt.Errorf("advance intent %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("intent %s not found", id)
	}
	return nil
}

// Claim implements domain.Journal. Concurrent workers skip each other's rows.
func (j *Journal) Claim(ctx context.Context, limit int, lease time.Duration) ([]domain.Intent, error) {
	rows, err := j.txm.GetQuerier(ctx).Query(ctx, `
		UPDATE sys_dual_write
		SET attempts = attempts + 1,
		    next_attempt_at = NOW() + make_interval(secs => $2),
		    updated_at = NOW()
		WHERE id IN (
			SELECT id FROM sys_dual_write
			WHERE state IN ($3, $4, $5)
			  AND next_attempt_at <= NOW()
			ORDER BY seq
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, entity, operation, state, record_id, document_ref,
		          payload, compression_algo, attempts, last_error
	`, limit, lease.Seconds(),
		string(domain.StatePending), string(domain.StateRelationalCommitted), string(domain.StateDocumentCommitted))
	if err != nil {
		return nil, fmt.Errorf("claim intents: %w", err)
	}
	return j.scanIntents(rows)
}

// Newer implements domain.Journal.
func (j *Journal) Newer(ctx context.Context, in domain.Intent) ([]domain.Intent, error) {
	rows, err := j.txm.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity, operation, state, record_id, document_ref,
		       payload, compression_algo, attempts, last_error
		FROM sys_dual_write
		WHERE entity = $1 AND document_ref = $2 AND state <> $4
		  AND seq > (SELECT seq FROM sys_dual_write WHERE id = $3)
		ORDER BY seq
	`, in.Entity, in.DocumentRef, in.ID, string(domain.StateFailed))
	if err != nil {
		return nil, fmt.Errorf("newer intents of %s: %w", in.ID, err)
	}
	return j.scanIntents(rows)
}

func (j *Journal) scanIntents(rows pgx.Rows) ([]domain.Intent, error) {
	defer rows.Close()

	var out []domain.Intent
	for rows.Next() {
		var (
			in        domain.Intent
			operation string
			state     string
			payload   []byte
			algo      string
			lastError *string
		)
		if err := rows.Scan(&in.ID, &in.Entity, &operation, &state, &in.RecordID, &in.DocumentRef,
			&payload, &algo, &in.Attempts, &lastError); err != nil {
			return nil, fmt.Errorf("scan intent: %w", err)
		}
		in.Operation = domain.Operation(operation)
		in.State = domain.WriteState(state)
		if lastError != nil {
			in.LastError = *lastError
		}
		p, err := j.decodePayload(payload, CompressionAlgo(algo))
		if err != nil {
			return nil, fmt.Errorf("intent %s: %w", in.ID, err)
		}
		in.Document, in.Row = p.Document, p.Row
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intents: %w", err)
	}
	return out, nil
}

// Retry implements domain.Journal. The backoff grows by one minute per attempt.
func (j *Journal) Retry(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := j.txm.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_dual_write
		SET last_error = $2,
		    next_attempt_at = NOW() + make_interval(mins => attempts),
		    state = CASE WHEN attempts >= $3 THEN $4 ELSE state END,
		    updated_at = NOW()
		WHERE id = $1
	`, id, msg, MaxJournalAttempts, string(domain.StateFailed))
	if err != nil {
		return fmt.Errorf("retry intent %s: %w", id, err)
	}
	return nil
}

// JournalStats counts intents per state.
type JournalStats = map[domain.WriteState]int64

// Stats returns the number of intents in each state.
func (j *Journal) Stats(ctx context.Context) (JournalStats, error) {
	rows, err := j.txm.GetQuerier(ctx).Query(ctx, `SELECT state, COUNT(*) FROM sys_dual_write GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	out := make(JournalStats)
	for rows.Next() {
		var (
			state string
			n     int64
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan journal stats: %w", err)
		}
		out[domain.WriteState(state)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	return out, nil
}

// PurgeReconciled deletes reconciled intents last touched before olderThan ago.
func (j *Journal) PurgeReconciled(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("purge window must be positive")
	}
	tag, err := j.txm.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_dual_write
		WHERE state = $1 AND updated_at < NOW() - make_interval(secs => $2)
	`, string(domain.StateReconciled), olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("purge intents: %w", err)
	}
	return tag.RowsAffected(), nil
}

package aiconfig

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"lexflow/internal/database"
	"lexflow/internal/models"

	"github.com/google/uuid"
)

// AuditLog records every configuration mutation in the append-only
// ai_config_audit table. Records are written once and never modified.
type AuditLog struct {
	db *database.DB
}

// NewAuditLog creates a new audit log
func NewAuditLog(db *database.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Append writes one audit record. The record's ID and timestamp are assigned
// here; callers supply the who/what/before/after.
func (l *AuditLog) Append(ctx context.Context, record *models.ConfigChangeRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	var beforeJSON sql.NullString
	if record.Before != nil {
		raw, err := json.Marshal(record.Before)
		if err != nil {
			return fmt.Errorf("failed to encode before snapshot: %w", err)
		}
		beforeJSON = sql.NullString{String: string(raw), Valid: true}
	}

	afterJSON, err := json.Marshal(record.After)
	if err != nil {
		return fmt.Errorf("failed to encode after snapshot: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO ai_config_audit (id, operation_name, actor, action, before_config, after_config, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.ID, string(record.OperationName), record.Actor, string(record.Action),
		beforeJSON, string(afterJSON), record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	return nil
}

// ListByOperation returns the most recent audit records for an operation,
// newest first.
func (l *AuditLog) ListByOperation(ctx context.Context, op models.OperationName, limit int) ([]models.ConfigChangeRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, operation_name, actor, action, before_config, after_config, created_at
		FROM ai_config_audit
		WHERE operation_name = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, string(op), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	return scanAuditRows(rows)
}

// ListRecent returns the most recent audit records across all operations,
// newest first.
func (l *AuditLog) ListRecent(ctx context.Context, limit int) ([]models.ConfigChangeRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, operation_name, actor, action, before_config, after_config, created_at
		FROM ai_config_audit
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	return scanAuditRows(rows)
}

func scanAuditRows(rows *sql.Rows) ([]models.ConfigChangeRecord, error) {
	var records []models.ConfigChangeRecord
	for rows.Next() {
		var record models.ConfigChangeRecord
		var beforeJSON sql.NullString
		var afterJSON string

		if err := rows.Scan(&record.ID, &record.OperationName, &record.Actor, &record.Action,
			&beforeJSON, &afterJSON, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}

		if beforeJSON.Valid {
			var before models.OperationProviderConfig
			if err := json.Unmarshal([]byte(beforeJSON.String), &before); err == nil {
				record.Before = &before
			}
		}
		var after models.OperationProviderConfig
		if err := json.Unmarshal([]byte(afterJSON), &after); err == nil {
			record.After = &after
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

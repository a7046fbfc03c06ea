package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"tikapipe/pkg/database"
)

// PostgresLogger implements the Logger interface by writing audit entries
// into a Postgres table managed by the service's own migrations
// (migrations/postgres/0001_create_audit_log.sql), insert-only.
type PostgresLogger struct {
	db     database.DB
	config *Config
}

// NewPostgresLogger creates and returns a new PostgresLogger.
func NewPostgresLogger(db database.DB, cfg *Config) *PostgresLogger {
	return &PostgresLogger{db: db, config: cfg}
}

// Log inserts an audit entry into the audit_log table.
func (l *PostgresLogger) Log(ctx context.Context, entry *Entry) error {
	if !l.config.Enabled {
		return nil
	}

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		metadataJSON = []byte("{}")
	}

	var changesBefore, changesAfter []byte
	if entry.Changes != nil {
		changesBefore, _ = json.Marshal(entry.Changes.Before)
		changesAfter, _ = json.Marshal(entry.Changes.After)
	}

	const query = `
		INSERT INTO audit_log (
			id, timestamp, service, method, request_id,
			action, outcome,
			user_id, username, client_ip, user_agent,
			resource, resource_id,
			duration_ms, error_code, error_message,
			changes_before, changes_after, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err = l.db.Exec(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.Service,
		entry.Method,
		nullableString(entry.RequestID),
		entry.Action,
		entry.Outcome,
		nullableString(entry.UserID),
		nullableString(entry.Username),
		nullableString(entry.ClientIP),
		nullableString(entry.UserAgent),
		nullableString(entry.Resource),
		nullableString(entry.ResourceID),
		entry.DurationMs,
		nullableString(entry.ErrorCode),
		nullableString(entry.ErrorMessage),
		changesBefore,
		changesAfter,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// Query retrieves audit entries matching the given filter.
func (l *PostgresLogger) Query(ctx context.Context, filter *QueryFilter) ([]*Entry, error) {
	query := `
		SELECT id, timestamp, service, method, request_id, action, outcome,
			user_id, username, client_ip, user_agent, resource, resource_id,
			duration_ms, error_code, error_message, metadata
		FROM audit_log
		WHERE ($1 = '' OR service = $1)
			AND ($2 = '' OR method = $2)
			AND ($3 = '' OR action = $3)
			AND ($4 = '' OR outcome = $4)
		ORDER BY timestamp DESC
		LIMIT $5 OFFSET $6
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := l.db.Query(ctx, query,
		filter.Service, filter.Method, string(filter.Action), string(filter.Outcome),
		limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var metadataJSON []byte
		var requestID, userID, username, clientIP, userAgent, resource, resourceID, errorCode, errorMessage *string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Service, &e.Method, &requestID, &e.Action, &e.Outcome,
			&userID, &username, &clientIP, &userAgent, &resource, &resourceID,
			&e.DurationMs, &errorCode, &errorMessage, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.RequestID = derefString(requestID)
		e.UserID = derefString(userID)
		e.Username = derefString(username)
		e.ClientIP = derefString(clientIP)
		e.UserAgent = derefString(userAgent)
		e.Resource = derefString(resource)
		e.ResourceID = derefString(resourceID)
		e.ErrorCode = derefString(errorCode)
		e.ErrorMessage = derefString(errorMessage)
		if len(metadataJSON) > 0 {
			_ = json.Unmarshal(metadataJSON, &e.Metadata)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close is a no-op: the underlying connection pool is owned by the caller.
func (l *PostgresLogger) Close() error {
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

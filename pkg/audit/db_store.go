package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/platinummonkey/adminpanel/pkg/observability"
)

// DBStore persists audit records in PostgreSQL
type DBStore struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewDBStore creates a new database-backed audit store
func NewDBStore(db *sql.DB, logger *observability.Logger) (*DBStore, error) {
	s := &DBStore{
		db:     db,
		logger: logger,
	}

	if err := s.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure audit table: %w", err)
	}

	return s, nil
}

func (s *DBStore) ensureTable() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			action TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_user_id ON audit_logs(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Insert persists a record and fills in its assigned ID
func (s *DBStore) Insert(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO audit_logs (user_id, action, details, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		record.UserID, record.Action, record.Details, record.Timestamp,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}

// buildWhere assembles the WHERE clause shared by Search and Count
func buildWhere(filter Filter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argCount := 0

	if filter.User != "" {
		argCount++
		conditions = append(conditions,
			fmt.Sprintf("(u.name ILIKE $%d OR u.email ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+filter.User+"%")
	}
	if filter.Action != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf("a.action = $%d", argCount))
		args = append(args, filter.Action)
	}
	if !filter.StartDate.IsZero() {
		argCount++
		conditions = append(conditions, fmt.Sprintf("a.timestamp >= $%d", argCount))
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		argCount++
		conditions = append(conditions, fmt.Sprintf("a.timestamp <= $%d", argCount))
		args = append(args, filter.EndDate)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Search returns entries matching the filter, newest first
func (s *DBStore) Search(ctx context.Context, filter Filter) ([]*Entry, error) {
	query := `
		SELECT a.id, a.user_id, a.action, a.details, a.timestamp,
		       COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.user_id`

	where, args := buildWhere(filter)
	query += where
	query += " ORDER BY a.timestamp DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search audit records: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Details, &e.Timestamp,
			&e.UserName, &e.UserEmail); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Count returns the number of records matching the filter, ignoring paging
func (s *DBStore) Count(ctx context.Context, filter Filter) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.user_id`

	where, args := buildWhere(filter)
	query += where

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}
	return count, nil
}

// Get fetches a single entry by ID
func (s *DBStore) Get(ctx context.Context, id int64) (*Entry, error) {
	query := `
		SELECT a.id, a.user_id, a.action, a.details, a.timestamp,
		       COALESCE(u.name, ''), COALESCE(u.email, '')
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.id = $1`

	var e Entry
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.UserID, &e.Action, &e.Details, &e.Timestamp,
		&e.UserName, &e.UserEmail,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get audit record: %w", err)
	}

	return &e, nil
}

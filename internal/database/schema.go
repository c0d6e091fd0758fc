package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements bootstraps the tables this service reads and writes.
// The unique constraint on (tester_email, app_id) is what actually enforces
// one request per tester and app; the service-level check is only a fast path.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS apps (
		app_id          TEXT PRIMARY KEY,
		developer_email TEXT NOT NULL,
		name            TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_apps_developer_email ON apps (developer_email)`,
	`CREATE TABLE IF NOT EXISTS tester_requests (
		doc_id         BIGSERIAL PRIMARY KEY,
		id             UUID NOT NULL UNIQUE,
		tester_email   TEXT NOT NULL,
		app_id         TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
		days_tested    INTEGER NOT NULL DEFAULT 0 CHECK (days_tested >= 0),
		last_test_date DATE,
		requested_at   BIGINT NOT NULL,
		CONSTRAINT uq_tester_requests_tester_app UNIQUE (tester_email, app_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tester_requests_app_id ON tester_requests (app_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tester_requests_tester_email ON tester_requests (tester_email)`,
}

// CreateSchema creates missing tables and indexes. It is idempotent.
func CreateSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

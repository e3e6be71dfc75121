package postgres

import (
	"context"
	"fmt"
)

// Migrate creates the schema if it is missing. BIGSERIAL keys give the
// monotonic, never-reused id allocation the agent relies on.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS healthchecks (
			id               BIGSERIAL PRIMARY KEY,
			name             TEXT NOT NULL DEFAULT '',
			endpoint         TEXT NOT NULL,
			interval_seconds INT  NOT NULL,
			enabled          BOOL NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS healthcheck_results (
			id         BIGSERIAL PRIMARY KEY,
			check_id   BIGINT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			elapsed_ms DOUBLE PRECISION NOT NULL,
			pass       BOOL NOT NULL,
			message    TEXT NOT NULL DEFAULT ''
		)`,
		// check_id has no FK: result rows outlive their check by design
		`CREATE INDEX IF NOT EXISTS healthcheck_results_check_start_idx
			ON healthcheck_results (check_id, start_time DESC)`,
	}
	for _, q := range stmts {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

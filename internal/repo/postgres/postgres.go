package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/repo"
)

var _ repo.CheckStore = (*Store)(nil)
var _ repo.ResultStore = (*Store)(nil)

// DefaultListLimit caps List/ListByCheck when the caller gives no limit.
const DefaultListLimit = 50

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- CheckStore ----

func (s *Store) Get(ctx context.Context, id domain.CheckID) (*domain.Healthcheck, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, endpoint, interval_seconds, enabled, created_at
		   FROM healthchecks
		  WHERE id = $1`, int64(id))
	return scanCheck(row, id)
}

func (s *Store) List(ctx context.Context, f repo.ListFilter) ([]*domain.Healthcheck, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	q := `SELECT id, name, endpoint, interval_seconds, enabled, created_at
	        FROM healthchecks
	       WHERE id > $1`
	args := []any{int64(f.AfterID)}
	if f.Enabled != nil {
		q += ` AND enabled = $2`
		args = append(args, *f.Enabled)
	}
	q += fmt.Sprintf(` ORDER BY id ASC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	var out []*domain.Healthcheck
	for rows.Next() {
		var (
			h  domain.Healthcheck
			id int64
		)
		if err := rows.Scan(&id, &h.Name, &h.Endpoint, &h.Interval, &h.Enabled, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		h.ID = domain.CheckID(id)
		out = append(out, &h)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, h *domain.Healthcheck) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO healthchecks (name, endpoint, interval_seconds, enabled, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		h.Name, h.Endpoint, h.Interval, h.Enabled, h.CreatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	h.ID = domain.CheckID(id)
	return nil
}

// Update reads the row under a transaction, applies the patch, and writes it
// back, so a partial edit is never visible to concurrent readers.
func (s *Store) Update(ctx context.Context, id domain.CheckID, p repo.CheckPatch) (*domain.Healthcheck, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT id, name, endpoint, interval_seconds, enabled, created_at
		   FROM healthchecks
		  WHERE id = $1
		  FOR UPDATE`, int64(id))
	h, err := scanCheck(row, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Endpoint != nil {
		h.Endpoint = *p.Endpoint
	}
	if p.Interval != nil {
		h.Interval = *p.Interval
	}

	if _, err := tx.Exec(ctx,
		`UPDATE healthchecks
		    SET name = $2, endpoint = $3, interval_seconds = $4
		  WHERE id = $1`,
		int64(id), h.Name, h.Endpoint, h.Interval); err != nil {
		return nil, fmt.Errorf("update check: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return h, nil
}

func (s *Store) SetEnabled(ctx context.Context, id domain.CheckID, enabled bool) (*domain.Healthcheck, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE healthchecks
		    SET enabled = $2
		  WHERE id = $1
		  RETURNING id, name, endpoint, interval_seconds, enabled, created_at`,
		int64(id), enabled)
	return scanCheck(row, id)
}

func (s *Store) Delete(ctx context.Context, id domain.CheckID) (*domain.Healthcheck, error) {
	// result rows are kept on purpose: history survives deletion
	row := s.pool.QueryRow(ctx,
		`DELETE FROM healthchecks
		  WHERE id = $1
		  RETURNING id, name, endpoint, interval_seconds, enabled, created_at`,
		int64(id))
	return scanCheck(row, id)
}

// ---- ResultStore ----

func (s *Store) Append(ctx context.Context, r *domain.HealthcheckResult) error {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO healthcheck_results (check_id, start_time, elapsed_ms, pass, message)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		int64(r.CheckID), r.StartTime, r.ElapsedMS, r.Pass, r.Message,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	r.ID = id
	return nil
}

func (s *Store) ListByCheck(ctx context.Context, id domain.CheckID, limit int) ([]*domain.HealthcheckResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, check_id, start_time, elapsed_ms, pass, message
		   FROM healthcheck_results
		  WHERE check_id = $1
		  ORDER BY start_time DESC, id DESC
		  LIMIT $2`, int64(id), limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []*domain.HealthcheckResult
	for rows.Next() {
		var (
			r       domain.HealthcheckResult
			checkID int64
		)
		if err := rows.Scan(&r.ID, &checkID, &r.StartTime, &r.ElapsedMS, &r.Pass, &r.Message); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.CheckID = domain.CheckID(checkID)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *Store) SummarizeByCheck(ctx context.Context, id domain.CheckID, res domain.SummaryResolution, windows int) ([]*domain.HealthcheckSummary, error) {
	if windows <= 0 {
		windows = repo.DefaultSummaryWindows
	}
	rows, err := s.pool.Query(ctx,
		`SELECT date_trunc($2, start_time) AS time_window,
		        count(*) FILTER (WHERE pass)     AS pass,
		        count(*) FILTER (WHERE NOT pass) AS fail
		   FROM healthcheck_results
		  WHERE check_id = $1
		  GROUP BY time_window
		  ORDER BY time_window DESC
		  LIMIT $3`, int64(id), string(res), windows)
	if err != nil {
		return nil, fmt.Errorf("summarize results: %w", err)
	}
	defer rows.Close()

	var out []*domain.HealthcheckSummary
	for rows.Next() {
		var b domain.HealthcheckSummary
		if err := rows.Scan(&b.TimeWindow, &b.Pass, &b.Fail); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

func scanCheck(row pgx.Row, id domain.CheckID) (*domain.Healthcheck, error) {
	var (
		h     domain.Healthcheck
		rowID int64
	)
	err := row.Scan(&rowID, &h.Name, &h.Endpoint, &h.Interval, &h.Enabled, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan check: %w", err)
	}
	h.ID = domain.CheckID(rowID)
	return &h, nil
}

package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage"
)

// postgresStorage implements the Store interface for PostgreSQL
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL store instance
func NewPostgresStorage(connURL string) (storage.Store, error) {
	db, err := sql.Open("postgres", connURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate creates the schema
func (s *postgresStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS overtime (
		repository_id TEXT NOT NULL,
		repository_name TEXT NOT NULL,
		branch TEXT NOT NULL,
		date TEXT NOT NULL,
		last_commit_time TEXT NOT NULL,
		hours_worked DOUBLE PRECISION NOT NULL,
		last_commit_message TEXT,
		commit_hash TEXT NOT NULL,
		author_email TEXT NOT NULL,
		PRIMARY KEY (repository_id, branch, date, commit_hash)
	);

	CREATE INDEX IF NOT EXISTS idx_overtime_commit_hash ON overtime(commit_hash);
	CREATE INDEX IF NOT EXISTS idx_overtime_date ON overtime(date);

	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		year INTEGER NOT NULL,
		status TEXT NOT NULL,
		records_added BIGINT NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// HasCommit reports whether a commit hash exists anywhere in the store
func (s *postgresStorage) HasCommit(ctx context.Context, commitHash string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM overtime WHERE commit_hash = $1`, commitHash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertRecord persists a record unless its commit hash is already present.
// An advisory lock on the hash serializes concurrent inserts of the same
// commit from different branches.
func (s *postgresStorage) InsertRecord(ctx context.Context, record *domain.OvertimeRecord) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, record.CommitHash,
	); err != nil {
		return false, err
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM overtime WHERE commit_hash = $1`, record.CommitHash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO overtime (
			repository_id, repository_name, branch, date,
			last_commit_time, hours_worked, last_commit_message,
			commit_hash, author_email
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (repository_id, branch, date, commit_hash) DO UPDATE SET
			repository_name = EXCLUDED.repository_name,
			last_commit_time = EXCLUDED.last_commit_time,
			hours_worked = EXCLUDED.hours_worked,
			last_commit_message = EXCLUDED.last_commit_message,
			author_email = EXCLUDED.author_email
	`,
		record.RepositoryID,
		record.RepositoryName,
		record.Branch,
		record.Date,
		record.LastCommitTime,
		record.HoursWorked,
		record.LastCommitMessage,
		record.CommitHash,
		record.AuthorEmail,
	)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// AllRecords returns every stored record ordered by date
func (s *postgresStorage) AllRecords(ctx context.Context) ([]*domain.OvertimeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT repository_id, repository_name, branch, date,
		       last_commit_time, hours_worked, last_commit_message,
		       commit_hash, author_email
		FROM overtime
		ORDER BY date, repository_name, branch
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.OvertimeRecord
	for rows.Next() {
		var r domain.OvertimeRecord
		if err := rows.Scan(
			&r.RepositoryID,
			&r.RepositoryName,
			&r.Branch,
			&r.Date,
			&r.LastCommitTime,
			&r.HoursWorked,
			&r.LastCommitMessage,
			&r.CommitHash,
			&r.AuthorEmail,
		); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}

	return records, rows.Err()
}

// DailySummary returns total hours grouped by date
func (s *postgresStorage) DailySummary(ctx context.Context) ([]domain.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, SUM(hours_worked) AS total_hours
		FROM overtime
		GROUP BY date
		ORDER BY date
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.DailySummary
	for rows.Next() {
		var d domain.DailySummary
		if err := rows.Scan(&d.Date, &d.TotalHours); err != nil {
			return nil, err
		}
		summaries = append(summaries, d)
	}

	return summaries, rows.Err()
}

// SaveRun inserts or updates an analysis run
func (s *postgresStorage) SaveRun(ctx context.Context, run *domain.AnalysisRun) error {
	var finishedAt interface{}
	if run.FinishedAt != nil {
		finishedAt = *run.FinishedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, platform, year, status, records_added, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			records_added = EXCLUDED.records_added,
			finished_at = EXCLUDED.finished_at
	`,
		run.ID,
		run.Platform,
		run.Year,
		run.Status,
		run.RecordsAdded,
		run.StartedAt,
		finishedAt,
	)
	return err
}

// ListRuns returns all analysis runs, most recent first
func (s *postgresStorage) ListRuns(ctx context.Context) ([]*domain.AnalysisRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, platform, year, status, records_added, started_at, finished_at
		FROM analysis_runs
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.AnalysisRun
	for rows.Next() {
		var run domain.AnalysisRun
		var finishedAt sql.NullTime
		if err := rows.Scan(
			&run.ID,
			&run.Platform,
			&run.Year,
			&run.Status,
			&run.RecordsAdded,
			&run.StartedAt,
			&finishedAt,
		); err != nil {
			return nil, err
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// Close closes the database connection
func (s *postgresStorage) Close() error {
	return s.db.Close()
}

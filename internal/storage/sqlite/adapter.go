package sqlite

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage"
)

// sqliteStorage implements the Store interface for SQLite
type sqliteStorage struct {
	db *sql.DB

	// Serializes the duplicate check + upsert so two branches referencing
	// the same commit cannot both pass the check.
	writeMu sync.Mutex
}

// NewSQLiteStorage creates a new SQLite store instance
func NewSQLiteStorage(dbPath string) (storage.Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate creates the schema
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS overtime (
		repository_id TEXT NOT NULL,
		repository_name TEXT NOT NULL,
		branch TEXT NOT NULL,
		date TEXT NOT NULL,
		last_commit_time TEXT NOT NULL,
		hours_worked REAL NOT NULL,
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
		records_added INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// HasCommit reports whether a commit hash exists anywhere in the store.
// The scope is deliberately the whole table, not one repository or branch.
func (s *sqliteStorage) HasCommit(ctx context.Context, commitHash string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM overtime WHERE commit_hash = ?`, commitHash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertRecord persists a record unless its commit hash is already present
func (s *sqliteStorage) InsertRecord(ctx context.Context, record *domain.OvertimeRecord) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM overtime WHERE commit_hash = ?`, record.CommitHash,
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repository_id, branch, date, commit_hash) DO UPDATE SET
			repository_name = excluded.repository_name,
			last_commit_time = excluded.last_commit_time,
			hours_worked = excluded.hours_worked,
			last_commit_message = excluded.last_commit_message,
			author_email = excluded.author_email
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
func (s *sqliteStorage) AllRecords(ctx context.Context) ([]*domain.OvertimeRecord, error) {
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
func (s *sqliteStorage) DailySummary(ctx context.Context) ([]domain.DailySummary, error) {
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
func (s *sqliteStorage) SaveRun(ctx context.Context, run *domain.AnalysisRun) error {
	var finishedAt interface{}
	if run.FinishedAt != nil {
		finishedAt = *run.FinishedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analysis_runs (id, platform, year, status, records_added, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
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
func (s *sqliteStorage) ListRuns(ctx context.Context) ([]*domain.AnalysisRun, error) {
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
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

package storage

import (
	"context"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
)

// Store is the abstract interface for the overtime record ledger.
//
// InsertRecord performs the duplicate check and the upsert in a single
// transaction: a commit hash that already exists anywhere in the store
// (regardless of repository, branch, or date) blocks the insert, while a
// repeat of the same (repository_id, branch, date, commit_hash) composite
// key overwrites the prior row. Implementations must serialize writes so
// concurrently-processed branches cannot both pass the duplicate check.
type Store interface {
	// HasCommit reports whether a commit hash exists anywhere in the store
	HasCommit(ctx context.Context, commitHash string) (bool, error)

	// InsertRecord persists a record. It returns false when the record's
	// commit hash is already present; that is an informational outcome,
	// not an error.
	InsertRecord(ctx context.Context, record *domain.OvertimeRecord) (bool, error)

	// AllRecords returns every stored record (for export)
	AllRecords(ctx context.Context) ([]*domain.OvertimeRecord, error)

	// DailySummary returns total hours grouped by date, ordered by date
	DailySummary(ctx context.Context) ([]domain.DailySummary, error)

	// Analysis run bookkeeping
	SaveRun(ctx context.Context, run *domain.AnalysisRun) error
	ListRuns(ctx context.Context) ([]*domain.AnalysisRun, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}

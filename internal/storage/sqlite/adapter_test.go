package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage"
)

func setupTestStore(t *testing.T) storage.Store {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func makeRecord(repoID, branch, date, hash string, hours float64) *domain.OvertimeRecord {
	return &domain.OvertimeRecord{
		RepositoryID:      repoID,
		RepositoryName:    "repo-" + repoID,
		Branch:            branch,
		Date:              date,
		LastCommitTime:    "21:15:00",
		HoursWorked:       hours,
		LastCommitMessage: "fix things",
		CommitHash:        hash,
		AuthorEmail:       "dev@example.com",
	}
}

func TestInsertRecord(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ok, err := store.InsertRecord(ctx, makeRecord("1", "main", "2024-01-05", "aaa", 3.25))
	require.NoError(t, err)
	assert.True(t, ok)

	records, err := store.AllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "aaa", records[0].CommitHash)
	assert.Equal(t, 3.25, records[0].HoursWorked)
}

func TestInsertRecordDuplicateHashRejected(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ok, err := store.InsertRecord(ctx, makeRecord("1", "main", "2024-01-05", "aaa", 3.25))
	require.NoError(t, err)
	require.True(t, ok)

	// Same hash again: rejected, store unchanged.
	ok, err = store.InsertRecord(ctx, makeRecord("1", "main", "2024-01-05", "aaa", 3.25))
	require.NoError(t, err)
	assert.False(t, ok)

	records, err := store.AllRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestInsertRecordDedupIgnoresRepoBranchDate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ok, err := store.InsertRecord(ctx, makeRecord("1", "main", "2024-01-05", "aaa", 3.25))
	require.NoError(t, err)
	require.True(t, ok)

	// The same commit cherry-picked onto another branch of another repo is
	// still treated as a duplicate: the check is scoped to nothing but the
	// hash.
	ok, err = store.InsertRecord(ctx, makeRecord("2", "release", "2024-02-01", "aaa", 1.5))
	require.NoError(t, err)
	assert.False(t, ok)

	has, err := store.HasCommit(ctx, "aaa")
	require.NoError(t, err)
	assert.True(t, has)

	records, err := store.AllRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestHasCommit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	has, err := store.HasCommit(ctx, "aaa")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = store.InsertRecord(ctx, makeRecord("1", "main", "2024-01-05", "aaa", 3.25))
	require.NoError(t, err)

	has, err = store.HasCommit(ctx, "aaa")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestDailySummary(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.InsertRecord(ctx, makeRecord("1", "main", "2024-01-05", "aaa", 2.5))
	require.NoError(t, err)
	_, err = store.InsertRecord(ctx, makeRecord("1", "main", "2024-01-06", "bbb", 1.0))
	require.NoError(t, err)
	_, err = store.InsertRecord(ctx, makeRecord("2", "dev", "2024-01-05", "ccc", 1.5))
	require.NoError(t, err)

	daily, err := store.DailySummary(ctx)
	require.NoError(t, err)
	require.Len(t, daily, 2)

	assert.Equal(t, "2024-01-05", daily[0].Date)
	assert.Equal(t, 4.0, daily[0].TotalHours)
	assert.Equal(t, "2024-01-06", daily[1].Date)
	assert.Equal(t, 1.0, daily[1].TotalHours)
}

func TestSaveRunAndListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run := &domain.AnalysisRun{
		ID:        "run-1",
		Platform:  "gitlab",
		Year:      2024,
		Status:    "in_progress",
		StartedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveRun(ctx, run))

	finished := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	run.Status = "completed"
	run.RecordsAdded = 7
	run.FinishedAt = &finished
	require.NoError(t, store.SaveRun(ctx, run))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, int64(7), runs[0].RecordsAdded)
	require.NotNil(t, runs[0].FinishedAt)
	assert.True(t, finished.Equal(*runs[0].FinishedAt))
}

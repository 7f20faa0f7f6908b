package analyzer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
	"github.com/okazaki0127/git-overtime-metrics/internal/overtime"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage/sqlite"
)

// fakeCollector serves canned data keyed by repository and branch
type fakeCollector struct {
	repos    []domain.Repository
	branches map[string][]string
	commits  map[string][]domain.Commit
}

func (f *fakeCollector) FetchRepositories(ctx context.Context) ([]domain.Repository, error) {
	return f.repos, nil
}

func (f *fakeCollector) FetchBranches(ctx context.Context, repo domain.Repository) ([]string, error) {
	return f.branches[repo.ID], nil
}

func (f *fakeCollector) FetchCommits(ctx context.Context, repo domain.Repository, branch string, since, until time.Time) ([]domain.Commit, error) {
	return f.commits[repo.ID+"@"+branch], nil
}

func setupStore(t *testing.T) storage.Store {
	t.Helper()

	store, err := sqlite.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func newCalculator(t *testing.T) *overtime.Calculator {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	return overtime.NewCalculator(loc, 9, 18)
}

func commit(hash, createdAt string) domain.Commit {
	return domain.Commit{
		Hash:        hash,
		AuthorEmail: "dev@example.com",
		Title:       "commit " + hash,
		CreatedAt:   createdAt,
	}
}

func TestRunPersistsOvertimeRecords(t *testing.T) {
	store := setupStore(t)
	coll := &fakeCollector{
		repos:    []domain.Repository{{ID: "1", Name: "backend", FullName: "team/backend"}},
		branches: map[string][]string{"1": {"main"}},
		commits: map[string][]domain.Commit{
			"1@main": {
				commit("aaa", "2024-01-05T19:00:00+08:00"), // Friday evening
				commit("bbb", "2024-01-05T21:15:00+08:00"),
				commit("ccc", "2024-01-05T14:00:00+08:00"), // working hours, dropped
				commit("ddd", "2024-01-06T10:00:00+08:00"), // Saturday
			},
		},
	}

	a := New(coll, store, newCalculator(t), []string{"dev@example.com"}, nil, "gitlab", 2024)
	run, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, int64(2), run.RecordsAdded)
	require.NotNil(t, run.FinishedAt)

	records, err := store.AllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Friday: 18:00 to 21:15, representative commit is the last one.
	assert.Equal(t, "2024-01-05", records[0].Date)
	assert.Equal(t, 3.25, records[0].HoursWorked)
	assert.Equal(t, "bbb", records[0].CommitHash)
	assert.Equal(t, "21:15:00", records[0].LastCommitTime)

	// Saturday: 09:00 to 10:00.
	assert.Equal(t, "2024-01-06", records[1].Date)
	assert.Equal(t, 1.0, records[1].HoursWorked)
	assert.Equal(t, "ddd", records[1].CommitHash)
}

func TestRunIsIdempotent(t *testing.T) {
	store := setupStore(t)
	coll := &fakeCollector{
		repos:    []domain.Repository{{ID: "1", Name: "backend", FullName: "team/backend"}},
		branches: map[string][]string{"1": {"main"}},
		commits: map[string][]domain.Commit{
			"1@main": {commit("aaa", "2024-01-05T20:00:00+08:00")},
		},
	}

	a := New(coll, store, newCalculator(t), []string{"dev@example.com"}, nil, "gitlab", 2024)

	run, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.RecordsAdded)

	// Re-running the same analysis adds nothing.
	run, err = a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), run.RecordsAdded)

	records, err := store.AllRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRunDeduplicatesAcrossBranches(t *testing.T) {
	store := setupStore(t)

	// The same commit reachable from two branches yields one record.
	shared := commit("aaa", "2024-01-05T20:00:00+08:00")
	coll := &fakeCollector{
		repos:    []domain.Repository{{ID: "1", Name: "backend", FullName: "team/backend"}},
		branches: map[string][]string{"1": {"main", "release"}},
		commits: map[string][]domain.Commit{
			"1@main":    {shared},
			"1@release": {shared},
		},
	}

	a := New(coll, store, newCalculator(t), []string{"dev@example.com"}, nil, "gitlab", 2024)
	run, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), run.RecordsAdded)

	records, err := store.AllRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRunSkipsShortWeekdayBuckets(t *testing.T) {
	store := setupStore(t)
	coll := &fakeCollector{
		repos:    []domain.Repository{{ID: "1", Name: "backend", FullName: "team/backend"}},
		branches: map[string][]string{"1": {"main"}},
		commits: map[string][]domain.Commit{
			"1@main": {commit("aaa", "2024-01-05T18:30:00+08:00")},
		},
	}

	a := New(coll, store, newCalculator(t), []string{"dev@example.com"}, nil, "gitlab", 2024)
	run, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), run.RecordsAdded)

	records, err := store.AllRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunFiltersSelectedRepos(t *testing.T) {
	store := setupStore(t)
	coll := &fakeCollector{
		repos: []domain.Repository{
			{ID: "1", Name: "backend", FullName: "team/backend"},
			{ID: "2", Name: "frontend", FullName: "team/frontend"},
		},
		branches: map[string][]string{"1": {"main"}, "2": {"main"}},
		commits: map[string][]domain.Commit{
			"1@main": {commit("aaa", "2024-01-05T20:00:00+08:00")},
			"2@main": {commit("bbb", "2024-01-05T20:30:00+08:00")},
		},
	}

	a := New(coll, store, newCalculator(t), []string{"dev@example.com"}, []string{"team/backend"}, "gitlab", 2024)
	run, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), run.RecordsAdded)

	records, err := store.AllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "backend", records[0].RepositoryName)
}

package analyzer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okazaki0127/git-overtime-metrics/internal/collector"
	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
	"github.com/okazaki0127/git-overtime-metrics/internal/overtime"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage"
)

// defaultConcurrency bounds the number of branches analyzed at once
const defaultConcurrency = 5

// Analyzer walks every (repository, branch) pair, runs the overtime engine
// over the year's commits, and persists deduplicated records. Branches are
// independent units of work; the store serializes the actual writes.
type Analyzer struct {
	collector     collector.Collector
	store         storage.Store
	calc          *overtime.Calculator
	authorEmails  []string
	selectedRepos []string
	platform      string
	year          int
	concurrency   int
}

// New creates an analyzer for one platform and year
func New(coll collector.Collector, store storage.Store, calc *overtime.Calculator, authorEmails, selectedRepos []string, platform string, year int) *Analyzer {
	return &Analyzer{
		collector:     coll,
		store:         store,
		calc:          calc,
		authorEmails:  authorEmails,
		selectedRepos: selectedRepos,
		platform:      platform,
		year:          year,
		concurrency:   defaultConcurrency,
	}
}

// Run performs a full analysis pass and records it as an AnalysisRun.
// Fetch failures on individual repositories or branches are logged and
// skipped; a partial commit list simply yields fewer records.
func (a *Analyzer) Run(ctx context.Context) (*domain.AnalysisRun, error) {
	run := &domain.AnalysisRun{
		ID:        uuid.New().String(),
		Platform:  a.platform,
		Year:      a.year,
		Status:    "in_progress",
		StartedAt: time.Now(),
	}
	if err := a.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save analysis run: %w", err)
	}

	since := time.Date(a.year, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(a.year, time.December, 31, 23, 59, 59, 0, time.UTC)

	repos, err := a.collector.FetchRepositories(ctx)
	if err != nil {
		a.finishRun(ctx, run, "failed", 0)
		return run, fmt.Errorf("failed to fetch repositories: %w", err)
	}
	repos = a.filterRepos(repos)
	log.Printf("analyzing %d repositories for %d", len(repos), a.year)

	var (
		inserted  int64
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, a.concurrency)
	)

	for _, repo := range repos {
		branches, err := a.collector.FetchBranches(ctx, repo)
		if err != nil {
			log.Printf("warning: %v", err)
			continue
		}

		for _, branch := range branches {
			wg.Add(1)
			go func(repo domain.Repository, branch string) {
				defer wg.Done()

				semaphore <- struct{}{}
				defer func() { <-semaphore }()

				n, err := a.analyzeBranch(ctx, repo, branch, since, until)
				if err != nil {
					log.Printf("warning: %v", err)
					return
				}
				atomic.AddInt64(&inserted, n)
			}(repo, branch)
		}
	}

	wg.Wait()

	a.finishRun(ctx, run, "completed", inserted)
	log.Printf("analysis complete: %d records added", inserted)
	return run, nil
}

// analyzeBranch runs the engine over one branch and returns the number of
// records inserted
func (a *Analyzer) analyzeBranch(ctx context.Context, repo domain.Repository, branch string, since, until time.Time) (int64, error) {
	commits, err := a.collector.FetchCommits(ctx, repo, branch, since, until)
	if err != nil {
		return 0, err
	}

	windows := a.calc.Categorize(commits, a.authorEmails)

	var inserted int64
	for _, window := range windows {
		hours, last, ok := a.calc.ComputeHours(window)
		if !ok || hours <= 0 {
			continue
		}

		exists, err := a.store.HasCommit(ctx, last.Hash)
		if err != nil {
			return inserted, fmt.Errorf("duplicate check for %s: %w", last.Hash, err)
		}
		if exists {
			log.Printf("already recorded, skipping commit %s", last.Hash)
			continue
		}

		record := a.calc.NewRecord(repo.ID, repo.Name, branch, window, hours, last, a.authorEmails[0])
		ok, err = a.store.InsertRecord(ctx, &record)
		if err != nil {
			// Re-running is safe: dedup and upsert make reprocessing idempotent.
			log.Printf("warning: failed to insert record for %s %s: %v", repo.Name, window.Date, err)
			continue
		}
		if !ok {
			log.Printf("already recorded, skipping commit %s", last.Hash)
			continue
		}
		inserted++
	}

	return inserted, nil
}

// filterRepos applies the optional selected-repository filter
func (a *Analyzer) filterRepos(repos []domain.Repository) []domain.Repository {
	if len(a.selectedRepos) == 0 {
		return repos
	}

	selected := make(map[string]bool, len(a.selectedRepos))
	for _, name := range a.selectedRepos {
		selected[name] = true
	}

	var filtered []domain.Repository
	for _, repo := range repos {
		if selected[repo.FullName] {
			filtered = append(filtered, repo)
		}
	}
	return filtered
}

func (a *Analyzer) finishRun(ctx context.Context, run *domain.AnalysisRun, status string, inserted int64) {
	now := time.Now()
	run.Status = status
	run.RecordsAdded = inserted
	run.FinishedAt = &now
	if err := a.store.SaveRun(ctx, run); err != nil {
		log.Printf("warning: failed to update analysis run: %v", err)
	}
}

package aggregator

import (
	"context"
	"math"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage"
)

// Aggregator computes summary statistics from the stored records. It holds
// no state of its own beyond the store it queries at call time.
type Aggregator interface {
	// Summarize folds all persisted records into overall statistics
	Summarize(ctx context.Context) (*domain.Summary, error)

	// Daily returns per-date total hours
	Daily(ctx context.Context) ([]domain.DailySummary, error)
}

// aggregator implements the Aggregator interface
type aggregator struct {
	store storage.Store
}

// NewAggregator creates a new aggregator
func NewAggregator(store storage.Store) Aggregator {
	return &aggregator{
		store: store,
	}
}

// Summarize folds all persisted records into overall statistics
func (a *aggregator) Summarize(ctx context.Context) (*domain.Summary, error) {
	daily, err := a.store.DailySummary(ctx)
	if err != nil {
		return nil, err
	}

	records, err := a.store.AllRecords(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		ActiveDays:          len(daily),
		RecordsByRepository: make(map[string]int64),
		RecordsByBranch:     make(map[string]int64),
		Daily:               daily,
	}

	for _, d := range daily {
		summary.TotalHours += d.TotalHours
	}
	summary.TotalHours = round2(summary.TotalHours)

	if summary.ActiveDays > 0 {
		summary.AveragePerDay = round2(summary.TotalHours / float64(summary.ActiveDays))
	}

	for _, r := range records {
		summary.RecordsByRepository[r.RepositoryName]++
		summary.RecordsByBranch[r.Branch]++
	}

	return summary, nil
}

// Daily returns per-date total hours
func (a *aggregator) Daily(ctx context.Context) ([]domain.DailySummary, error) {
	return a.store.DailySummary(ctx)
}

// round2 rounds to two decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

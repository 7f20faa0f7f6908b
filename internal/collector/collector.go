package collector

import (
	"context"
	"time"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
)

// Collector is the interface the analyzer consumes. Pagination and
// platform-specific field mapping are hidden behind it; implementations
// return partial results with a logged warning rather than failing a run.
type Collector interface {
	// FetchRepositories retrieves the repositories accessible to the
	// configured token
	FetchRepositories(ctx context.Context) ([]domain.Repository, error)

	// FetchBranches retrieves all branch names of a repository
	FetchBranches(ctx context.Context, repo domain.Repository) ([]string, error)

	// FetchCommits retrieves commits on a branch between two UTC instants
	FetchCommits(ctx context.Context, repo domain.Repository, branch string, since, until time.Time) ([]domain.Commit, error)
}

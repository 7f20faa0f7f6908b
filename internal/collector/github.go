package collector

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
)

// githubCollector implements Collector using the GitHub API
type githubCollector struct {
	client      *github.Client
	rateLimiter RateLimiter
}

// NewGitHubCollector creates a collector authenticated with the given token
func NewGitHubCollector(token string) Collector {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	return &githubCollector{
		client:      client,
		rateLimiter: NewRateLimiter(),
	}
}

// FetchRepositories retrieves the repositories the token owner can access
func (c *githubCollector) FetchRepositories(ctx context.Context) ([]domain.Repository, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allRepos []domain.Repository
	opts := &github.RepositoryListOptions{
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		repos, resp, err := c.client.Repositories.List(ctx, "", opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, repo := range repos {
			allRepos = append(allRepos, domain.Repository{
				ID:       repo.GetFullName(),
				Name:     repo.GetName(),
				FullName: repo.GetFullName(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allRepos, nil
}

// FetchBranches retrieves all branch names of a repository
func (c *githubCollector) FetchBranches(ctx context.Context, repo domain.Repository) ([]string, error) {
	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var branches []string
	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		page, resp, err := c.client.Repositories.ListBranches(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list branches for %s: %w", repo.FullName, err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, branch := range page {
			branches = append(branches, branch.GetName())
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return branches, nil
}

// FetchCommits retrieves commits on a branch within the given range
func (c *githubCollector) FetchCommits(ctx context.Context, repo domain.Repository, branch string, since, until time.Time) ([]domain.Commit, error) {
	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var allCommits []domain.Commit
	opts := &github.CommitsListOptions{
		SHA:         branch,
		Since:       since,
		Until:       until,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		commits, resp, err := c.client.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			// Empty repositories answer 409
			if resp != nil && resp.StatusCode == 409 {
				return allCommits, nil
			}
			return nil, fmt.Errorf("failed to list commits for %s@%s: %w", repo.FullName, branch, err)
		}

		c.updateRateLimitFromResponse(resp)

		for _, commit := range commits {
			mapped, ok := mapGitHubCommit(commit)
			if !ok {
				log.Printf("skipping malformed commit in %s@%s", repo.FullName, branch)
				continue
			}
			allCommits = append(allCommits, mapped)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return allCommits, nil
}

// mapGitHubCommit converts an API commit to the shared format. Commits
// missing the author block or the timestamp are rejected.
func mapGitHubCommit(commit *github.RepositoryCommit) (domain.Commit, bool) {
	inner := commit.GetCommit()
	if inner == nil || inner.Author == nil || inner.Author.Date == nil {
		return domain.Commit{}, false
	}

	title := inner.GetMessage()
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}

	return domain.Commit{
		Hash:        commit.GetSHA(),
		AuthorEmail: inner.Author.GetEmail(),
		Title:       title,
		CreatedAt:   inner.Author.GetDate().Format(time.RFC3339),
	}, true
}

// splitFullName splits "owner/name"
func splitFullName(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name %q", fullName)
	}
	return parts[0], parts[1], nil
}

// updateRateLimitFromResponse updates the rate limiter from an API response
func (c *githubCollector) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Remaining >= 0 {
		c.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}

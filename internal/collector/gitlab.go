package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
)

const gitlabPerPage = 100

// gitlabCollector implements Collector against the GitLab REST API v4
type gitlabCollector struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewGitLabCollector creates a collector for the given GitLab instance.
// Requests are retried with backoff on transient failures.
func NewGitLabCollector(accessToken, baseURL string) Collector {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil

	return &gitlabCollector{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  rc.StandardClient(),
	}
}

// gitlabProject is the subset of the project payload we read
type gitlabProject struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
}

// gitlabBranch is the subset of the branch payload we read
type gitlabBranch struct {
	Name string `json:"name"`
}

// gitlabCommit is the subset of the commit payload we read
type gitlabCommit struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	AuthorEmail string `json:"author_email"`
	CreatedAt   string `json:"created_at"`
}

// FetchRepositories retrieves the projects the token's user is a member of
func (c *gitlabCollector) FetchRepositories(ctx context.Context) ([]domain.Repository, error) {
	var repos []domain.Repository

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("membership", "true")
		params.Set("simple", "true")
		params.Set("archived", "false")
		params.Set("per_page", strconv.Itoa(gitlabPerPage))
		params.Set("page", strconv.Itoa(page))

		var projects []gitlabProject
		if err := c.getJSON(ctx, "/projects", params, &projects); err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}
		if len(projects) == 0 {
			break
		}

		for _, p := range projects {
			repos = append(repos, domain.Repository{
				ID:       strconv.Itoa(p.ID),
				Name:     p.Name,
				FullName: p.PathWithNamespace,
			})
		}

		if len(projects) < gitlabPerPage {
			break
		}
	}

	return repos, nil
}

// FetchBranches retrieves all branch names of a project
func (c *gitlabCollector) FetchBranches(ctx context.Context, repo domain.Repository) ([]string, error) {
	var branches []string

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(gitlabPerPage))
		params.Set("page", strconv.Itoa(page))

		var payload []gitlabBranch
		path := fmt.Sprintf("/projects/%s/repository/branches", url.PathEscape(repo.ID))
		if err := c.getJSON(ctx, path, params, &payload); err != nil {
			return nil, fmt.Errorf("failed to list branches for %s: %w", repo.FullName, err)
		}
		if len(payload) == 0 {
			break
		}

		for _, b := range payload {
			branches = append(branches, b.Name)
		}

		if len(payload) < gitlabPerPage {
			break
		}
	}

	return branches, nil
}

// FetchCommits retrieves commits on a branch within the given range
func (c *gitlabCollector) FetchCommits(ctx context.Context, repo domain.Repository, branch string, since, until time.Time) ([]domain.Commit, error) {
	var commits []domain.Commit

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("since", since.Format(time.RFC3339))
		params.Set("until", until.Format(time.RFC3339))
		params.Set("ref_name", branch)
		params.Set("per_page", strconv.Itoa(gitlabPerPage))
		params.Set("page", strconv.Itoa(page))

		var payload []gitlabCommit
		path := fmt.Sprintf("/projects/%s/repository/commits", url.PathEscape(repo.ID))
		if err := c.getJSON(ctx, path, params, &payload); err != nil {
			return nil, fmt.Errorf("failed to list commits for %s@%s: %w", repo.FullName, branch, err)
		}
		if len(payload) == 0 {
			break
		}

		for _, gc := range payload {
			commits = append(commits, domain.Commit{
				Hash:        gc.ID,
				AuthorEmail: gc.AuthorEmail,
				Title:       gc.Title,
				CreatedAt:   gc.CreatedAt,
			})
		}

		if len(payload) < gitlabPerPage {
			break
		}
	}

	return commits, nil
}

// getJSON performs an authenticated GET and decodes the JSON body
func (c *gitlabCollector) getJSON(ctx context.Context, path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("PRIVATE-TOKEN", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
)

// Client is the API client for git-overtime-metrics
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetRecords retrieves all overtime records
func (c *Client) GetRecords() ([]*domain.OvertimeRecord, error) {
	var response struct {
		Data []*domain.OvertimeRecord `json:"data"`
	}
	if err := c.get("/api/v1/records", &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetSummary retrieves the overall summary statistics
func (c *Client) GetSummary() (*domain.Summary, error) {
	var response struct {
		Data *domain.Summary `json:"data"`
	}
	if err := c.get("/api/v1/summary", &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetDailySummary retrieves per-date total hours
func (c *Client) GetDailySummary() ([]domain.DailySummary, error) {
	var response struct {
		Data []domain.DailySummary `json:"data"`
	}
	if err := c.get("/api/v1/summary/daily", &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetRuns retrieves all analysis runs
func (c *Client) GetRuns() ([]*domain.AnalysisRun, error) {
	var response struct {
		Data []*domain.AnalysisRun `json:"data"`
	}
	if err := c.get("/api/v1/runs", &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

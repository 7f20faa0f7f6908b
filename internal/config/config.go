package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration. It is built once at startup
// and passed into each component; the classification logic never reads the
// environment itself.
type Config struct {
	// GitLab
	AccessToken string
	BaseURL     string

	// GitHub
	GitHubToken string

	// Analysis
	Location      *time.Location
	TimezoneName  string
	AuthorEmails  []string // parsed once from the comma-separated env value
	AnalysisYear  int
	WorkStartHour int
	WorkEndHour   int
	SelectedRepos []string

	// Storage
	StorageType string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	tzName := getEnv("LOCAL_TZ", "Asia/Shanghai")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, &ConfigError{Field: "LOCAL_TZ", Message: "unknown time zone " + tzName}
	}

	return &Config{
		AccessToken:   getEnv("ACCESS_TOKEN", ""),
		BaseURL:       getEnv("BASE_URL", "https://gitlab.com/api/v4"),
		GitHubToken:   getEnv("GITHUB_TOKEN", ""),
		Location:      loc,
		TimezoneName:  tzName,
		AuthorEmails:  splitList(getEnv("AUTHOR_EMAIL", "")),
		AnalysisYear:  getEnvInt("ANALYSIS_YEAR", time.Now().Year()),
		WorkStartHour: getEnvInt("WORK_START_HOUR", 9),
		WorkEndHour:   getEnvInt("WORK_END_HOUR", 18),
		SelectedRepos: splitList(getEnv("SELECTED_REPOS", "")),
		StorageType:   getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:    getEnv("SQLITE_PATH", ""),
		PostgresURL:   getEnv("POSTGRES_URL", ""),
		APIPort:       getEnv("API_PORT", "8080"),
		APIHost:       getEnv("API_HOST", "localhost"),
		APIEndpoint:   getEnv("API_ENDPOINT", "http://localhost:8080"),
	}, nil
}

// SQLitePathFor returns the database file for a platform. GitLab and
// GitHub analyses are independent datasets and default to separate files.
func (c *Config) SQLitePathFor(platform string) string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	if platform == "github" {
		return "./github_overtime.db"
	}
	return "./overtime.db"
}

// Validate validates the configuration for an analysis run
func (c *Config) Validate() error {
	if len(c.AuthorEmails) == 0 {
		return &ConfigError{Field: "AUTHOR_EMAIL", Message: "at least one author email is required"}
	}
	if c.WorkStartHour < 0 || c.WorkStartHour > 23 {
		return &ConfigError{Field: "WORK_START_HOUR", Message: "must be between 0 and 23"}
	}
	if c.WorkEndHour < 0 || c.WorkEndHour > 23 {
		return &ConfigError{Field: "WORK_END_HOUR", Message: "must be between 0 and 23"}
	}
	if c.WorkEndHour <= c.WorkStartHour {
		return &ConfigError{Field: "WORK_END_HOUR", Message: "must be after WORK_START_HOUR"}
	}
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	return nil
}

// ValidatePlatform checks the token for the requested platform
func (c *Config) ValidatePlatform(platform string) error {
	switch platform {
	case "gitlab":
		if c.AccessToken == "" {
			return &ConfigError{Field: "ACCESS_TOKEN", Message: "GitLab access token is required"}
		}
	case "github":
		if c.GitHubToken == "" {
			return &ConfigError{Field: "GITHUB_TOKEN", Message: "GitHub token is required"}
		}
	default:
		return &ConfigError{Field: "platform", Message: "must be 'gitlab' or 'github'"}
	}
	return nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// splitList splits a comma-separated value, trimming whitespace and
// dropping empty entries
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

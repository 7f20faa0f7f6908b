package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/okazaki0127/git-overtime-metrics/internal/aggregator"
	"github.com/okazaki0127/git-overtime-metrics/internal/analyzer"
	"github.com/okazaki0127/git-overtime-metrics/internal/collector"
	"github.com/okazaki0127/git-overtime-metrics/internal/config"
	"github.com/okazaki0127/git-overtime-metrics/internal/overtime"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage/postgres"
	"github.com/okazaki0127/git-overtime-metrics/internal/storage/sqlite"
)

var (
	outputJSON bool
	platform   string
)

var rootCmd = &cobra.Command{
	Use:   "overtime-metrics",
	Short: "Commit-based overtime analysis tool",
	Long: `A CLI tool that scans commit history on GitLab or GitHub, classifies
commits made outside working hours, and records a per-day overtime
duration for reporting.`,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [gitlab|github]",
	Short: "Analyze commit history for overtime",
	Long:  `Fetch the year's commits for every accessible repository and branch and persist deduplicated overtime records.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show overtime statistics",
}

var showSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show overall summary",
	Long:  `Display total hours, active days, and per-repository/per-branch record counts.`,
	RunE:  runShowSummary,
}

var showDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show per-day totals",
	Long:  `Display total overtime hours for each recorded date.`,
	RunE:  runShowDaily,
}

var showRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show past analysis runs",
	RunE:  runShowRuns,
}

var exportCmd = &cobra.Command{
	Use:   "export [file.csv]",
	Short: "Export all records to CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&platform, "platform", "gitlab", "dataset to read (gitlab or github)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	showCmd.AddCommand(showSummaryCmd)
	showCmd.AddCommand(showDailyCmd)
	showCmd.AddCommand(showRunsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getStorage(cfg *config.Config, platform string) (storage.Store, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePathFor(platform))
	}
}

func getCollector(cfg *config.Config, platform string) collector.Collector {
	if platform == "github" {
		return collector.NewGitHubCollector(cfg.GitHubToken)
	}
	return collector.NewGitLabCollector(cfg.AccessToken, cfg.BaseURL)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	target := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.ValidatePlatform(target); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, err := getStorage(cfg, target)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	calc := overtime.NewCalculator(cfg.Location, cfg.WorkStartHour, cfg.WorkEndHour)
	a := analyzer.New(getCollector(cfg, target), store, calc, cfg.AuthorEmails, cfg.SelectedRepos, target, cfg.AnalysisYear)

	fmt.Printf("Analyzing %s commits for %d (%s)\n", target, cfg.AnalysisYear, cfg.TimezoneName)

	run, err := a.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Run %s finished: %d records added\n", run.ID, run.RecordsAdded)
	return nil
}

func runShowSummary(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg, platform)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	agg := aggregator.NewAggregator(store)
	summary, err := agg.Summarize(context.Background())
	if err != nil {
		return fmt.Errorf("failed to summarize: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	fmt.Printf("\nOvertime Summary (%s)\n\n", platform)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Total Hours", fmt.Sprintf("%.2f", summary.TotalHours)})
	table.Append([]string{"Active Days", strconv.Itoa(summary.ActiveDays)})
	table.Append([]string{"Average Hours/Day", fmt.Sprintf("%.2f", summary.AveragePerDay)})
	table.Render()

	if len(summary.RecordsByRepository) > 0 {
		fmt.Println()
		table = tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Repository", "Records"})
		for repo, count := range summary.RecordsByRepository {
			table.Append([]string{repo, strconv.FormatInt(count, 10)})
		}
		table.Render()
	}

	if len(summary.RecordsByBranch) > 0 {
		fmt.Println()
		table = tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Branch", "Records"})
		for branch, count := range summary.RecordsByBranch {
			table.Append([]string{branch, strconv.FormatInt(count, 10)})
		}
		table.Render()
	}

	return nil
}

func runShowDaily(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg, platform)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	agg := aggregator.NewAggregator(store)
	daily, err := agg.Daily(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read daily summary: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(daily)
	}

	fmt.Printf("\nDaily Overtime (%s)\n\n", platform)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Hours"})
	for _, d := range daily {
		table.Append([]string{d.Date, fmt.Sprintf("%.2f", d.TotalHours)})
	}
	table.Render()

	return nil
}

func runShowRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg, platform)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(runs)
	}

	fmt.Printf("\nAnalysis Runs (%s)\n\n", platform)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Started", "Platform", "Year", "Status", "Records"})
	for _, run := range runs {
		table.Append([]string{
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Platform,
			strconv.Itoa(run.Year),
			run.Status,
			strconv.FormatInt(run.RecordsAdded, 10),
		})
	}
	table.Render()

	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	outputPath := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg, platform)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	records, err := store.AllRecords(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"repository_id", "repository_name", "branch", "date",
		"last_commit_time", "hours_worked", "last_commit_message",
		"commit_hash", "author_email",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.RepositoryID,
			r.RepositoryName,
			r.Branch,
			r.Date,
			r.LastCommitTime,
			strconv.FormatFloat(r.HoursWorked, 'f', 2, 64),
			r.LastCommitMessage,
			r.CommitHash,
			r.AuthorEmail,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	fmt.Printf("Exported %d records to %s\n", len(records), outputPath)
	return nil
}

package domain

// DailySummary represents the total billed hours for one calendar date
type DailySummary struct {
	Date       string  `json:"date"`
	TotalHours float64 `json:"total_hours"`
}

// Summary represents overall statistics computed from the stored records
type Summary struct {
	TotalHours          float64          `json:"total_hours"`
	ActiveDays          int              `json:"active_days"`
	AveragePerDay       float64          `json:"average_per_day"`
	RecordsByRepository map[string]int64 `json:"records_by_repository"`
	RecordsByBranch     map[string]int64 `json:"records_by_branch"`
	Daily               []DailySummary   `json:"daily"`
}

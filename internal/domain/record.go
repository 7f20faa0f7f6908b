package domain

// OvertimeRecord represents one persisted overtime entry: the last
// qualifying commit of a (repository, branch, date) bucket together with
// the billed duration for that date.
type OvertimeRecord struct {
	RepositoryID      string  `json:"repository_id"`
	RepositoryName    string  `json:"repository_name"`
	Branch            string  `json:"branch"`
	Date              string  `json:"date"` // local calendar date, YYYY-MM-DD
	LastCommitTime    string  `json:"last_commit_time"` // local, HH:MM:SS
	HoursWorked       float64 `json:"hours_worked"`
	LastCommitMessage string  `json:"last_commit_message"`
	CommitHash        string  `json:"commit_hash"`
	AuthorEmail       string  `json:"author_email"`
}

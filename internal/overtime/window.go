package overtime

import (
	"log"
	"time"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
)

// dateLayout is the bucket key and persisted date format
const dateLayout = "2006-01-02"

// Window represents the overtime bucket for one local calendar date: the
// qualifying commits plus the start boundary the duration is billed from.
// Commits are in insertion order; ComputeHours sorts them before use.
type Window struct {
	Date      string
	IsWeekend bool
	Start     time.Time
	Commits   []domain.Commit
}

// Categorize filters commits down to the configured authors, classifies
// each one against the overtime rules, and groups the survivors into
// per-date windows. Commits with unparseable timestamps are skipped
// individually; the batch is never aborted.
func (c *Calculator) Categorize(commits []domain.Commit, allowedEmails []string) map[string]*Window {
	windows := make(map[string]*Window)

	for _, commit := range commits {
		if !containsEmail(allowedEmails, commit.AuthorEmail) {
			continue
		}

		local, err := c.ParseCommitTime(commit.CreatedAt)
		if err != nil {
			log.Printf("skipping commit %s: %v", commit.Hash, err)
			continue
		}

		if !c.IsOvertime(local) {
			continue
		}

		key := local.Format(dateLayout)
		w, ok := windows[key]
		if !ok {
			w = &Window{
				Date:      key,
				IsWeekend: isWeekendDay(local),
				Start:     c.windowStart(local),
			}
			windows[key] = w
		}
		w.Commits = append(w.Commits, commit)
	}

	return windows
}

// windowStart returns the billing start boundary for the date of the given
// local commit time: work start on weekends, work end on weekdays, at
// minute and second zero.
func (c *Calculator) windowStart(local time.Time) time.Time {
	hour := c.workEndHour
	if isWeekendDay(local) {
		hour = c.workStartHour
	}
	y, m, d := local.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, c.loc)
}

// containsEmail does an exact, case-sensitive membership check
func containsEmail(allowed []string, email string) bool {
	for _, a := range allowed {
		if a == email {
			return true
		}
	}
	return false
}

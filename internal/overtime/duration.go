package overtime

import (
	"log"
	"math"
	"sort"
	"time"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
)

// timeOfDayLayout is the persisted last-commit-time format
const timeOfDayLayout = "15:04:05"

// ComputeHours computes the billed duration for a window and returns the
// representative (chronologically last) commit. ok is false when the
// window produces no record: an empty window or a weekday bucket shorter
// than the minimum duration.
func (c *Calculator) ComputeHours(w *Window) (hours float64, last domain.Commit, ok bool) {
	type timedCommit struct {
		commit domain.Commit
		local  time.Time
	}

	timed := make([]timedCommit, 0, len(w.Commits))
	for _, commit := range w.Commits {
		local, err := c.ParseCommitTime(commit.CreatedAt)
		if err != nil {
			log.Printf("skipping commit %s: %v", commit.Hash, err)
			continue
		}
		timed = append(timed, timedCommit{commit: commit, local: local})
	}
	if len(timed) == 0 {
		return 0, domain.Commit{}, false
	}

	// Stable sort keeps fetch order for identical timestamps.
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].local.Before(timed[j].local)
	})

	end := timed[len(timed)-1].local

	// Bill no later than end of day even if a commit's clock says otherwise.
	y, m, d := end.Date()
	dayEnd := time.Date(y, m, d, OvertimeCutoffHour, 59, 59, 0, c.loc)
	if end.After(dayEnd) {
		end = dayEnd
	}

	hours = end.Sub(w.Start).Hours()
	if !w.IsWeekend && hours < MinWeekdayHours {
		log.Printf("weekday overtime under %.0fh, skipping %s", MinWeekdayHours, w.Date)
		return 0, domain.Commit{}, false
	}

	return roundHours(math.Max(hours, 0)), timed[len(timed)-1].commit, true
}

// NewRecord builds the persisted record for a window from its computed
// duration and representative commit. Earlier commits in the window only
// shaped the bucket; the record carries the last commit's metadata.
func (c *Calculator) NewRecord(repositoryID, repositoryName, branch string, w *Window, hours float64, last domain.Commit, authorEmail string) domain.OvertimeRecord {
	lastTime, err := c.ParseCommitTime(last.CreatedAt)
	if err != nil {
		// ComputeHours already parsed this timestamp; keep the record with
		// a zero time rather than dropping it here.
		log.Printf("unparseable representative commit %s: %v", last.Hash, err)
	}

	return domain.OvertimeRecord{
		RepositoryID:      repositoryID,
		RepositoryName:    repositoryName,
		Branch:            branch,
		Date:              w.Date,
		LastCommitTime:    lastTime.Format(timeOfDayLayout),
		HoursWorked:       hours,
		LastCommitMessage: last.Title,
		CommitHash:        last.Hash,
		AuthorEmail:       authorEmail,
	}
}

// roundHours rounds to two decimal places
func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

package overtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okazaki0127/git-overtime-metrics/internal/domain"
)

func categorizeOne(t *testing.T, calc *Calculator, commits ...domain.Commit) *Window {
	t.Helper()
	windows := calc.Categorize(commits, []string{authorEmail})
	require.Len(t, windows, 1)
	for _, w := range windows {
		return w
	}
	return nil
}

func TestComputeHoursWeekdayUnderMinimumDiscarded(t *testing.T) {
	calc := NewCalculator(shanghai(t), 9, 18)

	// Friday 18:30 with work end 18:00 is a 0.5h bucket.
	w := categorizeOne(t, calc, commit("aaa", "2024-01-05T18:30:00+08:00"))

	_, _, ok := calc.ComputeHours(w)
	assert.False(t, ok)
}

func TestComputeHoursWeekdayExactMinimumRetained(t *testing.T) {
	calc := NewCalculator(shanghai(t), 9, 18)

	w := categorizeOne(t, calc, commit("aaa", "2024-01-05T19:00:00+08:00"))

	hours, last, ok := calc.ComputeHours(w)
	require.True(t, ok)
	assert.Equal(t, 1.0, hours)
	assert.Equal(t, "aaa", last.Hash)
}

func TestComputeHoursWeekendNoMinimum(t *testing.T) {
	calc := NewCalculator(shanghai(t), 9, 18)

	// Saturday 10:00 with work start 9:00 bills exactly one hour.
	w := categorizeOne(t, calc, commit("aaa", "2024-01-06T10:00:00+08:00"))

	hours, _, ok := calc.ComputeHours(w)
	require.True(t, ok)
	assert.Equal(t, 1.0, hours)

	// A half-hour weekend bucket is still retained.
	w = categorizeOne(t, calc, commit("bbb", "2024-01-07T09:30:00+08:00"))
	hours, _, ok = calc.ComputeHours(w)
	require.True(t, ok)
	assert.Equal(t, 0.5, hours)
}

func TestComputeHoursRepresentativeIsLastCommit(t *testing.T) {
	calc := NewCalculator(shanghai(t), 9, 18)

	// Insertion order is not chronological; sorting decides.
	w := categorizeOne(t, calc,
		commit("late", "2024-01-05T21:15:00+08:00"),
		commit("early", "2024-01-05T19:00:00+08:00"),
	)

	hours, last, ok := calc.ComputeHours(w)
	require.True(t, ok)
	assert.Equal(t, 3.25, hours) // 18:00 to 21:15
	assert.Equal(t, "late", last.Hash)
}

func TestComputeHoursCapsAtEndOfDay(t *testing.T) {
	loc := shanghai(t)
	calc := NewCalculator(loc, 9, 18)

	// A weekend commit whose clock reads past the cutoff still bills no
	// later than 23:59:59.
	w := &Window{
		Date:      "2024-01-06",
		IsWeekend: true,
		Start:     time.Date(2024, 1, 6, 9, 0, 0, 0, loc),
		Commits:   []domain.Commit{commit("aaa", "2024-01-06T23:59:59.900+08:00")},
	}

	hours, _, ok := calc.ComputeHours(w)
	require.True(t, ok)
	assert.Equal(t, 15.0, hours) // 09:00:00 to 23:59:59 rounds to 15.00
}

func TestComputeHoursClampsNegative(t *testing.T) {
	loc := shanghai(t)
	calc := NewCalculator(loc, 9, 18)

	// Weekend window whose only commit precedes the work-start boundary.
	w := &Window{
		Date:      "2024-01-06",
		IsWeekend: true,
		Start:     time.Date(2024, 1, 6, 9, 0, 0, 0, loc),
		Commits:   []domain.Commit{commit("aaa", "2024-01-06T02:00:00+08:00")},
	}

	hours, _, ok := calc.ComputeHours(w)
	require.True(t, ok)
	assert.Equal(t, 0.0, hours)
}

func TestComputeHoursEmptyWindow(t *testing.T) {
	loc := shanghai(t)
	calc := NewCalculator(loc, 9, 18)

	w := &Window{
		Date:      "2024-01-05",
		IsWeekend: false,
		Start:     time.Date(2024, 1, 5, 18, 0, 0, 0, loc),
	}

	_, _, ok := calc.ComputeHours(w)
	assert.False(t, ok)
}

func TestComputeHoursRounding(t *testing.T) {
	calc := NewCalculator(shanghai(t), 9, 18)

	// 18:00 to 20:10 is 2.1666...h, rounded to 2.17.
	w := categorizeOne(t, calc, commit("aaa", "2024-01-05T20:10:00+08:00"))

	hours, _, ok := calc.ComputeHours(w)
	require.True(t, ok)
	assert.Equal(t, 2.17, hours)
}

func TestNewRecord(t *testing.T) {
	calc := NewCalculator(shanghai(t), 9, 18)

	w := categorizeOne(t, calc,
		commit("aaa", "2024-01-05T19:00:00+08:00"),
		commit("bbb", "2024-01-05T21:15:00+08:00"),
	)
	hours, last, ok := calc.ComputeHours(w)
	require.True(t, ok)

	record := calc.NewRecord("42", "backend", "main", w, hours, last, authorEmail)

	assert.Equal(t, "42", record.RepositoryID)
	assert.Equal(t, "backend", record.RepositoryName)
	assert.Equal(t, "main", record.Branch)
	assert.Equal(t, "2024-01-05", record.Date)
	assert.Equal(t, "21:15:00", record.LastCommitTime)
	assert.Equal(t, 3.25, record.HoursWorked)
	assert.Equal(t, "commit bbb", record.LastCommitMessage)
	assert.Equal(t, "bbb", record.CommitHash)
	assert.Equal(t, authorEmail, record.AuthorEmail)
}

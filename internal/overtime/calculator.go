package overtime

import (
	"fmt"
	"time"
)

const (
	// OvertimeCutoffHour is the hour after which weekday commits no longer
	// count as overtime. Weekday commits at or past 23:00 are dropped.
	OvertimeCutoffHour = 23

	// MinWeekdayHours is the minimum billed duration for a weekday bucket.
	// Shorter weekday buckets are discarded; weekends have no minimum.
	MinWeekdayHours = 1.0
)

// commitTimeLayouts are the two accepted commit timestamp formats: with
// and without sub-second precision, both with a numeric UTC offset.
var commitTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
}

// Calculator holds the overtime classification rules. It is pure: every
// method yields the same output for the same input, so callers may safely
// re-parse timestamps of already-classified commits.
type Calculator struct {
	loc           *time.Location
	workStartHour int
	workEndHour   int
}

// NewCalculator creates a calculator for the given local time zone and
// working hours
func NewCalculator(loc *time.Location, workStartHour, workEndHour int) *Calculator {
	return &Calculator{
		loc:           loc,
		workStartHour: workStartHour,
		workEndHour:   workEndHour,
	}
}

// ParseCommitTime parses a platform-supplied timestamp string and converts
// it to the configured local zone. Any layout other than the two accepted
// ones is an error; callers skip that commit rather than aborting.
func (c *Calculator) ParseCommitTime(raw string) (time.Time, error) {
	for _, layout := range commitTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(c.loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported commit timestamp %q", raw)
}

// IsOvertime reports whether a local commit time counts as overtime.
// Weekends always do; weekdays only between the work-end hour and the
// cutoff hour.
func (c *Calculator) IsOvertime(t time.Time) bool {
	if isWeekendDay(t) {
		return true
	}
	hour := t.Hour()
	return c.workEndHour <= hour && hour < OvertimeCutoffHour
}

// isWeekendDay reports whether t falls on Saturday or Sunday. The rest of
// the package uses the Monday=0 convention of mondayWeekday.
func isWeekendDay(t time.Time) bool {
	return mondayWeekday(t) >= 5
}

// mondayWeekday returns the weekday with Monday=0 .. Sunday=6
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Reporting windows
// =============================================================================

// Period is an inclusive [Start, End] reporting window at day granularity.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewPeriod(start, end time.Time) Period {
	return Period{Start: Day(start), End: Day(end)}
}

// MonthToDate is [first of the month, now] for now's month.
func MonthToDate(now time.Time) Period {
	now = now.UTC()
	return Period{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:   Day(now),
	}
}

// YearToDate is [January 1, now] for now's year.
func YearToDate(now time.Time) Period {
	now = now.UTC()
	return Period{
		Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   Day(now),
	}
}

// Month is the full calendar month containing t.
func Month(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// AsOf is the unbounded-start window ending at t, used by balance sheet
// queries ("everything up to this date").
func AsOf(t time.Time) Period {
	return Period{Start: time.Time{}, End: Day(t)}
}

func (p Period) Contains(t time.Time) bool {
	t = Day(t)
	return !t.Before(p.Start) && !t.After(p.End)
}

func (p Period) IsValid() bool { return !p.End.Before(p.Start) }

// Key is a stable cache/snapshot key component for the window.
func (p Period) Key() string {
	if p.Start.IsZero() {
		return fmt.Sprintf("asof:%s", p.End.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s:%s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

func (p Period) String() string { return p.Key() }

package lending

import "time"

// Window is a half-open date range [Start, End). A zero Start means the window
// is unbounded on the left.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	return t.Before(w.End)
}

// SweepWindows holds the three classification windows derived from a single
// reference instant. All boundaries are truncated to midnight so the same
// sweep is correct no matter what time of day the trigger fires.
type SweepWindows struct {
	Today        time.Time
	NewlyOverdue Window
	DueToday     Window
	DueSoon      Window
}

// WindowsAt derives the sweep windows for the given instant:
//
//	newlyOverdue: (-inf, today)
//	dueToday:     [today, today+1d)
//	dueSoon:      [today+3d, today+4d)
func WindowsAt(now time.Time) SweepWindows {
	today := TruncateToMidnight(now)
	return SweepWindows{
		Today:        today,
		NewlyOverdue: Window{End: today},
		DueToday:     Window{Start: today, End: today.AddDate(0, 0, 1)},
		DueSoon:      Window{Start: today.AddDate(0, 0, 3), End: today.AddDate(0, 0, 4)},
	}
}

// TruncateToMidnight drops the time-of-day component, keeping the location.
func TruncateToMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

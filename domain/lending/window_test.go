package lending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", value, err)
	}
	return parsed
}

func TestWindowsAt(t *testing.T) {
	now := mustParse(t, "2024-03-10T15:00:00Z")
	w := WindowsAt(now)

	assert.Equal(t, mustParse(t, "2024-03-10T00:00:00Z"), w.Today)

	t.Run("newly overdue window", func(t *testing.T) {
		assert.True(t, w.NewlyOverdue.Contains(mustParse(t, "2024-03-09T23:59:59Z")))
		assert.True(t, w.NewlyOverdue.Contains(mustParse(t, "2020-01-01T00:00:00Z")))
		assert.False(t, w.NewlyOverdue.Contains(mustParse(t, "2024-03-10T00:00:00Z")))
	})

	t.Run("due today window", func(t *testing.T) {
		assert.True(t, w.DueToday.Contains(mustParse(t, "2024-03-10T00:00:00Z")))
		assert.True(t, w.DueToday.Contains(mustParse(t, "2024-03-10T08:00:00Z")))
		assert.False(t, w.DueToday.Contains(mustParse(t, "2024-03-11T00:00:00Z")))
		assert.False(t, w.DueToday.Contains(mustParse(t, "2024-03-09T23:59:59Z")))
	})

	t.Run("due soon window", func(t *testing.T) {
		assert.True(t, w.DueSoon.Contains(mustParse(t, "2024-03-13T00:00:00Z")))
		assert.True(t, w.DueSoon.Contains(mustParse(t, "2024-03-13T12:00:00Z")))
		assert.False(t, w.DueSoon.Contains(mustParse(t, "2024-03-12T23:59:59Z")))
		assert.False(t, w.DueSoon.Contains(mustParse(t, "2024-03-14T00:00:00Z")))
	})

	t.Run("windows do not overlap", func(t *testing.T) {
		probe := mustParse(t, "2024-03-10T12:00:00Z")
		matches := 0
		for _, win := range []Window{w.NewlyOverdue, w.DueToday, w.DueSoon} {
			if win.Contains(probe) {
				matches++
			}
		}
		assert.Equal(t, 1, matches)
	})
}

func TestWindowsAtIsDeterministic(t *testing.T) {
	morning := mustParse(t, "2024-03-10T00:30:00Z")
	evening := mustParse(t, "2024-03-10T23:30:00Z")

	assert.Equal(t, WindowsAt(morning), WindowsAt(evening))
}

func TestTruncateToMidnightKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*3600)
	now := time.Date(2024, 3, 10, 19, 45, 12, 500, loc)

	midnight := TruncateToMidnight(now)

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), midnight)
	assert.Equal(t, loc, midnight.Location())
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds int64
		want    string
	}{
		{name: "zero", seconds: 0, want: "00:00:00"},
		{name: "hour minute second", seconds: 3661, want: "01:01:01"},
		{name: "ninety minutes", seconds: 5400, want: "01:30:00"},
		{name: "seconds only", seconds: 59, want: "00:00:59"},
		{name: "over a day keeps hours", seconds: 90000, want: "25:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}

func entryWithDuration(d time.Duration) *TimeEntry {
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(d)
	return &TimeEntry{Start: start, End: &end}
}

func TestTimeEntry_TrackedTime(t *testing.T) {
	assert.EqualValues(t, 5400, entryWithDuration(90*time.Minute).TrackedTime())

	open := &TimeEntry{Start: time.Now()}
	assert.EqualValues(t, 0, open.TrackedTime())
}

func TestTimeEntry_TrackedTimeDisplay(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{name: "minutes only", duration: 45 * time.Minute, want: "45m"},
		{name: "hours and minutes", duration: 2*time.Hour + 15*time.Minute, want: "2h 15m"},
		{name: "thousand hours collapse", duration: 1000 * time.Hour, want: "1.0k h"},
		{name: "million hours collapse", duration: 1000000 * time.Hour, want: "1000.0k h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entryWithDuration(tt.duration).TrackedTimeDisplay())
		})
	}
}

func TestTimeEntry_Snapshot(t *testing.T) {
	entry := entryWithDuration(time.Hour)
	entry.ID = 11
	entry.TaskID = 3
	entry.UserID = 5
	entry.ContainerID = 2
	entry.Billable = true
	entry.BillableRate = 20

	snap := entry.Snapshot()
	assert.EqualValues(t, 11, snap["id"])
	assert.Equal(t, "2024-01-10T09:00:00Z", snap["start"])
	assert.Equal(t, "2024-01-10T10:00:00Z", snap["end"])
	assert.Equal(t, true, snap["billable"])
	assert.Nil(t, snap["amount_paid"])
}

func TestEntryChanges_OnlyDiff(t *testing.T) {
	entry := entryWithDuration(time.Hour)
	old := entry.Snapshot()

	later := entry.Start.Add(2 * time.Hour)
	entry.End = &later
	entry.StoppedBySystem = true

	changes := EntryChanges(old, entry.Snapshot())
	require.Len(t, changes, 2)
	assert.Equal(t, "2024-01-10T11:00:00Z", changes["end"])
	assert.Equal(t, true, changes["stopped_by_system"])
}

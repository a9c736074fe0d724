package models

import (
	"fmt"
	"reflect"
	"time"

	"gorm.io/gorm"
)

// TimeEntry — запись учёта времени по задаче.
// Открытый таймер — запись с end IS NULL; на пару (task, user)
// одновременно может быть не больше одной такой записи.
type TimeEntry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	TaskID uint  `gorm:"index" json:"task_id"`
	Task   *Task `json:"task,omitempty"`

	UserID uint  `gorm:"index" json:"user_id"`
	User   *User `json:"user,omitempty"`

	ContainerID uint  `gorm:"index" json:"container_id"`
	MemberID    *uint `json:"member_id"`

	Start time.Time  `gorm:"not null" json:"start"`
	End   *time.Time `json:"end"`

	Billable     bool    `json:"billable"`
	BillableRate float64 `json:"billable_rate"`

	AddedManually   bool `json:"added_manually"`
	StoppedBySystem bool `json:"stopped_by_system"`

	IsPaid     bool     `json:"is_paid"`
	AmountPaid *float64 `json:"amount_paid"`
	PaidRate   *float64 `json:"paid_rate"`
}

// TrackedTime — длительность в секундах; для открытого таймера 0.
func (e *TimeEntry) TrackedTime() int64 {
	if e.End == nil {
		return 0
	}
	return int64(e.End.Sub(e.Start).Seconds())
}

// TrackedTimeDisplay — короткий формат для списков:
// "2h 15m" / "45m", от 1000 часов — "1.2k h".
func (e *TimeEntry) TrackedTimeDisplay() string {
	seconds := e.TrackedTime()
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours >= 1000 {
		return fmt.Sprintf("%.1fk h", float64(hours)/1000)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatDuration — формат HH:MM:SS
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// Snapshot — полное состояние записи для журнала аудита.
func (e *TimeEntry) Snapshot() JSONMap {
	snap := JSONMap{
		"id":                e.ID,
		"task_id":           e.TaskID,
		"user_id":           e.UserID,
		"container_id":      e.ContainerID,
		"member_id":         nil,
		"start":             e.Start.UTC().Format(time.RFC3339),
		"end":               nil,
		"billable":          e.Billable,
		"billable_rate":     e.BillableRate,
		"added_manually":    e.AddedManually,
		"stopped_by_system": e.StoppedBySystem,
		"is_paid":           e.IsPaid,
		"amount_paid":       nil,
		"paid_rate":         nil,
	}
	if e.MemberID != nil {
		snap["member_id"] = *e.MemberID
	}
	if e.End != nil {
		snap["end"] = e.End.UTC().Format(time.RFC3339)
	}
	if e.AmountPaid != nil {
		snap["amount_paid"] = *e.AmountPaid
	}
	if e.PaidRate != nil {
		snap["paid_rate"] = *e.PaidRate
	}
	return snap
}

// EntryChanges — только изменившиеся поля между двумя снимками.
func EntryChanges(old, updated JSONMap) JSONMap {
	changes := JSONMap{}
	for key, value := range updated {
		if !reflect.DeepEqual(old[key], value) {
			changes[key] = value
		}
	}
	return changes
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	gorm.Model
	BoardID uint   `gorm:"index" json:"board_id"`
	Board   *Board `json:"board,omitempty"`

	Name string `gorm:"size:255;not null" json:"name"`
	// сквозной номер задачи внутри контейнера, показывается как "Task #N"
	SequenceID int64      `gorm:"index" json:"sequence_id"`
	Priority   string     `gorm:"size:20" json:"priority"`
	DueDate    *time.Time `json:"due_date"`
	Order      int        `gorm:"default:0" json:"order"`

	Members     []TaskMember `json:"members,omitempty"`
	TimeEntries []TimeEntry  `json:"time_entries,omitempty"`
}

// TaskMember — назначение участника на задачу.
// Ставка и флаги копируются из Member контейнера на момент назначения.
type TaskMember struct {
	gorm.Model
	TaskID uint  `gorm:"index" json:"task_id"`
	UserID uint  `gorm:"index" json:"user_id"`
	User   *User `json:"user,omitempty"`

	CanTiming    bool    `json:"can_timing"`
	Billable     bool    `json:"billable"`
	BillableRate float64 `json:"billable_rate"`
}

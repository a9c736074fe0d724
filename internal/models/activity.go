package models

import "time"

// теги событий ленты активности
const (
	EventCreated            = "created"
	EventUpdated            = "updated"
	EventDeleted            = "deleted"
	EventMemberAdded        = "member_added"
	EventMemberRemoved      = "member_removed"
	EventTimeEntryCompleted = "time_entry_completed"
	EventTimeEntryDeleted   = "time_entry_deleted"
	EventTimeEntryUpdated   = "time_entry_updated"
)

// типы субъектов активности
const (
	SubjectTask      = "Task"
	SubjectTimeEntry = "TimeEntry"
	SubjectContainer = "Container"
)

// Activity — человекочитаемая лента событий контейнера.
// Отдельна от Log: свободный тег события + свой формат properties на тег.
type Activity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ContainerID uint  `gorm:"index" json:"container_id"`
	UserID      *uint `json:"user_id"`
	User        *User `json:"user,omitempty"`

	SubjectType string `gorm:"size:50;index:idx_subject" json:"subject_type"`
	SubjectID   uint   `gorm:"index:idx_subject" json:"subject_id"`

	Event      string  `gorm:"size:50;not null" json:"event"`
	Properties JSONMap `gorm:"serializer:json" json:"properties"`

	// события одного батча (ручная правка таймеров) помечаются общим uuid
	BatchUUID string `gorm:"size:36" json:"batch_uuid,omitempty"`
}

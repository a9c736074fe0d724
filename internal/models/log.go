package models

import "time"

type LogAction string

const (
	LogCreate LogAction = "CREATE"
	LogUpdate LogAction = "UPDATE"
	LogDelete LogAction = "DELETE"
)

// типы отслеживаемых сущностей в журнале
const (
	LoggableTimeEntry = "time_entry"
)

// Log — неизменяемая запись журнала аудита: одна запись на каждую
// мутацию отслеживаемой сущности, со старым и новым состоянием.
// task_id и container_id денормализованы для выборок без join-ов.
type Log struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	LoggableType string `gorm:"size:50;not null;index:idx_loggable" json:"loggable_type"`
	LoggableID   uint   `gorm:"index:idx_loggable" json:"loggable_id"`

	// nil, если мутация системная (без аутентифицированного пользователя)
	UserID *uint `json:"user_id"`
	User   *User `json:"user,omitempty"`

	Action  LogAction `gorm:"size:20;not null" json:"action"`
	OldData JSONMap   `gorm:"serializer:json" json:"old_data"`
	NewData JSONMap   `gorm:"serializer:json" json:"new_data"`

	TaskID      uint `gorm:"index" json:"task_id"`
	ContainerID uint `gorm:"index" json:"container_id"`
}

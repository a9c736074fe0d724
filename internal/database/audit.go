package database

import (
	"gorm.io/gorm"

	"taskhub/internal/models"
)

type LogInput struct {
	LoggableType string
	LoggableID   uint
	// nil для системных мутаций
	ActorID *uint
	Action  models.LogAction
	OldData models.JSONMap
	NewData models.JSONMap

	TaskID      uint
	ContainerID uint
}

// WriteLog пишет запись журнала аудита в той же транзакции, что и мутация.
// Ошибка возвращается наверх: молчаливая потеря аудита недопустима,
// неудавшаяся запись валит всю транзакцию.
func WriteLog(tx *gorm.DB, in LogInput) error {
	record := models.Log{
		LoggableType: in.LoggableType,
		LoggableID:   in.LoggableID,
		UserID:       in.ActorID,
		Action:       in.Action,
		OldData:      in.OldData,
		NewData:      in.NewData,
		TaskID:       in.TaskID,
		ContainerID:  in.ContainerID,
	}
	return tx.Create(&record).Error
}

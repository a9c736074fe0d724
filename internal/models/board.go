package models

import "gorm.io/gorm"

type Board struct {
	gorm.Model
	ContainerID uint   `gorm:"index" json:"container_id"`
	Name        string `gorm:"size:255;not null" json:"name"`

	Tasks []Task `json:"tasks,omitempty"`
}

package models

import "gorm.io/gorm"

type Notification struct {
	gorm.Model
	UserID uint `gorm:"index" json:"user_id"`

	Title   string  `gorm:"size:255;not null" json:"title"`
	Content string  `gorm:"type:text" json:"content"`
	Type    string  `gorm:"size:50" json:"type"`
	Data    JSONMap `gorm:"serializer:json" json:"data"`
	IsSeen  bool    `gorm:"default:false" json:"is_seen"`

	ReferenceID   uint   `json:"reference_id"`
	ReferenceType string `gorm:"size:50" json:"reference_type"`
}

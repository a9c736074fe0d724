package models

import "gorm.io/gorm"

// Payment — выплата участнику за закрытые записи времени.
type Payment struct {
	gorm.Model
	ContainerID uint `gorm:"index" json:"container_id"`
	UserID      uint `gorm:"index" json:"user_id"`
	MemberID    uint `json:"member_id"`

	Amount float64 `json:"amount"`
	// ставка участника на момент выплаты
	Rate float64 `json:"rate"`
}

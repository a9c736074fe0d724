package models

import "gorm.io/gorm"

// Container — рабочее пространство: доски, задачи, участники.
// Биллинг (ставки участников) привязан именно к контейнеру.
type Container struct {
	gorm.Model
	Name    string `gorm:"size:255;not null" json:"name"`
	OwnerID uint   `json:"owner_id"`
	Owner   *User  `json:"owner,omitempty"`

	Boards  []Board  `json:"boards,omitempty"`
	Members []Member `json:"members,omitempty"`
}

// Member — участие пользователя в контейнере.
// Здесь живёт почасовая ставка и право вести учёт времени.
type Member struct {
	gorm.Model
	ContainerID uint  `gorm:"index" json:"container_id"`
	UserID      uint  `gorm:"index" json:"user_id"`
	User        *User `json:"user,omitempty"`

	CanTiming    bool    `gorm:"default:true" json:"can_timing"`
	Billable     bool    `json:"billable"`
	BillableRate float64 `json:"billable_rate"`
}

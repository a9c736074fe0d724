package models

import (
	"strings"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName    string `gorm:"size:100;not null" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Avatar       string `gorm:"size:512" json:"avatar"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// аватар либо инициалы, если аватар не загружен
func (u *User) AvatarOrInitials() string {
	if u.Avatar != "" {
		return u.Avatar
	}
	initials := ""
	if u.FirstName != "" {
		initials += string([]rune(u.FirstName)[0])
	}
	if u.LastName != "" {
		initials += string([]rune(u.LastName)[0])
	}
	return strings.ToUpper(initials)
}

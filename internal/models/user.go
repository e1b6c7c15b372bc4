package models

import (
	"gorm.io/gorm"
)

// User is an operator signed in through Discord.
type User struct {
	gorm.Model
	DiscordID string `gorm:"uniqueIndex" json:"discord_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	Blocked   bool   `gorm:"not null;default:false" json:"blocked"`
}

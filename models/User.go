package models

import "gorm.io/gorm"

// User represents a bakery account that can authenticate with the platform.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
	BakeryName   string `gorm:"type:varchar(120)"`
}

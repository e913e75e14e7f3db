package models

import "gorm.io/gorm"

// Category groups products for display and reporting. Categories are scoped
// to their owner and soft-deleted so historical products keep their link.
type Category struct {
	gorm.Model
	Name    string `gorm:"not null" json:"name"`
	OwnerID uint   `gorm:"not null;index" json:"owner_id"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

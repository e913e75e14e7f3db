package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord tracks the on-hand quantity of one product for one owner.
// Exactly one record exists per (owner, product); it is created alongside the
// product and only ever mutated through relative adjustments. Quantity is
// signed: batch deduction may drive it negative, which represents
// over-consumption against stock not yet received.
//
// InventoryRecord has no soft delete. The record outlives product
// deactivation so historical quantity is preserved.
type InventoryRecord struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	OwnerID      uint            `gorm:"not null;uniqueIndex:idx_inventory_owner_product" json:"owner_id"`
	ProductID    uint            `gorm:"not null;uniqueIndex:idx_inventory_owner_product" json:"product_id"`
	Quantity     decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"quantity"`
	MinThreshold decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"min_threshold"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// LowStock reports whether the on-hand quantity has fallen to or below the
// configured threshold.
func (r InventoryRecord) LowStock() bool {
	return r.Quantity.LessThanOrEqual(r.MinThreshold)
}

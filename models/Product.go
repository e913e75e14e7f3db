package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product kinds. A product can be sold, consumed as a recipe ingredient, or
// both (a croissant sold whole and also used in a bread pudding recipe).
const (
	KindSellable   = "sellable"
	KindIngredient = "ingredient"
	KindBoth       = "both"
)

// DefaultKind is applied when a product is created without a discriminator.
const DefaultKind = KindSellable

type Product struct {
	gorm.Model
	Name       string              `gorm:"not null;index" json:"name"`
	Unit       string              `gorm:"not null;default:unit" json:"unit"`
	UnitPrice  decimal.Decimal     `gorm:"type:numeric;not null;default:0" json:"unit_price"`
	UnitCost   decimal.NullDecimal `gorm:"type:numeric" json:"unit_cost"`
	Kind       string              `gorm:"type:varchar(16);not null;default:sellable" json:"kind"`
	Active     bool                `gorm:"not null;default:true" json:"active"`
	CategoryID *uint               `gorm:"index" json:"category_id,omitempty"`
	Category   *Category           `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	OwnerID    uint                `gorm:"not null;index" json:"owner_id"`
	Owner      *User               `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// UsableAsIngredient reports whether the product may appear as a recipe line
// ingredient. Inactive products are excluded from new composition even when
// their kind allows it.
func (p Product) UsableAsIngredient() bool {
	return p.Active && (p.Kind == KindIngredient || p.Kind == KindBoth)
}

// Sellable reports whether the product may appear in sale flows.
func (p Product) Sellable() bool {
	return p.Active && (p.Kind == KindSellable || p.Kind == KindBoth)
}

// ValidKind reports whether the value is a recognised product kind.
func ValidKind(value string) bool {
	switch value {
	case KindSellable, KindIngredient, KindBoth:
		return true
	}
	return false
}

// NormalizeKind trims and lowers the value, falling back to DefaultKind for
// anything unrecognised.
func NormalizeKind(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if ValidKind(normalized) {
		return normalized
	}
	return DefaultKind
}

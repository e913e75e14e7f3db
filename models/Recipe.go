package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipe defines how a product is produced: a batch size and the ingredient
// lines consumed by one batch. Batch size lives here, on the recipe itself,
// so every line of a product necessarily shares the same value.
type Recipe struct {
	gorm.Model
	ProductID uint            `gorm:"uniqueIndex;not null" json:"product_id"`
	BatchSize decimal.Decimal `gorm:"type:numeric;not null" json:"batch_size"`
	Lines     []RecipeLine    `gorm:"foreignKey:RecipeID" json:"lines"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// RecipeLine is one ingredient of a recipe: the product consumed and how much
// of it one batch requires. Quantity must be positive; the ingredient must be
// a different product than the recipe's parent.
type RecipeLine struct {
	gorm.Model
	RecipeID     uint            `gorm:"not null;index" json:"recipe_id"`
	IngredientID uint            `gorm:"not null;index" json:"ingredient_id"`
	Quantity     decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`

	Ingredient *Product `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}

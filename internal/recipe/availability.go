package recipe

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shortfall describes one ingredient whose on-hand quantity is below what a
// production run requires.
type Shortfall struct {
	IngredientID uint            `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
}

func (s Shortfall) String() string {
	return fmt.Sprintf("%s: need %s %s, have %s %s", s.Name, s.Required, s.Unit, s.Available, s.Unit)
}

// Availability is the result of a stock sufficiency check.
type Availability struct {
	CanMake bool        `json:"can_make"`
	Missing []Shortfall `json:"missing"`
}

// CheckAvailability reports whether the ledger holds enough of every
// ingredient to produce batchMultiple batches of the product. Ingredients
// without an inventory record count as zero on hand; a product with no
// recipe lines can trivially be made.
//
// The check is advisory only. It takes no locks and performs no mutation, so
// stock may move between this call and a subsequent deduction; callers that
// need the pair to be atomic should use ProduceBatch.
func (s *Service) CheckAvailability(ctx context.Context, ownerID, productID uint, batchMultiple decimal.Decimal) (*Availability, error) {
	if !batchMultiple.IsPositive() {
		return nil, fmt.Errorf("%w: batch multiple must be positive, got %s", ErrInvalidInput, batchMultiple)
	}
	return s.availability(s.db.WithContext(ctx), ownerID, productID, batchMultiple)
}

func (s *Service) availability(tx *gorm.DB, ownerID, productID uint, batchMultiple decimal.Decimal) (*Availability, error) {
	details, err := s.ingredientsTx(tx, productID)
	if err != nil {
		return nil, err
	}

	result := &Availability{CanMake: true, Missing: []Shortfall{}}

	for _, detail := range details {
		required := detail.Quantity.Mul(batchMultiple)
		available, err := s.ledger.QuantityTx(tx, ownerID, detail.IngredientID)
		if err != nil {
			return nil, err
		}

		if available.LessThan(required) {
			result.CanMake = false
			result.Missing = append(result.Missing, Shortfall{
				IngredientID: detail.IngredientID,
				Name:         detail.Name,
				Unit:         detail.Unit,
				Required:     required,
				Available:    available,
			})
		}
	}

	return result, nil
}

package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"flourcast/internal/inventory"
)

// InsufficientStockError is returned by ProduceBatch when the availability
// check fails inside the production transaction.
type InsufficientStockError struct {
	Missing []Shortfall
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("recipe: insufficient stock for %d ingredient(s)", len(e.Missing))
}

// DeductForBatch consumes ingredient stock for batchesMade completed batches
// of the product. Every line's deduction is applied inside one transaction:
// either the full batch commitment lands or none of it does, and a failure
// names the ingredient that could not be deducted.
//
// The executor does not check availability first; deduction below zero is
// legal and records over-consumption. Callers wanting the check-then-deduct
// pair to be atomic should use ProduceBatch instead.
func (s *Service) DeductForBatch(ctx context.Context, ownerID, productID uint, batchesMade decimal.Decimal) error {
	if !batchesMade.IsPositive() {
		return fmt.Errorf("%w: batches made must be positive, got %s", ErrInvalidInput, batchesMade)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		details, err := s.ingredientsTx(tx, productID)
		if err != nil {
			return err
		}
		return s.deduct(tx, ownerID, details, batchesMade)
	})
}

func (s *Service) deduct(tx *gorm.DB, ownerID uint, details []IngredientDetail, batchesMade decimal.Decimal) error {
	for _, detail := range details {
		delta := detail.Quantity.Mul(batchesMade).Neg()
		if err := s.ledger.AdjustTx(tx, ownerID, detail.IngredientID, delta); err != nil {
			if errors.Is(err, inventory.ErrNoRecord) {
				return &DeductionError{IngredientID: detail.IngredientID, Name: detail.Name, Err: err}
			}
			return fmt.Errorf("deduct ingredient %q: %w", detail.Name, err)
		}
	}
	return nil
}

// ProduceBatch records a completed production run as one unit of work: the
// availability check, the ingredient deduction, and the crediting of the
// finished product's own stock all happen inside a single transaction. This
// closes the time-of-check-to-time-of-use gap that separate CheckAvailability
// and DeductForBatch calls leave open.
func (s *Service) ProduceBatch(ctx context.Context, ownerID, productID uint, batches decimal.Decimal) error {
	if !batches.IsPositive() {
		return fmt.Errorf("%w: batches must be positive, got %s", ErrInvalidInput, batches)
	}

	if _, err := s.ownedProduct(ctx, ownerID, productID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.recipeForTx(tx, productID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%w: no recipe for product %d", ErrNotFound, productID)
		}

		availability, err := s.availability(tx, ownerID, productID, batches)
		if err != nil {
			return err
		}
		if !availability.CanMake {
			return &InsufficientStockError{Missing: availability.Missing}
		}

		details, err := s.ingredientsTx(tx, productID)
		if err != nil {
			return err
		}
		if err := s.deduct(tx, ownerID, details, batches); err != nil {
			return err
		}

		produced := rec.BatchSize.Mul(batches)
		if err := s.ledger.AdjustTx(tx, ownerID, productID, produced); err != nil {
			return fmt.Errorf("credit produced stock: %w", err)
		}
		return nil
	})
}

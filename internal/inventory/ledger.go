// Package inventory implements the stock ledger: one signed quantity per
// (owner, product), mutated only through relative adjustments.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"flourcast/models"
)

// ErrNoRecord is returned when a targeted adjustment or read finds no
// inventory record for the product.
var ErrNoRecord = errors.New("inventory: no record for product")

// Ledger reads and adjusts on-hand quantities.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Quantity returns the current on-hand quantity for the product, or zero when
// no record exists.
func (l *Ledger) Quantity(ctx context.Context, ownerID, productID uint) (decimal.Decimal, error) {
	return l.QuantityTx(l.db.WithContext(ctx), ownerID, productID)
}

// QuantityTx is the transaction-scoped variant of Quantity.
func (l *Ledger) QuantityTx(tx *gorm.DB, ownerID, productID uint) (decimal.Decimal, error) {
	var record models.InventoryRecord
	err := tx.Where("owner_id = ? AND product_id = ?", ownerID, productID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("load inventory record: %w", err)
	}
	return record.Quantity, nil
}

// Record returns the full inventory record for the product. Unlike Quantity,
// an absent record is an error.
func (l *Ledger) Record(ctx context.Context, ownerID, productID uint) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := l.db.WithContext(ctx).Where("owner_id = ? AND product_id = ?", ownerID, productID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("load inventory record: %w", err)
	}
	return &record, nil
}

// Records lists every inventory record for the owner, joined product first.
func (l *Ledger) Records(ctx context.Context, ownerID uint) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := l.db.WithContext(ctx).
		Preload("Product").
		Where("owner_id = ?", ownerID).
		Order("product_id asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list inventory records: %w", err)
	}
	return records, nil
}

// adjustRetries bounds how often a lost optimistic write is re-attempted.
const adjustRetries = 5

// Adjust applies a relative quantity change. Positive deltas receive stock,
// negative deltas consume it; the resulting quantity may go negative.
func (l *Ledger) Adjust(ctx context.Context, ownerID, productID uint, delta decimal.Decimal) error {
	return l.AdjustTx(l.db.WithContext(ctx), ownerID, productID, delta)
}

// AdjustTx is the transaction-scoped variant of Adjust. The addition happens
// in decimal space rather than in the database engine, so quantities never
// pass through floating point. The write is guarded by a compare against the
// quantity that was read; a concurrent adjustment makes the guard miss and
// the read-add-write is retried on a fresh snapshot.
func (l *Ledger) AdjustTx(tx *gorm.DB, ownerID, productID uint, delta decimal.Decimal) error {
	for attempt := 0; attempt < adjustRetries; attempt++ {
		var record models.InventoryRecord
		err := tx.Where("owner_id = ? AND product_id = ?", ownerID, productID).First(&record).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoRecord
			}
			return fmt.Errorf("adjust inventory: %w", err)
		}

		result := tx.Model(&models.InventoryRecord{}).
			Where("id = ? AND quantity = ?", record.ID, record.Quantity).
			Updates(map[string]any{
				"quantity":   record.Quantity.Add(delta),
				"updated_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("adjust inventory: %w", result.Error)
		}
		if result.RowsAffected == 1 {
			return nil
		}
	}
	return fmt.Errorf("adjust inventory: concurrent updates exhausted retries for product %d", productID)
}

// SetThreshold updates the low-stock threshold for the product's record.
func (l *Ledger) SetThreshold(ctx context.Context, ownerID, productID uint, threshold decimal.Decimal) error {
	result := l.db.WithContext(ctx).Model(&models.InventoryRecord{}).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Update("min_threshold", threshold)
	if result.Error != nil {
		return fmt.Errorf("set inventory threshold: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoRecord
	}
	return nil
}

// LowStock lists the owner's records whose quantity has fallen to or below
// their threshold.
func (l *Ledger) LowStock(ctx context.Context, ownerID uint) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := l.db.WithContext(ctx).
		Preload("Product").
		Where("owner_id = ? AND quantity <= min_threshold", ownerID).
		Order("product_id asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list low stock records: %w", err)
	}
	return records, nil
}

package recipe

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	applog "flourcast/internal/log"
)

// CostLine is one ingredient's contribution to a batch cost.
type CostLine struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CostBreakdown is the derived cost of producing one batch of a product. It
// is computed on demand and never persisted.
//
// Ingredients without a unit cost are costed at zero rather than failing the
// whole computation; their names are surfaced in MissingCosts so callers can
// tell an exact figure from an under-costed one.
type CostBreakdown struct {
	TotalCost    decimal.Decimal `json:"total_cost"`
	PerUnitCost  decimal.Decimal `json:"per_unit_cost"`
	BatchSize    decimal.Decimal `json:"batch_size"`
	Lines        []CostLine      `json:"lines"`
	MissingCosts []string        `json:"missing_costs,omitempty"`
}

// Cost derives the batch and per-unit cost of the product from its recipe.
// It returns nil for a product that exists but has no recipe lines, and
// ErrNotFound when the product id itself is unknown. The computation only
// reads; it has no side effects.
func (s *Service) Cost(ctx context.Context, ownerID, productID uint) (*CostBreakdown, error) {
	if _, err := s.ownedProduct(ctx, ownerID, productID); err != nil {
		return nil, err
	}

	details, err := s.Ingredients(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, nil
	}

	breakdown := &CostBreakdown{
		TotalCost: decimal.Zero,
		BatchSize: details[0].BatchSize,
		Lines:     make([]CostLine, 0, len(details)),
	}

	for _, detail := range details {
		unitCost := decimal.Zero
		if detail.UnitCost.Valid {
			unitCost = detail.UnitCost.Decimal
		} else {
			breakdown.MissingCosts = append(breakdown.MissingCosts, detail.Name)
		}

		lineTotal := unitCost.Mul(detail.Quantity)
		breakdown.TotalCost = breakdown.TotalCost.Add(lineTotal)
		breakdown.Lines = append(breakdown.Lines, CostLine{
			Name:      detail.Name,
			Quantity:  detail.Quantity,
			Unit:      detail.Unit,
			UnitCost:  unitCost,
			LineTotal: lineTotal,
		})
	}

	if len(breakdown.MissingCosts) > 0 {
		applog.Warn(ctx, "cost derived with uncosted ingredients",
			"productID", productID, "ingredients", breakdown.MissingCosts)
	}

	if !breakdown.BatchSize.IsPositive() {
		return nil, fmt.Errorf("%w: recipe for product %d has non-positive batch size", ErrInvalidInput, productID)
	}
	breakdown.PerUnitCost = breakdown.TotalCost.Div(breakdown.BatchSize)

	return breakdown, nil
}

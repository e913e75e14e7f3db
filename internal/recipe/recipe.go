// Package recipe implements the recipe and inventory consistency engine: the
// bill of materials for each product, the cost derived from it, and the stock
// checks and deductions that accompany a production run.
package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"flourcast/internal/inventory"
	"flourcast/models"
)

var (
	// ErrInvalidInput covers non-positive quantities and batch sizes,
	// self-referential ingredients, and composition that would create a
	// cycle. It is raised before any store write.
	ErrInvalidInput = errors.New("recipe: invalid input")

	// ErrNotFound is returned by targeted updates and cost lookups on ids
	// that do not exist. Deletes are idempotent and never return it.
	ErrNotFound = errors.New("recipe: not found")
)

// DeductionError reports a batch deduction that could not be applied. The
// surrounding transaction is rolled back, so no partial deduction from the
// failing call survives.
type DeductionError struct {
	IngredientID uint
	Name         string
	Err          error
}

func (e *DeductionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("recipe: deduction failed for ingredient %q (id %d): %v", e.Name, e.IngredientID, e.Err)
	}
	return fmt.Sprintf("recipe: deduction failed for ingredient id %d: %v", e.IngredientID, e.Err)
}

func (e *DeductionError) Unwrap() error { return e.Err }

// Service is the engine's entry point. It reads the catalog and recipe
// tables directly and goes through the Ledger for every stock mutation.
type Service struct {
	db     *gorm.DB
	ledger *inventory.Ledger
}

func NewService(db *gorm.DB, ledger *inventory.Ledger) *Service {
	return &Service{db: db, ledger: ledger}
}

// IngredientDetail is one recipe line joined with its ingredient product.
type IngredientDetail struct {
	LineID       uint                `gorm:"column:line_id" json:"line_id"`
	IngredientID uint                `gorm:"column:ingredient_id" json:"ingredient_id"`
	Name         string              `gorm:"column:name" json:"name"`
	Unit         string              `gorm:"column:unit" json:"unit"`
	UnitCost     decimal.NullDecimal `gorm:"column:unit_cost" json:"unit_cost"`
	Quantity     decimal.Decimal     `gorm:"column:quantity" json:"quantity"`
	BatchSize    decimal.Decimal     `gorm:"-" json:"batch_size"`
}

// AddIngredient appends one line to the product's recipe, creating the recipe
// on first use. Batch size is a property of the recipe itself: the value
// passed here becomes the recipe's batch size, so every line always agrees.
//
// The ingredient must be an active ingredient-kind product owned by the same
// account, must differ from the parent, and must not make the parent
// reachable from itself through nested recipes.
func (s *Service) AddIngredient(ctx context.Context, ownerID, productID, ingredientID uint, quantity, batchSize decimal.Decimal) (*models.RecipeLine, error) {
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidInput, quantity)
	}
	if !batchSize.IsPositive() {
		return nil, fmt.Errorf("%w: batch size must be positive, got %s", ErrInvalidInput, batchSize)
	}
	if ingredientID == productID {
		return nil, fmt.Errorf("%w: a product cannot be its own ingredient", ErrInvalidInput)
	}

	if _, err := s.ownedProduct(ctx, ownerID, productID); err != nil {
		return nil, err
	}

	ingredient, err := s.ownedProduct(ctx, ownerID, ingredientID)
	if err != nil {
		return nil, err
	}
	if !ingredient.UsableAsIngredient() {
		return nil, fmt.Errorf("%w: product %q is not usable as an ingredient", ErrInvalidInput, ingredient.Name)
	}

	cyclic, err := s.reachable(ctx, ingredientID, productID)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return nil, fmt.Errorf("%w: adding %q would create a recipe cycle", ErrInvalidInput, ingredient.Name)
	}

	line := models.RecipeLine{IngredientID: ingredientID, Quantity: quantity}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.Recipe
		err := tx.Where("product_id = ?", productID).First(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec = models.Recipe{ProductID: productID, BatchSize: batchSize}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("create recipe: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load recipe: %w", err)
		default:
			if !rec.BatchSize.Equal(batchSize) {
				if err := tx.Model(&rec).Update("batch_size", batchSize).Error; err != nil {
					return fmt.Errorf("update recipe batch size: %w", err)
				}
			}
		}

		line.RecipeID = rec.ID
		if err := tx.Create(&line).Error; err != nil {
			return fmt.Errorf("create recipe line: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// Ingredients returns the product's recipe lines joined with ingredient
// detail, ordered by ingredient name ascending. A product without a recipe
// yields an empty slice.
//
// The product join deliberately skips the soft-delete scope: historical
// recipes may reference products that have since been removed from the
// catalog, and those lines must still resolve.
func (s *Service) Ingredients(ctx context.Context, productID uint) ([]IngredientDetail, error) {
	return s.ingredientsTx(s.db.WithContext(ctx), productID)
}

func (s *Service) ingredientsTx(tx *gorm.DB, productID uint) ([]IngredientDetail, error) {
	rec, err := s.recipeForTx(tx, productID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return []IngredientDetail{}, nil
	}

	var details []IngredientDetail
	err = tx.
		Model(&models.RecipeLine{}).
		Select("recipe_lines.id AS line_id, recipe_lines.ingredient_id AS ingredient_id, recipe_lines.quantity AS quantity, products.name AS name, products.unit AS unit, products.unit_cost AS unit_cost").
		Joins("JOIN products ON products.id = recipe_lines.ingredient_id").
		Where("recipe_lines.recipe_id = ?", rec.ID).
		Order("products.name asc").
		Scan(&details).Error
	if err != nil {
		return nil, fmt.Errorf("load recipe ingredients: %w", err)
	}

	for i := range details {
		details[i].BatchSize = rec.BatchSize
	}
	return details, nil
}

// UpdateLineQuantity changes how much of the ingredient one batch consumes.
func (s *Service) UpdateLineQuantity(ctx context.Context, lineID uint, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidInput, quantity)
	}

	result := s.db.WithContext(ctx).
		Model(&models.RecipeLine{}).
		Where("id = ?", lineID).
		Update("quantity", quantity)
	if result.Error != nil {
		return fmt.Errorf("update recipe line: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: recipe line %d", ErrNotFound, lineID)
	}
	return nil
}

// UpdateBatchSize changes the number of units one batch of the recipe
// yields. The value lives on the recipe, so the change is uniform across
// every line.
func (s *Service) UpdateBatchSize(ctx context.Context, productID uint, batchSize decimal.Decimal) error {
	if !batchSize.IsPositive() {
		return fmt.Errorf("%w: batch size must be positive, got %s", ErrInvalidInput, batchSize)
	}

	result := s.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("product_id = ?", productID).
		Update("batch_size", batchSize)
	if result.Error != nil {
		return fmt.Errorf("update batch size: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: no recipe for product %d", ErrNotFound, productID)
	}
	return nil
}

// RemoveIngredient deletes one recipe line. Absent ids succeed.
func (s *Service) RemoveIngredient(ctx context.Context, lineID uint) error {
	if err := s.db.WithContext(ctx).Delete(&models.RecipeLine{}, lineID).Error; err != nil {
		return fmt.Errorf("remove recipe line: %w", err)
	}
	return nil
}

// DeleteRecipe removes the product's recipe and all of its lines. Absent
// products succeed. The delete is a hard delete: the recipe row must vacate
// the product_id unique index so the recipe can be defined again later.
func (s *Service) DeleteRecipe(ctx context.Context, productID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.Recipe
		err := tx.Where("product_id = ?", productID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load recipe: %w", err)
		}

		if err := tx.Unscoped().Where("recipe_id = ?", rec.ID).Delete(&models.RecipeLine{}).Error; err != nil {
			return fmt.Errorf("delete recipe lines: %w", err)
		}
		if err := tx.Unscoped().Delete(&rec).Error; err != nil {
			return fmt.Errorf("delete recipe: %w", err)
		}
		return nil
	})
}

// HasRecipe reports whether at least one recipe line exists for the product.
func (s *Service) HasRecipe(ctx context.Context, productID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RecipeLine{}).
		Joins("JOIN recipes ON recipes.id = recipe_lines.recipe_id AND recipes.deleted_at IS NULL").
		Where("recipes.product_id = ?", productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count recipe lines: %w", err)
	}
	return count > 0, nil
}

func (s *Service) recipeForTx(tx *gorm.DB, productID uint) (*models.Recipe, error) {
	var rec models.Recipe
	err := tx.Where("product_id = ?", productID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe: %w", err)
	}
	return &rec, nil
}

func (s *Service) ownedProduct(ctx context.Context, ownerID, id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	return &product, nil
}

// reachable walks the recipe graph from the given product and reports
// whether target can be reached through nested recipe references.
func (s *Service) reachable(ctx context.Context, from, target uint) (bool, error) {
	visited := map[uint]bool{}
	queue := []uint{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == target {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		var ingredientIDs []uint
		err := s.db.WithContext(ctx).
			Model(&models.RecipeLine{}).
			Joins("JOIN recipes ON recipes.id = recipe_lines.recipe_id AND recipes.deleted_at IS NULL").
			Where("recipes.product_id = ?", current).
			Pluck("recipe_lines.ingredient_id", &ingredientIDs).Error
		if err != nil {
			return false, fmt.Errorf("walk recipe graph: %w", err)
		}
		queue = append(queue, ingredientIDs...)
	}
	return false, nil
}

// Package catalog is the store of record for products and categories. It is
// the universe of valid ingredient and parent ids for the recipe engine.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"flourcast/models"
)

// ErrNotFound is returned for targeted reads and updates of ids that do not
// exist (or belong to another owner). Deletes are idempotent and never
// return it.
var ErrNotFound = errors.New("catalog: not found")

// Store provides owner-scoped access to the product and category catalog.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Product loads a single product by id, scoped to the owner.
func (s *Store) Product(ctx context.Context, ownerID, id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("owner_id = ?", ownerID).
		First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	return &product, nil
}

// Products lists the owner's products ordered by name.
func (s *Store) Products(ctx context.Context, ownerID uint) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("owner_id = ?", ownerID).
		Order("name asc").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// CreateProduct persists a new product together with its inventory record.
// The record starts at zero quantity with a zero threshold; it is created
// exactly once here and only ever mutated through the ledger afterwards.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("product name must not be empty")
	}
	product.Kind = models.NormalizeKind(product.Kind)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("create product: %w", err)
		}

		record := models.InventoryRecord{
			OwnerID:      product.OwnerID,
			ProductID:    product.ID,
			Quantity:     decimal.Zero,
			MinThreshold: decimal.Zero,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("create inventory record: %w", err)
		}
		return nil
	})
}

// UpdateProduct applies the given column updates to an owned product.
func (s *Store) UpdateProduct(ctx context.Context, ownerID, id uint, updates map[string]any) (*models.Product, error) {
	var existing models.Product
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&existing, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load product for update: %w", err)
	}

	if kind, ok := updates["kind"].(string); ok {
		updates["kind"] = models.NormalizeKind(kind)
	}

	if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &existing, nil
}

// DeleteProduct soft-deletes a product and removes its own recipe and lines.
// The inventory record is left in place to preserve historical quantity, and
// lines where the product appears as an ingredient of other recipes are kept
// so those recipes still resolve. Absent ids succeed.
func (s *Store) DeleteProduct(ctx context.Context, ownerID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		err := tx.Where("owner_id = ?", ownerID).First(&product, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load product for delete: %w", err)
		}

		var rec models.Recipe
		err = tx.Where("product_id = ?", product.ID).First(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return fmt.Errorf("load recipe for delete: %w", err)
		default:
			if err := tx.Unscoped().Where("recipe_id = ?", rec.ID).Delete(&models.RecipeLine{}).Error; err != nil {
				return fmt.Errorf("delete recipe lines: %w", err)
			}
			if err := tx.Unscoped().Delete(&rec).Error; err != nil {
				return fmt.Errorf("delete recipe: %w", err)
			}
		}

		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return nil
	})
}

// Category loads a single category by id, scoped to the owner.
func (s *Store) Category(ctx context.Context, ownerID, id uint) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load category: %w", err)
	}
	return &category, nil
}

// Categories lists the owner's categories ordered by name.
func (s *Store) Categories(ctx context.Context, ownerID uint) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name asc").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory persists a new category.
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("category name must not be empty")
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// RenameCategory updates a category's name.
func (s *Store) RenameCategory(ctx context.Context, ownerID, id uint, name string) (*models.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("category name must not be empty")
	}

	var existing models.Category
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&existing, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load category for rename: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&existing).Update("name", strings.TrimSpace(name)).Error; err != nil {
		return nil, fmt.Errorf("rename category: %w", err)
	}
	return &existing, nil
}

// DeleteCategory soft-deletes a category and detaches its products. Absent
// ids succeed.
func (s *Store) DeleteCategory(ctx context.Context, ownerID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Product{}).
			Where("owner_id = ? AND category_id = ?", ownerID, id).
			Update("category_id", nil).Error
		if err != nil {
			return fmt.Errorf("detach category products: %w", err)
		}

		if err := tx.Where("owner_id = ?", ownerID).Delete(&models.Category{}, id).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

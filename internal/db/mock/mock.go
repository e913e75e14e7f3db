package mock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "flourcast/internal/log"
	"flourcast/models"
)

// New returns an in-memory sqlite database seeded with a representative
// bakery: a demo account, ingredient stock, and a croissant recipe.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:flourcast-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.InventoryRecord{},
		&models.Recipe{},
		&models.RecipeLine{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte("proofing"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Margot Lefevre",
		Email:        "margot@flourcast.app",
		PasswordHash: string(password),
		BakeryName:   "Boulangerie Margot",
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	pantry := models.Category{Name: "Pantry", OwnerID: user.ID}
	viennoiserie := models.Category{Name: "Viennoiserie", OwnerID: user.ID}
	for _, category := range []*models.Category{&pantry, &viennoiserie} {
		if err := db.WithContext(ctx).Create(category).Error; err != nil {
			return err
		}
	}

	flour := models.Product{
		Name:       "Bread Flour",
		Unit:       "kg",
		UnitCost:   decimal.NewNullDecimal(decimal.RequireFromString("1.50")),
		Kind:       models.KindIngredient,
		Active:     true,
		CategoryID: &pantry.ID,
		OwnerID:    user.ID,
	}

	butter := models.Product{
		Name:       "Cultured Butter",
		Unit:       "kg",
		UnitCost:   decimal.NewNullDecimal(decimal.RequireFromString("9.80")),
		Kind:       models.KindIngredient,
		Active:     true,
		CategoryID: &pantry.ID,
		OwnerID:    user.ID,
	}

	yeast := models.Product{
		Name:       "Fresh Yeast",
		Unit:       "g",
		Kind:       models.KindIngredient,
		Active:     true,
		CategoryID: &pantry.ID,
		OwnerID:    user.ID,
	}

	croissant := models.Product{
		Name:       "Butter Croissant",
		Unit:       "unit",
		UnitPrice:  decimal.RequireFromString("3.20"),
		Kind:       models.KindSellable,
		Active:     true,
		CategoryID: &viennoiserie.ID,
		OwnerID:    user.ID,
	}

	products := []*models.Product{&flour, &butter, &yeast, &croissant}
	for _, product := range products {
		if err := db.WithContext(ctx).Create(product).Error; err != nil {
			return err
		}
	}

	stock := []models.InventoryRecord{
		{OwnerID: user.ID, ProductID: flour.ID, Quantity: decimal.NewFromInt(25), MinThreshold: decimal.NewFromInt(5)},
		{OwnerID: user.ID, ProductID: butter.ID, Quantity: decimal.NewFromInt(6), MinThreshold: decimal.NewFromInt(2)},
		{OwnerID: user.ID, ProductID: yeast.ID, Quantity: decimal.NewFromInt(500), MinThreshold: decimal.NewFromInt(100)},
		{OwnerID: user.ID, ProductID: croissant.ID, Quantity: decimal.Zero, MinThreshold: decimal.NewFromInt(12)},
	}
	for i := range stock {
		if err := db.WithContext(ctx).Create(&stock[i]).Error; err != nil {
			return err
		}
	}

	recipe := models.Recipe{
		ProductID: croissant.ID,
		BatchSize: decimal.NewFromInt(24),
		Lines: []models.RecipeLine{
			{IngredientID: flour.ID, Quantity: decimal.RequireFromString("2.4")},
			{IngredientID: butter.ID, Quantity: decimal.RequireFromString("1.2")},
			{IngredientID: yeast.ID, Quantity: decimal.NewFromInt(60)},
		},
	}
	if err := db.WithContext(ctx).Create(&recipe).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded",
		"user", user.Email,
		"products", len(products),
		"recipeLines", len(recipe.Lines),
	)
	return nil
}

package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/alexedwards/scs/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"flourcast/models"
)

func withTestSessionManager(t *testing.T) (*scs.SessionManager, func()) {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	return sm, func() {
		sessionManager = original
	}
}

func withTestDatabase(t *testing.T, name string) (*gorm.DB, func()) {
	t.Helper()
	originalDB := database
	originalCatalog := catalogStore
	originalLedger := ledger
	originalRecipes := recipes

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.InventoryRecord{},
		&models.Recipe{},
		&models.RecipeLine{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	Configure(sessionManager, db)

	return db, func() {
		database = originalDB
		catalogStore = originalCatalog
		ledger = originalLedger
		recipes = originalRecipes
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func authenticateRequest(t *testing.T, sm *scs.SessionManager, req *http.Request, userID uint) *http.Request {
	t.Helper()
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)
	sm.Put(req.Context(), sessionUserIDKey, int(userID))
	sm.Put(req.Context(), sessionAuthenticatedKey, true)
	return req
}

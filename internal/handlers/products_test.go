package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"flourcast/models"
)

func seedTestProduct(t *testing.T, db *gorm.DB, ownerID uint, name, kind, cost string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:    name,
		Unit:    "kg",
		Kind:    kind,
		Active:  true,
		OwnerID: ownerID,
	}
	if cost != "" {
		product.UnitCost = decimal.NewNullDecimal(decimal.RequireFromString(cost))
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("failed to seed product %q: %v", name, err)
	}
	if err := db.Create(&models.InventoryRecord{OwnerID: ownerID, ProductID: product.ID}).Error; err != nil {
		t.Fatalf("failed to seed inventory record for %q: %v", name, err)
	}
	return product
}

func seedTestStock(t *testing.T, db *gorm.DB, ownerID, productID uint, quantity string) {
	t.Helper()
	err := db.Model(&models.InventoryRecord{}).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Update("quantity", decimal.RequireFromString(quantity)).Error
	if err != nil {
		t.Fatalf("failed to seed stock for product %d: %v", productID, err)
	}
}

func TestProductResourceRoundTrip(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t, "handlers_products_roundtrip")
	defer restoreDB()

	create := httptest.NewRequest(http.MethodPost, "/app/api/products", strings.NewReader(
		`{"name":"Bread Flour","unit":"kg","kind":"ingredient","unit_cost":"1.25"}`,
	))
	create = authenticateRequest(t, sm, create, 1)

	rr := httptest.NewRecorder()
	ProductResource(rr, create)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	var created productResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if created.Kind != models.KindIngredient {
		t.Errorf("expected kind %q, got %q", models.KindIngredient, created.Kind)
	}
	if created.UnitCost == nil || !created.UnitCost.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("unexpected unit cost in response: %v", created.UnitCost)
	}

	// Creating a product opens its stock record at zero.
	var record models.InventoryRecord
	if err := db.Where("owner_id = ? AND product_id = ?", 1, created.ID).First(&record).Error; err != nil {
		t.Fatalf("expected inventory record for new product: %v", err)
	}
	if !record.Quantity.IsZero() {
		t.Errorf("expected zero opening quantity, got %s", record.Quantity)
	}

	show := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/products/%d", created.ID), nil)
	show = authenticateRequest(t, sm, show, 1)
	rr = httptest.NewRecorder()
	ProductResource(rr, show)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	update := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/app/api/products/%d", created.ID), strings.NewReader(
		`{"name":"Strong Bread Flour","unit_cost":"1.40"}`,
	))
	update = authenticateRequest(t, sm, update, 1)
	rr = httptest.NewRecorder()
	ProductResource(rr, update)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var updated productResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode update response: %v", err)
	}
	if updated.Name != "Strong Bread Flour" {
		t.Errorf("expected renamed product, got %q", updated.Name)
	}

	del := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/app/api/products/%d", created.ID), nil)
	del = authenticateRequest(t, sm, del, 1)
	rr = httptest.NewRecorder()
	ProductResource(rr, del)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}

	missing := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/products/%d", created.ID), nil)
	missing = authenticateRequest(t, sm, missing, 1)
	rr = httptest.NewRecorder()
	ProductResource(rr, missing)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status %d after delete, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestProductResourceValidation(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	_, restoreDB := withTestDatabase(t, "handlers_products_validation")
	defer restoreDB()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"blank name", http.MethodPost, "/app/api/products", `{"name":"  "}`, http.StatusBadRequest},
		{"malformed payload", http.MethodPost, "/app/api/products", `{"name":`, http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/app/api/products/9999", "", http.StatusNotFound},
		{"bad id segment", http.MethodGet, "/app/api/products/abc", "", http.StatusNotFound},
		{"empty update", http.MethodPut, "/app/api/products/1", `{}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req *http.Request
			if tc.body != "" {
				req = httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			} else {
				req = httptest.NewRequest(tc.method, tc.target, nil)
			}
			req = authenticateRequest(t, sm, req, 1)
			rr := httptest.NewRecorder()
			ProductResource(rr, req)
			if rr.Code != tc.status {
				t.Errorf("expected status %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestProductResourceScopesToOwner(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t, "handlers_products_scope")
	defer restoreDB()

	mine := seedTestProduct(t, db, 1, "Rye Flour", models.KindIngredient, "0.90")
	theirs := seedTestProduct(t, db, 2, "Spelt Flour", models.KindIngredient, "1.10")

	list := httptest.NewRequest(http.MethodGet, "/app/api/products", nil)
	list = authenticateRequest(t, sm, list, 1)
	rr := httptest.NewRecorder()
	ProductResource(rr, list)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var listed []productResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != mine.ID {
		t.Fatalf("expected only the caller's product, got %+v", listed)
	}

	foreign := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/products/%d", theirs.ID), nil)
	foreign = authenticateRequest(t, sm, foreign, 1)
	rr = httptest.NewRecorder()
	ProductResource(rr, foreign)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status %d for another owner's product, got %d", http.StatusNotFound, rr.Code)
	}
}

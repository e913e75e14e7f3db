package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"flourcast/internal/recipe"
	"flourcast/models"
)

func postRecipeLine(t *testing.T, productID, ingredientID uint, quantity, batchSize string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"ingredient_id":%d,"quantity":"%s","batch_size":"%s"}`, ingredientID, quantity, batchSize)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/app/api/recipes/%d", productID), strings.NewReader(body))
	req = authenticateRequest(t, sessionManager, req, 1)
	rr := httptest.NewRecorder()
	RecipeResource(rr, req)
	return rr
}

func TestRecipeResourceComposeAndCost(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t, "handlers_recipes_cost")
	defer restoreDB()

	croissant := seedTestProduct(t, db, 1, "Croissant", models.KindSellable, "")
	flour := seedTestProduct(t, db, 1, "Bread Flour", models.KindIngredient, "0.50")
	butter := seedTestProduct(t, db, 1, "Butter", models.KindIngredient, "0.50")

	if rr := postRecipeLine(t, croissant.ID, flour.ID, "4", "10"); rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d adding flour, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	if rr := postRecipeLine(t, croissant.ID, butter.ID, "2", "10"); rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d adding butter, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	show := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/recipes/%d", croissant.ID), nil)
	show = authenticateRequest(t, sm, show, 1)
	rr := httptest.NewRecorder()
	RecipeResource(rr, show)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var shown recipeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &shown); err != nil {
		t.Fatalf("failed to decode recipe response: %v", err)
	}
	if !shown.HasRecipe || len(shown.Ingredients) != 2 {
		t.Fatalf("expected recipe with two ingredient lines, got %+v", shown)
	}

	cost := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/recipes/%d/cost", croissant.ID), nil)
	cost = authenticateRequest(t, sm, cost, 1)
	rr = httptest.NewRecorder()
	RecipeResource(rr, cost)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var breakdown recipe.CostBreakdown
	if err := json.Unmarshal(rr.Body.Bytes(), &breakdown); err != nil {
		t.Fatalf("failed to decode cost response: %v", err)
	}
	if !breakdown.TotalCost.Equal(decimal.RequireFromString("3")) {
		t.Errorf("expected total cost 3, got %s", breakdown.TotalCost)
	}
	if !breakdown.PerUnitCost.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("expected per unit cost 0.3, got %s", breakdown.PerUnitCost)
	}
	if len(breakdown.MissingCosts) != 0 {
		t.Errorf("expected no missing costs, got %v", breakdown.MissingCosts)
	}

	noRecipe := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/recipes/%d/cost", flour.ID), nil)
	noRecipe = authenticateRequest(t, sm, noRecipe, 1)
	rr = httptest.NewRecorder()
	RecipeResource(rr, noRecipe)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status %d for product without recipe, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestRecipeResourceRejectsBadLines(t *testing.T) {
	_, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t, "handlers_recipes_badlines")
	defer restoreDB()

	croissant := seedTestProduct(t, db, 1, "Croissant", models.KindSellable, "")
	cake := seedTestProduct(t, db, 1, "Layer Cake", models.KindSellable, "")

	// Sellable-only products cannot appear as ingredients.
	if rr := postRecipeLine(t, croissant.ID, cake.ID, "1", "10"); rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for non-ingredient product, got %d", http.StatusBadRequest, rr.Code)
	}
	if rr := postRecipeLine(t, croissant.ID, croissant.ID, "1", "10"); rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for self reference, got %d", http.StatusBadRequest, rr.Code)
	}

	flour := seedTestProduct(t, db, 1, "Bread Flour", models.KindIngredient, "0.50")
	if rr := postRecipeLine(t, croissant.ID, flour.ID, "-1", "10"); rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for negative quantity, got %d", http.StatusBadRequest, rr.Code)
	}
	if rr := postRecipeLine(t, croissant.ID, flour.ID, "1", "0"); rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for zero batch size, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestRecipeResourceAvailabilityAndProduce(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t, "handlers_recipes_produce")
	defer restoreDB()

	croissant := seedTestProduct(t, db, 1, "Croissant", models.KindSellable, "")
	flour := seedTestProduct(t, db, 1, "Bread Flour", models.KindIngredient, "0.50")

	if rr := postRecipeLine(t, croissant.ID, flour.ID, "3", "12"); rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d adding flour, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	seedTestStock(t, db, 1, flour.ID, "5")

	check := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/recipes/%d/availability?batches=2", croissant.ID), nil)
	check = authenticateRequest(t, sm, check, 1)
	rr := httptest.NewRecorder()
	RecipeResource(rr, check)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var availability recipe.Availability
	if err := json.Unmarshal(rr.Body.Bytes(), &availability); err != nil {
		t.Fatalf("failed to decode availability response: %v", err)
	}
	if availability.CanMake {
		t.Error("expected two batches to exceed available stock")
	}
	if len(availability.Missing) != 1 || !availability.Missing[0].Required.Equal(decimal.RequireFromString("6")) {
		t.Errorf("unexpected shortfall report: %+v", availability.Missing)
	}

	// Two batches cannot be produced; one can.
	refuse := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/app/api/recipes/%d/produce", croissant.ID), strings.NewReader(`{"batches":"2"}`))
	refuse = authenticateRequest(t, sm, refuse, 1)
	rr = httptest.NewRecorder()
	RecipeResource(rr, refuse)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status %d for short stock, got %d: %s", http.StatusConflict, rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"missing"`) {
		t.Errorf("expected conflict body to carry shortfalls, got %s", rr.Body.String())
	}

	produce := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/app/api/recipes/%d/produce", croissant.ID), strings.NewReader(`{"batches":"1"}`))
	produce = authenticateRequest(t, sm, produce, 1)
	rr = httptest.NewRecorder()
	RecipeResource(rr, produce)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d producing one batch, got %d: %s", http.StatusNoContent, rr.Code, rr.Body.String())
	}

	var flourStock, croissantStock models.InventoryRecord
	if err := db.Where("owner_id = ? AND product_id = ?", 1, flour.ID).First(&flourStock).Error; err != nil {
		t.Fatalf("failed to load flour stock: %v", err)
	}
	if !flourStock.Quantity.Equal(decimal.RequireFromString("2")) {
		t.Errorf("expected flour stock 2 after production, got %s", flourStock.Quantity)
	}
	if err := db.Where("owner_id = ? AND product_id = ?", 1, croissant.ID).First(&croissantStock).Error; err != nil {
		t.Fatalf("failed to load croissant stock: %v", err)
	}
	if !croissantStock.Quantity.Equal(decimal.RequireFromString("12")) {
		t.Errorf("expected 12 croissants credited, got %s", croissantStock.Quantity)
	}
}

func TestRecipeResourceDeductAllowsNegativeStock(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t, "handlers_recipes_deduct")
	defer restoreDB()

	croissant := seedTestProduct(t, db, 1, "Croissant", models.KindSellable, "")
	flour := seedTestProduct(t, db, 1, "Bread Flour", models.KindIngredient, "0.50")

	if rr := postRecipeLine(t, croissant.ID, flour.ID, "3", "12"); rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d adding flour, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	seedTestStock(t, db, 1, flour.ID, "2")

	deduct := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/app/api/recipes/%d/deduct", croissant.ID), strings.NewReader(`{"batches":"1"}`))
	deduct = authenticateRequest(t, sm, deduct, 1)
	rr := httptest.NewRecorder()
	RecipeResource(rr, deduct)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, rr.Code, rr.Body.String())
	}

	var stock models.InventoryRecord
	if err := db.Where("owner_id = ? AND product_id = ?", 1, flour.ID).First(&stock).Error; err != nil {
		t.Fatalf("failed to load flour stock: %v", err)
	}
	if !stock.Quantity.Equal(decimal.RequireFromString("-1")) {
		t.Errorf("expected stock to go negative without clamping, got %s", stock.Quantity)
	}
}

func TestDeleteProductRemovesItsRecipe(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t, "handlers_recipes_product_delete")
	defer restoreDB()

	croissant := seedTestProduct(t, db, 1, "Croissant", models.KindSellable, "")
	flour := seedTestProduct(t, db, 1, "Bread Flour", models.KindIngredient, "0.50")

	if rr := postRecipeLine(t, croissant.ID, flour.ID, "3", "12"); rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d adding flour, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	del := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/app/api/products/%d", croissant.ID), nil)
	del = authenticateRequest(t, sm, del, 1)
	rr := httptest.NewRecorder()
	ProductResource(rr, del)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d deleting product, got %d", http.StatusNoContent, rr.Code)
	}

	show := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/recipes/%d", croissant.ID), nil)
	show = authenticateRequest(t, sm, show, 1)
	rr = httptest.NewRecorder()
	RecipeResource(rr, show)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var shown recipeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &shown); err != nil {
		t.Fatalf("failed to decode recipe response: %v", err)
	}
	if shown.HasRecipe || len(shown.Ingredients) != 0 {
		t.Fatalf("expected no recipe after product delete, got %+v", shown)
	}
}

func TestRecipeLineResourceUpdateAndDelete(t *testing.T) {
	sm, restoreSession := withTestSessionManager(t)
	defer restoreSession()
	db, restoreDB := withTestDatabase(t, "handlers_recipes_lines")
	defer restoreDB()

	croissant := seedTestProduct(t, db, 1, "Croissant", models.KindSellable, "")
	flour := seedTestProduct(t, db, 1, "Bread Flour", models.KindIngredient, "0.50")

	rr := postRecipeLine(t, croissant.ID, flour.ID, "3", "12")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d adding flour, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	var line models.RecipeLine
	if err := json.Unmarshal(rr.Body.Bytes(), &line); err != nil {
		t.Fatalf("failed to decode created line: %v", err)
	}

	update := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/app/api/recipe-lines/%d", line.ID), strings.NewReader(`{"quantity":"4.5"}`))
	update = authenticateRequest(t, sm, update, 1)
	rr = httptest.NewRecorder()
	RecipeLineResource(rr, update)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, rr.Code, rr.Body.String())
	}

	var stored models.RecipeLine
	if err := db.First(&stored, line.ID).Error; err != nil {
		t.Fatalf("failed to reload line: %v", err)
	}
	if !stored.Quantity.Equal(decimal.RequireFromString("4.5")) {
		t.Errorf("expected stored quantity 4.5, got %s", stored.Quantity)
	}

	del := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/app/api/recipe-lines/%d", line.ID), nil)
	del = authenticateRequest(t, sm, del, 1)
	rr = httptest.NewRecorder()
	RecipeLineResource(rr, del)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}

	show := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/app/api/recipes/%d", croissant.ID), nil)
	show = authenticateRequest(t, sm, show, 1)
	rr = httptest.NewRecorder()
	RecipeResource(rr, show)
	var shown recipeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &shown); err != nil {
		t.Fatalf("failed to decode recipe response: %v", err)
	}
	if len(shown.Ingredients) != 0 {
		t.Errorf("expected no lines after delete, got %+v", shown.Ingredients)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	applog "flourcast/internal/log"
	"flourcast/internal/recipe"
)

type recipeLineRequest struct {
	IngredientID uint            `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	BatchSize    decimal.Decimal `json:"batch_size"`
}

type batchSizeRequest struct {
	BatchSize decimal.Decimal `json:"batch_size"`
}

type quantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type batchesRequest struct {
	Batches decimal.Decimal `json:"batches"`
}

type recipeResponse struct {
	ProductID   uint                      `json:"product_id"`
	HasRecipe   bool                      `json:"has_recipe"`
	Ingredients []recipe.IngredientDetail `json:"ingredients"`
}

// RecipeResource handles a product's recipe: its ingredient lines, derived
// cost, stock availability, and production runs.
//
// Routes under /app/api/recipes/{productID}:
//
//	GET    ""             recipe lines with ingredient detail
//	POST   ""             add an ingredient line
//	DELETE ""             delete the whole recipe
//	PUT    "batch-size"   change the recipe's batch size
//	GET    "cost"         derived cost breakdown
//	GET    "availability" stock sufficiency for ?batches=N
//	POST   "deduct"       consume ingredient stock for completed batches
//	POST   "produce"      check, deduct, and credit finished stock atomically
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if recipes == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	ownerID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	segments := resourcePath(r, "/app/api/recipes")
	if len(segments) == 0 {
		http.NotFound(w, r)
		return
	}
	productID, ok := parseID(segments[0])
	if !ok || len(segments) > 2 {
		http.NotFound(w, r)
		return
	}

	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			showRecipe(w, r, productID)
		case http.MethodPost:
			addRecipeLine(w, r, ownerID, productID)
		case http.MethodDelete:
			deleteRecipe(w, r, productID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch segments[1] {
	case "batch-size":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		updateRecipeBatchSize(w, r, productID)
	case "cost":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		showRecipeCost(w, r, ownerID, productID)
	case "availability":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		showRecipeAvailability(w, r, ownerID, productID)
	case "deduct":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		deductRecipeBatch(w, r, ownerID, productID)
	case "produce":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		produceRecipeBatch(w, r, ownerID, productID)
	default:
		http.NotFound(w, r)
	}
}

// RecipeLineResource handles targeted updates of a single recipe line.
func RecipeLineResource(w http.ResponseWriter, r *http.Request) {
	if recipes == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if _, ok := currentUserID(r); !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	segments := resourcePath(r, "/app/api/recipe-lines")
	if len(segments) != 1 {
		http.NotFound(w, r)
		return
	}
	lineID, ok := parseID(segments[0])
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var payload quantityRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		if err := recipes.UpdateLineQuantity(r.Context(), lineID, payload.Quantity); err != nil {
			writeRecipeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := recipes.RemoveIngredient(r.Context(), lineID); err != nil {
			writeRecipeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func showRecipe(w http.ResponseWriter, r *http.Request, productID uint) {
	details, err := recipes.Ingredients(r.Context(), productID)
	if err != nil {
		writeRecipeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipeResponse{
		ProductID:   productID,
		HasRecipe:   len(details) > 0,
		Ingredients: details,
	})
}

func addRecipeLine(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	var payload recipeLineRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid recipe line payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	line, err := recipes.AddIngredient(r.Context(), ownerID, productID, payload.IngredientID, payload.Quantity, payload.BatchSize)
	if err != nil {
		writeRecipeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func deleteRecipe(w http.ResponseWriter, r *http.Request, productID uint) {
	if err := recipes.DeleteRecipe(r.Context(), productID); err != nil {
		writeRecipeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func updateRecipeBatchSize(w http.ResponseWriter, r *http.Request, productID uint) {
	var payload batchSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := recipes.UpdateBatchSize(r.Context(), productID, payload.BatchSize); err != nil {
		writeRecipeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func showRecipeCost(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	breakdown, err := recipes.Cost(r.Context(), ownerID, productID)
	if err != nil {
		writeRecipeError(w, r, err)
		return
	}
	if breakdown == nil {
		writeJSONError(w, http.StatusNotFound, "product has no recipe")
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func showRecipeAvailability(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	batches := decimal.NewFromInt(1)
	if raw := r.URL.Query().Get("batches"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid batches value")
			return
		}
		batches = parsed
	}

	availability, err := recipes.CheckAvailability(r.Context(), ownerID, productID, batches)
	if err != nil {
		writeRecipeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

func deductRecipeBatch(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	var payload batchesRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := recipes.DeductForBatch(r.Context(), ownerID, productID, payload.Batches); err != nil {
		writeRecipeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func produceRecipeBatch(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	var payload batchesRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := recipes.ProduceBatch(r.Context(), ownerID, productID, payload.Batches); err != nil {
		writeRecipeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRecipeError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *recipe.InsufficientStockError
	var deduction *recipe.DeductionError

	switch {
	case errors.Is(err, recipe.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, recipe.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   insufficient.Error(),
			"missing": insufficient.Missing,
		})
	case errors.As(err, &deduction):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":         deduction.Error(),
			"ingredient_id": deduction.IngredientID,
			"ingredient":    deduction.Name,
		})
	default:
		applog.Error(r.Context(), "recipe operation failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "recipe operation failed")
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"flourcast/internal/catalog"
	applog "flourcast/internal/log"
	"flourcast/models"
)

type productRequest struct {
	Name       string           `json:"name"`
	Unit       string           `json:"unit"`
	Kind       string           `json:"kind"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	UnitCost   *decimal.Decimal `json:"unit_cost"`
	Active     *bool            `json:"active"`
	CategoryID *uint            `json:"category_id"`
}

type productResponse struct {
	ID         uint             `json:"id"`
	Name       string           `json:"name"`
	Unit       string           `json:"unit"`
	Kind       string           `json:"kind"`
	UnitPrice  decimal.Decimal  `json:"unit_price"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	Active     bool             `json:"active"`
	CategoryID *uint            `json:"category_id,omitempty"`
	Category   string           `json:"category,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func projectProduct(product models.Product) productResponse {
	response := productResponse{
		ID:         product.ID,
		Name:       product.Name,
		Unit:       product.Unit,
		Kind:       product.Kind,
		UnitPrice:  product.UnitPrice,
		Active:     product.Active,
		CategoryID: product.CategoryID,
		CreatedAt:  product.CreatedAt,
		UpdatedAt:  product.UpdatedAt,
	}
	if product.UnitCost.Valid {
		cost := product.UnitCost.Decimal
		response.UnitCost = &cost
	}
	if product.Category != nil {
		response.Category = product.Category.Name
	}
	return response
}

// ProductResource handles CRUD interactions for catalog products.
func ProductResource(w http.ResponseWriter, r *http.Request) {
	if catalogStore == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	ownerID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	segments := resourcePath(r, "/app/api/products")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listProducts(w, r, ownerID)
		case http.MethodPost:
			createProduct(w, r, ownerID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	productID, ok := parseID(segments[0])
	if !ok || len(segments) > 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showProduct(w, r, ownerID, productID)
	case http.MethodPut:
		updateProduct(w, r, ownerID, productID)
	case http.MethodDelete:
		deleteProduct(w, r, ownerID, productID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listProducts(w http.ResponseWriter, r *http.Request, ownerID uint) {
	products, err := catalogStore.Products(r.Context(), ownerID)
	if err != nil {
		applog.Error(r.Context(), "failed to list products", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load products")
		return
	}

	responses := make([]productResponse, 0, len(products))
	for _, product := range products {
		responses = append(responses, projectProduct(product))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showProduct(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	product, err := catalogStore.Product(r.Context(), ownerID, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(r.Context(), "failed to load product", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load product")
		return
	}
	writeJSON(w, http.StatusOK, projectProduct(*product))
}

func createProduct(w http.ResponseWriter, r *http.Request, ownerID uint) {
	var payload productRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid product payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if strings.TrimSpace(payload.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "product name is required")
		return
	}

	product := models.Product{
		Name:       strings.TrimSpace(payload.Name),
		Unit:       normalizedUnit(payload.Unit),
		Kind:       models.NormalizeKind(payload.Kind),
		Active:     true,
		CategoryID: payload.CategoryID,
		OwnerID:    ownerID,
	}
	if payload.UnitPrice != nil {
		product.UnitPrice = *payload.UnitPrice
	}
	if payload.UnitCost != nil {
		product.UnitCost = decimal.NewNullDecimal(*payload.UnitCost)
	}
	if payload.Active != nil {
		product.Active = *payload.Active
	}

	if err := catalogStore.CreateProduct(r.Context(), &product); err != nil {
		applog.Error(r.Context(), "failed to create product", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create product")
		return
	}

	writeJSON(w, http.StatusCreated, projectProduct(product))
}

func updateProduct(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	var payload productRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid product update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	updates := map[string]any{}
	if strings.TrimSpace(payload.Name) != "" {
		updates["name"] = strings.TrimSpace(payload.Name)
	}
	if strings.TrimSpace(payload.Unit) != "" {
		updates["unit"] = normalizedUnit(payload.Unit)
	}
	if strings.TrimSpace(payload.Kind) != "" {
		updates["kind"] = payload.Kind
	}
	if payload.UnitPrice != nil {
		updates["unit_price"] = *payload.UnitPrice
	}
	if payload.UnitCost != nil {
		updates["unit_cost"] = *payload.UnitCost
	}
	if payload.Active != nil {
		updates["active"] = *payload.Active
	}
	if payload.CategoryID != nil {
		updates["category_id"] = *payload.CategoryID
	}
	if len(updates) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no updatable fields provided")
		return
	}

	product, err := catalogStore.UpdateProduct(r.Context(), ownerID, productID, updates)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(r.Context(), "failed to update product", "error", err, "id", productID)
		writeJSONError(w, http.StatusBadRequest, "unable to update product")
		return
	}

	writeJSON(w, http.StatusOK, projectProduct(*product))
}

func deleteProduct(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	if err := catalogStore.DeleteProduct(r.Context(), ownerID, productID); err != nil {
		applog.Error(r.Context(), "failed to delete product", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func normalizedUnit(unit string) string {
	trimmed := strings.TrimSpace(unit)
	if trimmed == "" {
		return "unit"
	}
	return trimmed
}

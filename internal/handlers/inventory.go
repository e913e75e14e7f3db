package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"flourcast/internal/inventory"
	applog "flourcast/internal/log"
	"flourcast/models"
)

type adjustmentRequest struct {
	Delta decimal.Decimal `json:"delta"`
}

type thresholdRequest struct {
	MinThreshold decimal.Decimal `json:"min_threshold"`
}

type inventoryResponse struct {
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	MinThreshold decimal.Decimal `json:"min_threshold"`
	LowStock     bool            `json:"low_stock"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func projectRecord(record models.InventoryRecord) inventoryResponse {
	response := inventoryResponse{
		ProductID:    record.ProductID,
		Quantity:     record.Quantity,
		MinThreshold: record.MinThreshold,
		LowStock:     record.LowStock(),
		UpdatedAt:    record.UpdatedAt,
	}
	if record.Product != nil {
		response.ProductName = record.Product.Name
		response.Unit = record.Product.Unit
	}
	return response
}

// InventoryResource exposes the stock ledger: listing, targeted reads,
// relative adjustments, and low-stock thresholds.
func InventoryResource(w http.ResponseWriter, r *http.Request) {
	if ledger == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	ownerID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	segments := resourcePath(r, "/app/api/inventory")
	if len(segments) == 0 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		listInventory(w, r, ownerID)
		return
	}

	productID, ok := parseID(segments[0])
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(segments) == 1 && r.Method == http.MethodGet:
		showRecord(w, r, ownerID, productID)
	case len(segments) == 2 && segments[1] == "adjust" && r.Method == http.MethodPost:
		adjustRecord(w, r, ownerID, productID)
	case len(segments) == 2 && segments[1] == "threshold" && r.Method == http.MethodPut:
		setThreshold(w, r, ownerID, productID)
	default:
		http.NotFound(w, r)
	}
}

func listInventory(w http.ResponseWriter, r *http.Request, ownerID uint) {
	var (
		records []models.InventoryRecord
		err     error
	)
	if r.URL.Query().Get("low") != "" {
		records, err = ledger.LowStock(r.Context(), ownerID)
	} else {
		records, err = ledger.Records(r.Context(), ownerID)
	}
	if err != nil {
		applog.Error(r.Context(), "failed to list inventory", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory")
		return
	}

	responses := make([]inventoryResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, projectRecord(record))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showRecord(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	record, err := ledger.Record(r.Context(), ownerID, productID)
	if err != nil {
		if errors.Is(err, inventory.ErrNoRecord) {
			http.NotFound(w, r)
			return
		}
		applog.Error(r.Context(), "failed to load inventory record", "error", err, "productID", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load inventory record")
		return
	}
	writeJSON(w, http.StatusOK, projectRecord(*record))
}

func adjustRecord(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	var payload adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid adjustment payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.Delta.IsZero() {
		writeJSONError(w, http.StatusBadRequest, "delta must not be zero")
		return
	}

	if err := ledger.Adjust(r.Context(), ownerID, productID, payload.Delta); err != nil {
		if errors.Is(err, inventory.ErrNoRecord) {
			http.NotFound(w, r)
			return
		}
		applog.Error(r.Context(), "failed to adjust inventory", "error", err, "productID", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to adjust inventory")
		return
	}

	showRecord(w, r, ownerID, productID)
}

func setThreshold(w http.ResponseWriter, r *http.Request, ownerID, productID uint) {
	var payload thresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid threshold payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.MinThreshold.IsNegative() {
		writeJSONError(w, http.StatusBadRequest, "threshold must not be negative")
		return
	}

	if err := ledger.SetThreshold(r.Context(), ownerID, productID, payload.MinThreshold); err != nil {
		if errors.Is(err, inventory.ErrNoRecord) {
			http.NotFound(w, r)
			return
		}
		applog.Error(r.Context(), "failed to set inventory threshold", "error", err, "productID", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update threshold")
		return
	}

	showRecord(w, r, ownerID, productID)
}

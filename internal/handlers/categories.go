package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"flourcast/internal/catalog"
	applog "flourcast/internal/log"
	"flourcast/models"
)

type categoryRequest struct {
	Name string `json:"name"`
}

type categoryResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func projectCategory(category models.Category) categoryResponse {
	return categoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}

// CategoryResource handles CRUD interactions for product categories.
func CategoryResource(w http.ResponseWriter, r *http.Request) {
	if catalogStore == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	ownerID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	segments := resourcePath(r, "/app/api/categories")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listCategories(w, r, ownerID)
		case http.MethodPost:
			createCategory(w, r, ownerID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	categoryID, ok := parseID(segments[0])
	if !ok || len(segments) > 1 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showCategory(w, r, ownerID, categoryID)
	case http.MethodPut:
		renameCategory(w, r, ownerID, categoryID)
	case http.MethodDelete:
		deleteCategory(w, r, ownerID, categoryID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listCategories(w http.ResponseWriter, r *http.Request, ownerID uint) {
	categories, err := catalogStore.Categories(r.Context(), ownerID)
	if err != nil {
		applog.Error(r.Context(), "failed to list categories", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load categories")
		return
	}

	responses := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, projectCategory(category))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showCategory(w http.ResponseWriter, r *http.Request, ownerID, categoryID uint) {
	category, err := catalogStore.Category(r.Context(), ownerID, categoryID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(r.Context(), "failed to load category", "error", err, "id", categoryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load category")
		return
	}
	writeJSON(w, http.StatusOK, projectCategory(*category))
}

func createCategory(w http.ResponseWriter, r *http.Request, ownerID uint) {
	var payload categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid category payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "category name is required")
		return
	}

	category := models.Category{Name: strings.TrimSpace(payload.Name), OwnerID: ownerID}
	if err := catalogStore.CreateCategory(r.Context(), &category); err != nil {
		applog.Error(r.Context(), "failed to create category", "error", err)
		writeJSONError(w, http.StatusBadRequest, "unable to create category")
		return
	}

	writeJSON(w, http.StatusCreated, projectCategory(category))
}

func renameCategory(w http.ResponseWriter, r *http.Request, ownerID, categoryID uint) {
	var payload categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid category rename payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	category, err := catalogStore.RenameCategory(r.Context(), ownerID, categoryID, payload.Name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(r.Context(), "failed to rename category", "error", err, "id", categoryID)
		writeJSONError(w, http.StatusBadRequest, "unable to rename category")
		return
	}

	writeJSON(w, http.StatusOK, projectCategory(*category))
}

func deleteCategory(w http.ResponseWriter, r *http.Request, ownerID, categoryID uint) {
	if err := catalogStore.DeleteCategory(r.Context(), ownerID, categoryID); err != nil {
		applog.Error(r.Context(), "failed to delete category", "error", err, "id", categoryID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	applog "flourcast/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// resourcePath strips the route prefix and returns the remaining path
// segments, e.g. "/app/api/products/12" with prefix "/app/api/products"
// yields ["12"].
func resourcePath(r *http.Request, prefix string) []string {
	remainder := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if remainder == "" {
		return nil
	}
	return strings.Split(remainder, "/")
}

func parseID(segment string) (uint, bool) {
	value, err := strconv.ParseUint(segment, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(value), true
}

package server

import (
	"context"
	"net/http"

	"flourcast/internal/handlers"
	applog "flourcast/internal/log"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/signup", handlers.Signup)
	mux.HandleFunc("/login", handlers.Login)
	mux.HandleFunc("/logout", handlers.Logout)

	protected := map[string]http.HandlerFunc{
		"/app/api/categories":    handlers.CategoryResource,
		"/app/api/categories/":   handlers.CategoryResource,
		"/app/api/products":      handlers.ProductResource,
		"/app/api/products/":     handlers.ProductResource,
		"/app/api/inventory":     handlers.InventoryResource,
		"/app/api/inventory/":    handlers.InventoryResource,
		"/app/api/recipes/":      handlers.RecipeResource,
		"/app/api/recipe-lines/": handlers.RecipeLineResource,
	}
	for path, handler := range protected {
		mux.Handle(path, handlers.RequireAuthentication(handler))
		applog.Debug(context.Background(), "route registered", "path", path, "protected", true)
	}

	return mux
}

// Package httpapi exposes the cart REST surface consumed by the storefront.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the cart routes under /api with the shared middleware
// stack.
func NewRouter(service CartService, jwtSecret []byte, timeout time.Duration) http.Handler {
	h := NewCartHandler(service, timeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Use(AuthMiddleware(jwtSecret))

			// Static segments first so chi does not swallow them as ids.
			r.Post("/add-service", h.AddService)
			r.Delete("/remove-service/{serviceID}", h.RemoveServiceFromCart)

			r.Get("/{customerID}", h.GetCart)
			r.Post("/{customerID}/add", h.AddItem)
			r.Put("/{customerID}/update", h.UpdateItem)
			r.Delete("/{customerID}/remove/{productID}", h.RemoveItem)
			r.Delete("/{customerID}/clear", h.ClearCart)
		})
	})

	return r
}

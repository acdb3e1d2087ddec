// internal/app/features/rpc/routes.go
package rpc

import "github.com/go-chi/chi/v5"

// Routes returns the procedure router, mounted under /api/trpc. Serve
// answers every method so unsupported ones get the JSON error envelope.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.HandleFunc("/{procedure}", h.Serve)
	return r
}

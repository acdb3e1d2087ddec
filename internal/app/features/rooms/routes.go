// internal/app/features/rooms/routes.go
package rooms

import (
	"github.com/dalemusser/retroboard/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted under /rooms. The board is public;
// everything that changes membership requires a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.ServeBoard)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/", h.HandleCreate)
		pr.Post("/join", h.HandleJoin)
		pr.Post("/{id}/leave", h.HandleLeave)
	})
	return r
}

// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/retroboard/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the basic view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Message string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_page", pageData{
		BaseVM:  viewdata.NewBaseVM(r, "Access denied", "/"),
		Message: "You don't have permission to do that.",
	})
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusUnauthorized)
	templates.Render(w, r, "error_page", pageData{
		BaseVM:  viewdata.NewBaseVM(r, "Sign in required", "/login"),
		Message: "Please sign in to continue.",
	})
}

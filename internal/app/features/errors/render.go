// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/retroboard/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// RenderError writes status and renders the shared error page with msg.
// If backURL is empty, a safe back URL is resolved with "/" as fallback.
func RenderError(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	vm := viewdata.NewBaseVM(r, title, "/")
	if backURL != "" {
		vm.BackURL = backURL
	}
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", pageData{BaseVM: vm, Message: msg})
}

// RenderForbidden shows a friendly access error page with a message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	RenderError(w, r, http.StatusForbidden, "Access denied", msg, backURL)
}

// RenderUnauthorized shows a friendly "sign in required" page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	RenderError(w, r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL)
}

// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/retroboard/internal/app/system/auth"
)

// Actor is the identity a room operation runs as. The zero Actor is an
// anonymous caller.
type Actor struct {
	UserID string
	Name   string
}

// IsZero reports whether a is anonymous.
func (a Actor) IsZero() bool { return a.UserID == "" }

// ActorFrom returns the signed-in user as an Actor. ok is false for
// anonymous requests.
func ActorFrom(r *http.Request) (a Actor, ok bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.ID == "" {
		return Actor{}, false
	}
	return Actor{UserID: u.ID, Name: u.Name}, true
}

// internal/app/features/rooms/actions.go
package rooms

import (
	"net/http"
	"strings"

	"github.com/dalemusser/retroboard/internal/app/service/roomservice"
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/auditlog"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
	"github.com/dalemusser/retroboard/internal/app/system/inputval"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /rooms                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate creates a room from the home page dialog and opens its board.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/")
		return
	}
	actor, _ := authz.ActorFrom(r)

	cats, err := inputval.CategoryNames(r.FormValue("categories"))
	if err != nil {
		redirectHomeWithError(w, r, apperr.BadRequest("Category name: "+err.Error()))
		return
	}

	ctx := auditlog.WithRequest(r.Context(), r)
	room, err := h.Rooms.CreateRoom(ctx, actor, roomservice.CreateRoomInput{
		Name:       r.FormValue("name"),
		Categories: cats,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindBadRequest) {
			redirectHomeWithError(w, r, err)
			return
		}
		h.ErrLog.LogAppError(w, r, "create room failed", err, "/")
		return
	}

	h.Log.Info("room created", zap.String("room_id", room.ID), zap.String("user_id", actor.UserID))
	http.Redirect(w, r, roomURL(room.ID), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /rooms/join                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleJoin joins the room whose code was entered. Joining a room the user
// is already in just opens it.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/")
		return
	}
	actor, _ := authz.ActorFrom(r)

	code := strings.TrimSpace(r.FormValue("code"))
	if code == "" {
		redirectHomeWithError(w, r, apperr.BadRequest("Please enter a room code."))
		return
	}

	ctx := auditlog.WithRequest(r.Context(), r)
	room, err := h.Rooms.JoinRoom(ctx, actor, code)
	switch {
	case err == nil:
		http.Redirect(w, r, roomURL(room.ID), http.StatusSeeOther)
	case apperr.Is(err, apperr.KindBadRequest):
		http.Redirect(w, r, roomURL(code), http.StatusSeeOther)
	case apperr.Is(err, apperr.KindNotFound):
		redirectHomeWithError(w, r, err)
	default:
		h.ErrLog.LogAppError(w, r, "join room failed", err, "/")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /rooms/{id}/leave                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLeave removes the user from the room and returns home.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.ActorFrom(r)
	id := chi.URLParam(r, "id")

	ctx := auditlog.WithRequest(r.Context(), r)
	_, err := h.Rooms.LeaveRoom(ctx, actor, id)
	switch {
	case err == nil:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case apperr.Is(err, apperr.KindBadRequest), apperr.Is(err, apperr.KindNotFound):
		redirectHomeWithError(w, r, err)
	default:
		h.ErrLog.LogAppError(w, r, "leave room failed", err, roomURL(id))
	}
}

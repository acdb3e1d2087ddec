// internal/app/features/rooms/handler.go
package rooms

import (
	"net/http"
	"net/url"

	uierrors "github.com/dalemusser/retroboard/internal/app/features/errors"
	"github.com/dalemusser/retroboard/internal/app/service/roomservice"
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Handler serves the room pages and the form posts that create, join and
// leave rooms. Board edits go through the procedure endpoint.
type Handler struct {
	Rooms  *roomservice.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(rooms *roomservice.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Rooms:  rooms,
		ErrLog: errLog,
		Log:    logger,
	}
}

// redirectHomeWithError sends the user back to the landing page with a
// message for the dialogs.
func redirectHomeWithError(w http.ResponseWriter, r *http.Request, err error) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(apperr.Message(err)), http.StatusSeeOther)
}

func roomURL(id string) string {
	return "/rooms/" + url.PathEscape(id)
}

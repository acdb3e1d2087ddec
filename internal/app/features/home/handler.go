// internal/app/features/home/handler.go
package home

import (
	"net/http"

	uierrors "github.com/dalemusser/retroboard/internal/app/features/errors"
	"github.com/dalemusser/retroboard/internal/app/service/roomservice"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
	"github.com/dalemusser/retroboard/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the home page.
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

type roomRow struct {
	ID        string
	Name      string
	OwnerName string
	IsOwner   bool
}

type homeData struct {
	viewdata.BaseVM
	Rooms []roomRow
	Error string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot shows the landing page. Signed-in users also see the rooms they
// own or have joined, with the create and join dialogs.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	data := homeData{
		BaseVM: viewdata.NewBaseVM(r, "Welcome", "/"),
		Error:  r.URL.Query().Get("error"),
	}

	if actor, ok := authz.ActorFrom(r); ok {
		rooms, err := h.Rooms.ListMyRooms(r.Context(), actor)
		if err != nil {
			h.ErrLog.LogAppError(w, r, "list rooms failed", err, "/")
			return
		}
		data.Rooms = make([]roomRow, 0, len(rooms))
		for _, rm := range rooms {
			row := roomRow{ID: rm.ID, Name: rm.Name, IsOwner: rm.OwnerID == actor.UserID}
			if rm.Owner != nil {
				row.OwnerName = rm.Owner.Name
			}
			data.Rooms = append(data.Rooms, row)
		}
	}

	templates.Render(w, r, "home", data)
}

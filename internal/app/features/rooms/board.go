// internal/app/features/rooms/board.go
package rooms

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/retroboard/internal/app/policy/roompolicy"
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
	"github.com/dalemusser/retroboard/internal/app/system/htmlsanitize"
	"github.com/dalemusser/retroboard/internal/app/system/viewdata"
	"github.com/dalemusser/retroboard/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type cardVM struct {
	ID        string
	Text      string
	HTML      template.HTML
	Author    string
	CanEdit   bool
	CanDelete bool
}

type columnVM struct {
	ID    string
	Name  string
	Color string
	Cards []cardVM
}

type memberVM struct {
	Name    string
	IsOwner bool
}

type boardData struct {
	viewdata.BaseVM
	RoomID    string
	RoomName  string
	Code      string
	OwnerName string
	Mutable   bool
	Anonymous bool
	IsOwner   bool
	IsMember  bool
	Columns   []columnVM
	Members   []memberVM
	Activity  []activityVM
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /rooms/{id}                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeBoard renders the room board. A missing room sends the user home.
func (h *Handler) ServeBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	room, err := h.Rooms.GetRoom(r.Context(), id)
	if apperr.Is(err, apperr.KindNotFound) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.ErrLog.LogAppError(w, r, "load room failed", err, "/")
		return
	}

	actor, _ := authz.ActorFrom(r)
	data := buildBoard(viewdata.NewBaseVM(r, room.Name, "/"), actor, room)
	if data.IsOwner {
		events, err := h.Rooms.RoomActivity(r.Context(), actor, room.ID)
		if err != nil {
			// The board still renders without the panel.
			h.Log.Warn("load room activity failed", zap.String("room_id", room.ID), zap.Error(err))
		}
		data.Activity = buildActivity(events, room)
	}
	templates.Render(w, r, "room_board", data)
}

// buildBoard arranges the expanded room into columns. Card authors are
// hidden in anonymous rooms except on the viewer's own cards.
func buildBoard(base viewdata.BaseVM, actor authz.Actor, room *models.Room) boardData {
	data := boardData{
		BaseVM:    base,
		RoomID:    room.ID,
		RoomName:  room.Name,
		Code:      room.ID,
		Mutable:   room.Mutable,
		Anonymous: room.Anonymous,
		IsOwner:   roompolicy.IsOwner(actor, room).Allowed,
		IsMember:  roompolicy.IsMember(actor, room).Allowed,
	}
	if room.Owner != nil {
		data.OwnerName = room.Owner.Name
	}

	for _, m := range room.Members {
		data.Members = append(data.Members, memberVM{Name: m.Name, IsOwner: m.ID == room.OwnerID})
	}

	index := make(map[string]int, len(room.Categories))
	for _, c := range room.Categories {
		col := columnVM{ID: c.ID, Name: c.Name, Cards: []cardVM{}}
		if c.Color != nil {
			col.Color = *c.Color
		}
		index[c.ID] = len(data.Columns)
		data.Columns = append(data.Columns, col)
	}

	for i := range room.Cards {
		card := room.Cards[i]
		card.Room = room
		col, ok := index[card.CategoryID]
		if !ok {
			continue
		}
		vm := cardVM{
			ID:        card.ID,
			Text:      card.Text,
			HTML:      htmlsanitize.PrepareForDisplay(card.Text),
			CanEdit:   roompolicy.CanEditCard(actor, &card).Allowed,
			CanDelete: roompolicy.CanDeleteCard(actor, &card).Allowed,
		}
		switch {
		case card.CreatorID == actor.UserID && !actor.IsZero():
			vm.Author = "you"
		case room.Anonymous:
		case card.Creator != nil:
			vm.Author = card.Creator.Name
		}
		data.Columns[col].Cards = append(data.Columns[col].Cards, vm)
	}
	return data
}

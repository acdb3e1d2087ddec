// internal/app/features/rooms/activity.go
package rooms

import (
	"github.com/dalemusser/retroboard/internal/app/store/audit"
	"github.com/dalemusser/retroboard/internal/domain/models"
)

type activityVM struct {
	When string
	Who  string
	What string
}

// buildActivity turns audit events into panel rows. Card events stay
// unattributed in anonymous rooms.
func buildActivity(events []audit.Event, room *models.Room) []activityVM {
	names := make(map[string]string, len(room.Members)+1)
	if room.Owner != nil {
		names[room.Owner.ID] = room.Owner.Name
	}
	for _, m := range room.Members {
		names[m.ID] = m.Name
	}

	out := make([]activityVM, 0, len(events))
	for _, e := range events {
		who, ok := names[e.ActorID]
		if !ok {
			who = "A former member"
		}
		if room.Anonymous && isCardEvent(e.EventType) {
			who = "Someone"
		}
		out = append(out, activityVM{
			When: e.Timestamp.UTC().Format("Jan 2 15:04 UTC"),
			Who:  who,
			What: describeEvent(e),
		})
	}
	return out
}

func isCardEvent(t string) bool {
	switch t {
	case audit.EventCardCreated, audit.EventCardUpdated, audit.EventCardDeleted:
		return true
	}
	return false
}

func describeEvent(e audit.Event) string {
	switch e.EventType {
	case audit.EventRoomCreated:
		return "created the room"
	case audit.EventRoomUpdated:
		return "changed the room settings"
	case audit.EventRoomJoined:
		return "joined"
	case audit.EventRoomLeft:
		return "left"
	case audit.EventCategoryCreated:
		return "added column " + quote(e.Details["name"])
	case audit.EventCategoryUpdated:
		return "edited column " + quote(e.Details["name"])
	case audit.EventCategoryDeleted:
		return "deleted column " + quote(e.Details["name"])
	case audit.EventCardCreated:
		return "added a card"
	case audit.EventCardUpdated:
		return "edited a card"
	case audit.EventCardDeleted:
		return "deleted a card"
	default:
		return e.EventType
	}
}

func quote(s string) string {
	return "“" + s + "”"
}

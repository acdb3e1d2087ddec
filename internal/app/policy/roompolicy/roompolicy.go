// internal/app/policy/roompolicy/roompolicy.go
package roompolicy

import (
	"github.com/dalemusser/retroboard/internal/app/system/apperr"
	"github.com/dalemusser/retroboard/internal/app/system/authz"
	"github.com/dalemusser/retroboard/internal/domain/models"
)

// Decision is the outcome of a guard. A denied Decision carries the error
// kind and message to report.
type Decision struct {
	Allowed bool
	Kind    apperr.Kind
	Message string
}

var allow = Decision{Allowed: true}

func deny(k apperr.Kind, msg string) Decision {
	return Decision{Kind: k, Message: msg}
}

// Err returns nil for an allowed Decision, otherwise the matching *apperr.Error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &apperr.Error{Kind: d.Kind, Message: d.Message}
}

// IsOwner allows only the room's owner.
func IsOwner(a authz.Actor, room *models.Room) Decision {
	if a.IsZero() {
		return deny(apperr.KindUnauthenticated, "You must be signed in")
	}
	if room == nil || room.OwnerID != a.UserID {
		return deny(apperr.KindUnauthorized, "You are not the owner of this room")
	}
	return allow
}

// IsMember allows current members. room.Members must be loaded.
func IsMember(a authz.Actor, room *models.Room) Decision {
	if a.IsZero() {
		return deny(apperr.KindUnauthenticated, "You must be signed in")
	}
	if room == nil || !room.HasMember(a.UserID) {
		return deny(apperr.KindBadRequest, "You have not joined this room")
	}
	return allow
}

// CanJoin allows anyone signed in who is not yet a member. room.Members
// must be loaded.
func CanJoin(a authz.Actor, room *models.Room) Decision {
	if a.IsZero() {
		return deny(apperr.KindUnauthenticated, "You must be signed in")
	}
	if room != nil && room.HasMember(a.UserID) {
		return deny(apperr.KindBadRequest, "You have already joined this room")
	}
	return allow
}

// CanEditCard allows the card's creator and the owner of its room.
// card.Room must be loaded for the owner check.
func CanEditCard(a authz.Actor, card *models.Card) Decision {
	return cardGuard(a, card, "You cannot edit this card")
}

// CanDeleteCard is CanEditCard with the delete wording.
func CanDeleteCard(a authz.Actor, card *models.Card) Decision {
	return cardGuard(a, card, "You cannot delete this card")
}

func cardGuard(a authz.Actor, card *models.Card, msg string) Decision {
	if a.IsZero() {
		return deny(apperr.KindUnauthenticated, "You must be signed in")
	}
	if card == nil {
		return deny(apperr.KindUnauthorized, msg)
	}
	if card.CreatorID == a.UserID {
		return allow
	}
	if card.Room != nil && card.Room.OwnerID == a.UserID {
		return allow
	}
	return deny(apperr.KindUnauthorized, msg)
}

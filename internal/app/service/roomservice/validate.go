package roomservice

import "github.com/dalemusser/retroboard/internal/app/system/apperr"

func required(field, v string) error {
	if v == "" {
		return apperr.BadRequest(field + " is required")
	}
	return nil
}

// Validate checks that the ids the operation needs are present.
func (in UpdateRoomInput) Validate() error { return required("id", in.ID) }

func (in CreateCategoryInput) Validate() error { return required("roomId", in.RoomID) }

func (in UpdateCategoryInput) Validate() error { return required("id", in.ID) }

func (in CreateCardInput) Validate() error {
	if err := required("roomId", in.RoomID); err != nil {
		return err
	}
	return required("categoryId", in.CategoryID)
}

func (in UpdateCardInput) Validate() error { return required("id", in.ID) }

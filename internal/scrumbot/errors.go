package scrumbot

import (
	"errors"
	"fmt"

	"github.com/KangGunn/Madcamp-Week4/internal/chat"
	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
	"github.com/KangGunn/Madcamp-Week4/internal/domain/vote"
	"github.com/KangGunn/Madcamp-Week4/internal/platform/apperr"
)

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "Something went wrong.", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, vote.ErrInvalidTimeFormat):
		return apperr.Validation("invalid_time_format", "Invalid time format. Use 24-hour HH:MM, e.g. 18:00.", err)
	case errors.Is(err, vote.ErrTimeInPast):
		return apperr.Validation("time_in_past", "That time has already passed. Pick a time later than now.", err)
	case errors.Is(err, vote.ErrEmptyOption):
		return apperr.Validation("empty_option", "The option is empty.", err)
	case errors.Is(err, vote.ErrOptionTooLong):
		return apperr.Validation("option_too_long", fmt.Sprintf("Options can be at most %d characters long.", vote.MaxOptionLength), err)
	case errors.Is(err, vote.ErrUnknownOption):
		return apperr.Validation("unknown_option", "That option is not part of this vote.", err)
	case errors.Is(err, vote.ErrDuplicateOption):
		return apperr.Conflict("duplicate_option", "That option already exists.", err)
	case errors.Is(err, vote.ErrAddOptionDisabled):
		return apperr.Forbidden("add_option_disabled", "Adding options is disabled for this vote.", err)
	case errors.Is(err, vote.ErrNoActiveVote):
		return apperr.NotFound("no_active_vote", "There is no active vote in this channel.", err)
	case errors.Is(err, scrum.ErrInvalidTime):
		return apperr.Validation("invalid_scrum_time", "Scrum time must be 24-hour HH:MM, e.g. 09:30.", err)
	case errors.Is(err, scrum.ErrNotSet):
		return apperr.NotFound("scrum_time_not_set", "Scrum time has not been set yet.", err)
	case errors.Is(err, chat.ErrDelivery):
		return apperr.Delivery("slack_delivery_failed", "Could not reach Slack.", err)
	default:
		return apperr.Internal("internal_error", "Something went wrong.", err)
	}
}

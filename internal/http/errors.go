package api

import (
	"errors"
	"net/http"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
	"github.com/KangGunn/Madcamp-Week4/internal/domain/vote"
	"github.com/KangGunn/Madcamp-Week4/internal/platform/apperr"
)

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	writeJSON(w, appErr.StatusCode(), map[string]string{
		"error":   appErr.Code,
		"message": appErr.Message,
	})
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, vote.ErrNoActiveVote):
		return apperr.NotFound("no_active_vote", "no active vote in channel", err)
	case errors.Is(err, scrum.ErrNotSet):
		return apperr.NotFound("scrum_time_not_set", "scrum time not set", err)
	default:
		return apperr.Internal("internal_error", http.StatusText(http.StatusInternalServerError), err)
	}
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"tutoring-service/internal/classes"
	"tutoring-service/internal/conversation"
	"tutoring-service/internal/models"
	"tutoring-service/internal/repositories"
	"tutoring-service/internal/rooms"
	"tutoring-service/internal/video"
)

// ErrorStatus maps domain errors to an HTTP status and a client-facing message.
// Unknown errors map to 500 with fallback.
func ErrorStatus(err error, fallback string) (int, string) {
	var validationErrs validator.ValidationErrors
	var apiErr *rooms.APIError
	switch {
	case errors.Is(err, models.ErrInvalidKey):
		return http.StatusBadRequest, "invalid conversation"
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest, validationErrs.Error()
	case errors.Is(err, classes.ErrInvalidPriceBand),
		errors.Is(err, video.ErrUnknownEvent),
		errors.Is(err, video.ErrMissingParticipant),
		errors.Is(err, video.ErrLocalParticipant):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, conversation.ErrForbidden),
		errors.Is(err, classes.ErrNotMember),
		errors.Is(err, classes.ErrNotOwner),
		errors.Is(err, classes.ErrNotTutor),
		errors.Is(err, classes.ErrNotStudent):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, repositories.ErrSessionNotFound),
		errors.Is(err, repositories.ErrClassNotFound),
		errors.Is(err, repositories.ErrMessageNotFound),
		errors.Is(err, repositories.ErrProfileNotFound),
		errors.Is(err, classes.ErrNoSession),
		errors.Is(err, video.ErrNoCall):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, repositories.ErrAlreadySubscribed),
		errors.Is(err, video.ErrInvalidTransition),
		errors.Is(err, video.ErrNotJoined):
		return http.StatusConflict, err.Error()
	case errors.Is(err, rooms.ErrNotConfigured):
		return http.StatusServiceUnavailable, err.Error()
	case errors.As(err, &apiErr), errors.Is(err, rooms.ErrNoRoomURL):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, fallback
	}
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"tablebook/booking-svc/internal/domain"
)

// errorBody is {"error": category, "message": ..., detail fields...}.
type errorBody map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	var (
		closed     *domain.ClosedError
		occupied   *domain.OccupiedError
		capacity   *domain.CapacityError
		transition *domain.TransitionError
	)
	msg := err.Error()

	switch {
	case errors.As(err, &closed):
		return http.StatusUnprocessableEntity, errorBody{
			"error":        "restaurant_closed",
			"message":      msg,
			"reason":       closed.Hours.Reason,
			"weekday":      closed.Hours.Weekday,
			"opening_time": closed.Hours.OpeningTime,
			"closing_time": closed.Hours.ClosingTime,
		}
	case errors.As(err, &occupied):
		return http.StatusUnprocessableEntity, errorBody{
			"error":               "table_occupied",
			"message":             msg,
			"next_available_time": occupied.NextAvailableTime,
		}
	case errors.As(err, &capacity):
		return http.StatusUnprocessableEntity, errorBody{
			"error":    "capacity_exceeded",
			"message":  msg,
			"required": capacity.Required,
			"actual":   capacity.Actual,
		}
	case errors.As(err, &transition):
		return http.StatusConflict, errorBody{
			"error":   "invalid_transition",
			"message": msg,
			"from":    transition.From,
			"to":      transition.To,
		}
	case errors.Is(err, domain.ErrInvalidFormat):
		return http.StatusBadRequest, errorBody{"error": "invalid_format", "message": msg}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorBody{"error": "not_authenticated", "message": msg}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorBody{"error": "forbidden", "message": msg}
	case errors.Is(err, domain.ErrRestaurantNotFound),
		errors.Is(err, domain.ErrTableNotFound),
		errors.Is(err, domain.ErrReservationNotFound):
		return http.StatusNotFound, errorBody{"error": "not_found", "message": msg}
	case errors.Is(err, domain.ErrStoreConflict):
		return http.StatusConflict, errorBody{"error": "store_conflict", "message": "the reservation changed concurrently, please try again", "retry": true}
	case errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict, errorBody{"error": "duplicate_request", "message": msg}
	case errors.Is(err, domain.ErrTableInUse):
		return http.StatusConflict, errorBody{"error": "table_in_use", "message": msg}
	case errors.Is(err, domain.ErrDuplicateTable):
		return http.StatusConflict, errorBody{"error": "duplicate_table", "message": msg}
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, errorBody{"error": "rate_limited", "message": msg}
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, errorBody{"error": "invalid_format", "message": msg}
	}
	return http.StatusInternalServerError, errorBody{"error": "internal", "message": "internal server error"}
}

var (
	errRateLimited = errors.New("too many booking attempts, slow down")
	errBadRequest  = errors.New("malformed request")
)

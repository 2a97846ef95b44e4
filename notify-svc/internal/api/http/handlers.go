package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"tablebook/auth"
	"tablebook/notify-svc/internal/domain"
	"tablebook/notify-svc/internal/service"
)

type Handler struct {
	Inbox service.InboxServiceInterface
	// Ready backs /ready. Nil means always ready.
	Ready func(ctx context.Context) error

	logger zerolog.Logger
}

func NewHandler(inbox service.InboxServiceInterface, logger zerolog.Logger) *Handler {
	return &Handler{Inbox: inbox, logger: logger}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")
	r.HandleFunc("/ready", h.readyCheck).Methods("GET")

	r.HandleFunc("/api/notifications", h.listNotifications).Methods("GET")
	r.HandleFunc("/api/notifications/unread-count", h.unreadCount).Methods("GET")
	r.HandleFunc("/api/notifications/read-all", h.markAllRead).Methods("POST")
	r.HandleFunc("/api/notifications/{id}/read", h.markRead).Methods("POST")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "notify-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) readyCheck(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	var q domain.InboxQuery
	values := r.URL.Query()
	if raw := values.Get("unread"); raw != "" {
		unread, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{"error": "invalid_format", "message": "unread must be a boolean"})
			return
		}
		q.UnreadOnly = unread
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{"error": "invalid_format", "message": "limit must be a positive integer"})
			return
		}
		q.Limit = limit
	}

	items, err := h.Inbox.List(r.Context(), principal(r), q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Inbox.UnreadCount(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{"error": "invalid_format", "message": "id must be a uuid"})
		return
	}
	if err := h.Inbox.MarkRead(r.Context(), principal(r), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Inbox.MarkAllRead(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

type errorBody map[string]any

func principal(r *http.Request) *auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, errorBody{"error": "not_authenticated", "message": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{"error": "not_found", "message": err.Error()})
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{"error": "internal", "message": "internal server error"})
	}
}

package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"tablebook/auth"
	"tablebook/booking-svc/internal/domain"
	"tablebook/booking-svc/internal/service"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	Availability service.AvailabilityServiceInterface
	Bookings     service.BookingServiceInterface
	Reservations service.ReservationServiceInterface
	Tables       service.TableServiceInterface

	// Limiter throttles booking submissions per principal. Nil disables it.
	Limiter *RateLimiter
	// Ready backs /ready. Nil means always ready.
	Ready func(ctx context.Context) error

	logger zerolog.Logger
}

func NewHandler(
	availability service.AvailabilityServiceInterface,
	bookings service.BookingServiceInterface,
	reservations service.ReservationServiceInterface,
	tables service.TableServiceInterface,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		Availability: availability,
		Bookings:     bookings,
		Reservations: reservations,
		Tables:       tables,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")
	r.HandleFunc("/ready", h.readyCheck).Methods("GET")

	r.HandleFunc("/api/restaurants/{id}", h.registerRestaurant).Methods("PUT")
	r.HandleFunc("/api/restaurants/{id}/hours", h.checkHours).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}/hours", h.setOpeningHours).Methods("PUT")
	r.HandleFunc("/api/restaurants/{id}/availability", h.getAvailability).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}/reservations", h.createReservation).Methods("POST")
	r.HandleFunc("/api/restaurants/{id}/reservations", h.listRestaurantReservations).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}/stats", h.restaurantStats).Methods("GET")

	r.HandleFunc("/api/restaurants/{id}/tables", h.listTables).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}/tables", h.createTable).Methods("POST")
	r.HandleFunc("/api/restaurants/{id}/tables/{tableId}", h.updateTable).Methods("PUT")
	r.HandleFunc("/api/restaurants/{id}/tables/{tableId}", h.deleteTable).Methods("DELETE")

	r.HandleFunc("/api/reservations/{id}", h.getReservation).Methods("GET")
	r.HandleFunc("/api/reservations/{id}/status", h.updateReservationStatus).Methods("PATCH")
	r.HandleFunc("/api/reservations/{id}/qrcode", h.getReservationQRCode).Methods("GET")

	r.HandleFunc("/api/me/reservations", h.listMyReservations).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "booking-svc",
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

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a uuid", domain.ErrInvalidFormat, name)
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func principal(r *http.Request) *auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

func (h *Handler) checkHours(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	result, err := h.Availability.CheckHours(r.Context(), id, q.Get("date"), q.Get("time"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	entries, err := h.Availability.GetAvailableTables(r.Context(), id, q.Get("date"), q.Get("time"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil {
		writeError(w, h.logger, domain.ErrNotAuthenticated)
		return
	}
	if !h.Limiter.Allow(p.UserID.String()) {
		w.Header().Set("Retry-After", "60")
		writeError(w, h.logger, errRateLimited)
		return
	}

	restaurantID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req service.BookingRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.RestaurantID = restaurantID
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	reservation, err := h.Bookings.Book(r.Context(), p, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (h *Handler) updateReservationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var payload struct {
		Status domain.ReservationStatus `json:"status"`
	}
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, h.logger, err)
		return
	}
	reservation, err := h.Reservations.UpdateStatus(r.Context(), principal(r), id, payload.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (h *Handler) getReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	reservation, err := h.Reservations.Get(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (h *Handler) getReservationQRCode(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	png, err := h.Reservations.ConfirmationQRCode(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) listMyReservations(w http.ResponseWriter, r *http.Request) {
	filter := service.CustomerFilter(r.URL.Query().Get("filter"))
	if filter == "all" {
		filter = service.FilterAll
	}
	reservations, err := h.Reservations.ListForCustomer(r.Context(), principal(r), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(reservations))
}

func (h *Handler) listRestaurantReservations(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	filter := domain.ReservationFilter{
		Status: domain.ReservationStatus(q.Get("status")),
		Date:   q.Get("date"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: limit must be a number", domain.ErrInvalidFormat))
			return
		}
		filter.Limit = n
	}
	reservations, err := h.Reservations.ListForRestaurant(r.Context(), principal(r), id, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(reservations))
}

func (h *Handler) restaurantStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	stats, err := h.Reservations.Stats(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) registerRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var rest domain.Restaurant
	if err := decodeBody(w, r, &rest); err != nil {
		writeError(w, h.logger, err)
		return
	}
	rest.ID = id
	if err := h.Tables.RegisterRestaurant(r.Context(), principal(r), &rest); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (h *Handler) setOpeningHours(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var hours domain.OpeningHours
	if err := decodeBody(w, r, &hours); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.Tables.SetOpeningHours(r.Context(), principal(r), id, hours); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	tables, err := h.Tables.List(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tables == nil {
		tables = []domain.Table{}
	}
	writeJSON(w, http.StatusOK, tables)
}

// tablePayload keeps id and restaurant id out of client control.
type tablePayload struct {
	TableNumber           int               `json:"table_number"`
	Capacity              int               `json:"capacity"`
	Shape                 domain.TableShape `json:"shape"`
	IsAvailableForBooking *bool             `json:"is_available"`
	PositionX             *float64          `json:"position_x"`
	PositionY             *float64          `json:"position_y"`
}

func (p tablePayload) table(restaurantID, tableID uuid.UUID) *domain.Table {
	available := true
	if p.IsAvailableForBooking != nil {
		available = *p.IsAvailableForBooking
	}
	return &domain.Table{
		ID:                    tableID,
		RestaurantID:          restaurantID,
		TableNumber:           p.TableNumber,
		Capacity:              p.Capacity,
		Shape:                 p.Shape,
		IsAvailableForBooking: available,
		PositionX:             p.PositionX,
		PositionY:             p.PositionY,
	}
}

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var payload tablePayload
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, h.logger, err)
		return
	}
	table := payload.table(id, uuid.Nil)
	if err := h.Tables.Create(r.Context(), principal(r), table); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

func (h *Handler) updateTable(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	tableID, err := pathUUID(r, "tableId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var payload tablePayload
	if err := decodeBody(w, r, &payload); err != nil {
		writeError(w, h.logger, err)
		return
	}
	table := payload.table(id, tableID)
	if err := h.Tables.Update(r.Context(), principal(r), table); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *Handler) deleteTable(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	tableID, err := pathUUID(r, "tableId")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.Tables.Delete(r.Context(), principal(r), id, tableID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil(rs []domain.Reservation) []domain.Reservation {
	if rs == nil {
		return []domain.Reservation{}
	}
	return rs
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tablebook/auth"
	"tablebook/booking-svc/internal/domain"
	"tablebook/booking-svc/internal/schedule"
)

const (
	DefaultMaxAttempts    = 3
	MaxSpecialRequestsLen = 1000
)

type BookingRequest struct {
	RestaurantID    uuid.UUID `json:"-"`
	TableID         uuid.UUID `json:"table_id"`
	Date            string    `json:"reservation_date"`
	Time            string    `json:"reservation_time"`
	PartySize       int       `json:"number_of_people"`
	SpecialRequests string    `json:"special_requests"`
	IdempotencyKey  string    `json:"-"`
}

type BookingOptions struct {
	Policy      schedule.Policy
	MaxAttempts int
	Codes       CodeGenerator
	Idempotency IdempotencyStore
	Metrics     Metrics
	Clock       Clock
}

type BookingService struct {
	store       BookingStore
	notifier    Notifier
	codes       CodeGenerator
	idempotency IdempotencyStore
	metrics     Metrics
	clock       Clock
	policy      schedule.Policy
	maxAttempts int
	logger      zerolog.Logger
}

func NewBookingService(store BookingStore, notifier Notifier, logger zerolog.Logger, opts BookingOptions) *BookingService {
	s := &BookingService{
		store:       store,
		notifier:    notifier,
		codes:       opts.Codes,
		idempotency: opts.Idempotency,
		metrics:     opts.Metrics,
		clock:       opts.Clock,
		policy:      opts.Policy,
		maxAttempts: opts.MaxAttempts,
		logger:      logger.With().Str("component", "booking").Logger(),
	}
	if s.codes == nil {
		s.codes = RandomCodeGenerator{}
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	return s
}

// Book creates a pending reservation. Hours, table existence, capacity and
// occupancy are all re-checked under the table lock; a StoreConflict from the
// store re-runs the whole flow.
func (s *BookingService) Book(ctx context.Context, principal *auth.Principal, req BookingRequest) (*domain.Reservation, error) {
	if principal == nil {
		return nil, domain.ErrNotAuthenticated
	}
	at, err := validateBooking(req)
	if err != nil {
		s.metrics.BookingAttempt(outcomeOf(err))
		return nil, err
	}

	key := ""
	if req.IdempotencyKey != "" && s.idempotency != nil {
		key = principal.UserID.String() + ":" + req.IdempotencyKey
		existing, err := s.idempotency.Reserve(ctx, key)
		switch {
		case errors.Is(err, domain.ErrDuplicateRequest):
			s.metrics.BookingAttempt(outcomeOf(err))
			return nil, err
		case err != nil:
			s.logger.Warn().Err(err).Msg("idempotency store unavailable, booking without key")
			key = ""
		case existing != uuid.Nil:
			s.logger.Info().Str("reservation_id", existing.String()).Msg("replaying idempotent booking")
			return s.store.GetReservation(ctx, existing)
		}
	}

	reservation, err := s.bookWithRetry(ctx, principal, req, at)
	s.metrics.BookingAttempt(outcomeOf(err))

	if key != "" {
		if err != nil {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.logger.Warn().Err(relErr).Msg("failed to release idempotency key")
			}
		} else if compErr := s.idempotency.Complete(ctx, key, reservation.ID); compErr != nil {
			s.logger.Warn().Err(compErr).Msg("failed to complete idempotency key")
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("reservation_id", reservation.ID.String()).
		Str("table_id", reservation.TableID.String()).
		Str("date", reservation.Date).
		Str("time", reservation.Time).
		Msg("reservation created")

	if s.notifier != nil {
		s.notifier.Notify(newReservationNotification(reservation, s.clock))
	}
	return reservation, nil
}

func (s *BookingService) bookWithRetry(ctx context.Context, principal *auth.Principal, req BookingRequest, at slot) (*domain.Reservation, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		reservation, err := s.attempt(ctx, principal, req, at)
		if err == nil {
			return reservation, nil
		}
		if !errors.Is(err, domain.ErrStoreConflict) {
			return nil, err
		}
		lastErr = err
		if attempt < s.maxAttempts {
			s.metrics.BookingRetry()
			s.logger.Debug().Int("attempt", attempt).Err(err).Msg("booking conflict, retrying")
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (s *BookingService) attempt(ctx context.Context, principal *auth.Principal, req BookingRequest, at slot) (*domain.Reservation, error) {
	var created *domain.Reservation
	err := s.store.WithTableLock(ctx, req.TableID, at.date, func(tx BookingTx) error {
		restaurant, hours, err := resolveHours(ctx, tx, req.RestaurantID, at, s.policy)
		if err != nil {
			return err
		}
		if !hours.IsOpen {
			return &domain.ClosedError{Hours: hours}
		}

		entries, err := availableTables(ctx, tx, restaurant.ID, at, s.policy)
		if err != nil {
			return err
		}
		entry, ok := findEntry(entries, req.TableID)
		if !ok {
			return domain.ErrTableNotFound
		}
		if entry.Capacity < req.PartySize {
			return &domain.CapacityError{Required: req.PartySize, Actual: entry.Capacity}
		}
		if entry.IsOccupied {
			return &domain.OccupiedError{TableID: entry.ID, NextAvailableTime: entry.NextAvailableTime}
		}

		code, err := s.codes.Generate()
		if err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		r := &domain.Reservation{
			ID:                uuid.New(),
			RestaurantID:      restaurant.ID,
			TableID:           entry.ID,
			CustomerID:        principal.UserID,
			Date:              at.date,
			Time:              at.time,
			PartySize:         req.PartySize,
			SpecialRequests:   req.SpecialRequests,
			Status:            domain.StatusPending,
			ConfirmationCode:  code,
			CreatedAt:         now,
			UpdatedAt:         now,
			RestaurantName:    restaurant.Name,
			RestaurantOwnerID: restaurant.OwnerID,
			TableNumber:       entry.TableNumber,
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func validateBooking(req BookingRequest) (slot, error) {
	if req.RestaurantID == uuid.Nil || req.TableID == uuid.Nil {
		return slot{}, fmt.Errorf("%w: restaurant and table are required", domain.ErrInvalidFormat)
	}
	if req.PartySize < 1 {
		return slot{}, fmt.Errorf("%w: party size must be at least 1", domain.ErrInvalidFormat)
	}
	if len(req.SpecialRequests) > MaxSpecialRequestsLen {
		return slot{}, fmt.Errorf("%w: special requests exceed %d characters", domain.ErrInvalidFormat, MaxSpecialRequestsLen)
	}
	return parseSlot(strings.TrimSpace(req.Date), strings.TrimSpace(req.Time))
}

func findEntry(entries []domain.AvailabilityEntry, tableID uuid.UUID) (domain.AvailabilityEntry, bool) {
	for _, e := range entries {
		if e.ID == tableID {
			return e, true
		}
	}
	return domain.AvailabilityEntry{}, false
}

// outcomeOf maps a booking error to a low-cardinality metrics label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, domain.ErrRestaurantClosed):
		return "closed"
	case errors.Is(err, domain.ErrTableNotFound), errors.Is(err, domain.ErrRestaurantNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTableOccupied):
		return "occupied"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, domain.ErrInvalidFormat):
		return "invalid"
	case errors.Is(err, domain.ErrStoreConflict):
		return "conflict"
	case errors.Is(err, domain.ErrDuplicateRequest):
		return "duplicate"
	default:
		return "error"
	}
}

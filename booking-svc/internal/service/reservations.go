package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tablebook/auth"
	"tablebook/booking-svc/internal/domain"
	"tablebook/booking-svc/internal/schedule"
)

type CustomerFilter string

const (
	FilterAll       CustomerFilter = ""
	FilterUpcoming  CustomerFilter = "upcoming"
	FilterPast      CustomerFilter = "past"
	FilterCancelled CustomerFilter = "cancelled"
)

const MaxListLimit = 500

type ReservationService struct {
	repo     ReservationRepository
	notifier Notifier
	qr       QRGenerator
	metrics  Metrics
	clock    Clock
	loc      *time.Location
	logger   zerolog.Logger
}

func NewReservationService(repo ReservationRepository, notifier Notifier, qr QRGenerator, metrics Metrics, clock Clock, loc *time.Location, logger zerolog.Logger) *ReservationService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if clock == nil {
		clock = RealClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	if qr == nil {
		qr = DefaultQRGenerator{}
	}
	return &ReservationService{
		repo:     repo,
		notifier: notifier,
		qr:       qr,
		metrics:  metrics,
		clock:    clock,
		loc:      loc,
		logger:   logger.With().Str("component", "lifecycle").Logger(),
	}
}

func (s *ReservationService) today() string {
	return schedule.Today(s.clock.Now(), s.loc)
}

// actorFor resolves the role principal plays on r. Admins act as owners.
func actorFor(principal *auth.Principal, r *domain.Reservation) (string, bool) {
	switch {
	case principal.IsAdmin(), principal.UserID == r.RestaurantOwnerID:
		return ActorOwner, true
	case principal.UserID == r.CustomerID:
		return ActorCustomer, true
	}
	return "", false
}

func (s *ReservationService) UpdateStatus(ctx context.Context, principal *auth.Principal, reservationID uuid.UUID, status domain.ReservationStatus) (*domain.Reservation, error) {
	if principal == nil {
		return nil, domain.ErrNotAuthenticated
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidFormat, status)
	}

	current, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	actor, ok := actorFor(principal, current)
	if !ok {
		return nil, domain.ErrForbidden
	}
	if err := CanTransition(current.Status, status, actor); err != nil {
		return nil, err
	}
	if actor == ActorCustomer && current.Date < s.today() {
		return nil, &domain.TransitionError{From: current.Status, To: status, Actor: actor, Reason: "reservation date has passed"}
	}

	updated, err := s.repo.UpdateReservationStatus(ctx, domain.StatusChange{
		ReservationID: current.ID,
		From:          current.Status,
		To:            status,
		ChangedBy:     principal.UserID,
		CreatedAt:     s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.metrics.StatusTransition(status)
	s.logger.Info().
		Str("reservation_id", updated.ID.String()).
		Str("from", string(current.Status)).
		Str("to", string(status)).
		Str("actor", actor).
		Msg("reservation status changed")

	if n, ok := statusNotification(updated, status, s.clock); ok && s.notifier != nil {
		s.notifier.Notify(n)
	}
	return updated, nil
}

func (s *ReservationService) Get(ctx context.Context, principal *auth.Principal, reservationID uuid.UUID) (*domain.Reservation, error) {
	if principal == nil {
		return nil, domain.ErrNotAuthenticated
	}
	r, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if _, ok := actorFor(principal, r); !ok {
		return nil, domain.ErrForbidden
	}
	return r, nil
}

func (s *ReservationService) ListForCustomer(ctx context.Context, principal *auth.Principal, filter CustomerFilter) ([]domain.Reservation, error) {
	if principal == nil {
		return nil, domain.ErrNotAuthenticated
	}
	var f domain.ReservationFilter
	switch filter {
	case FilterAll:
	case FilterUpcoming:
		f.FromDate = s.today()
		f.ExcludeCancelled = true
	case FilterPast:
		f.BeforeDate = s.today()
	case FilterCancelled:
		f.Status = domain.StatusCancelled
	default:
		return nil, fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidFormat, filter)
	}
	return s.repo.ListCustomerReservations(ctx, principal.UserID, f)
}

func (s *ReservationService) ListForRestaurant(ctx context.Context, principal *auth.Principal, restaurantID uuid.UUID, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	if err := s.authorizeOwner(ctx, principal, restaurantID); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidFormat, filter.Status)
	}
	if filter.Date != "" {
		if _, err := schedule.ParseDate(filter.Date); err != nil {
			return nil, err
		}
	}
	if filter.Limit < 0 || filter.Limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be between 0 and %d", domain.ErrInvalidFormat, MaxListLimit)
	}
	return s.repo.ListRestaurantReservations(ctx, restaurantID, filter)
}

func (s *ReservationService) Stats(ctx context.Context, principal *auth.Principal, restaurantID uuid.UUID) (*domain.RestaurantStats, error) {
	if err := s.authorizeOwner(ctx, principal, restaurantID); err != nil {
		return nil, err
	}
	return s.repo.ReservationStats(ctx, restaurantID, s.today())
}

// ConfirmationQRCode renders the confirmation code as a PNG.
func (s *ReservationService) ConfirmationQRCode(ctx context.Context, principal *auth.Principal, reservationID uuid.UUID) ([]byte, error) {
	r, err := s.Get(ctx, principal, reservationID)
	if err != nil {
		return nil, err
	}
	return s.qr.Generate(r.ConfirmationCode)
}

func (s *ReservationService) authorizeOwner(ctx context.Context, principal *auth.Principal, restaurantID uuid.UUID) error {
	return authorizeOwner(ctx, s.repo, principal, restaurantID)
}

type restaurantGetter interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
}

func authorizeOwner(ctx context.Context, repo restaurantGetter, principal *auth.Principal, restaurantID uuid.UUID) error {
	if principal == nil {
		return domain.ErrNotAuthenticated
	}
	restaurant, err := repo.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return err
	}
	if !principal.IsAdmin() && restaurant.OwnerID != principal.UserID {
		return domain.ErrForbidden
	}
	return nil
}

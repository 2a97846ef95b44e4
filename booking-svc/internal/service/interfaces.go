package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tablebook/auth"
	"tablebook/booking-svc/internal/domain"
)

type AvailabilityServiceInterface interface {
	CheckHours(ctx context.Context, restaurantID uuid.UUID, date, at string) (domain.HoursResult, error)
	GetAvailableTables(ctx context.Context, restaurantID uuid.UUID, date, at string) ([]domain.AvailabilityEntry, error)
}

type BookingServiceInterface interface {
	Book(ctx context.Context, principal *auth.Principal, req BookingRequest) (*domain.Reservation, error)
}

type ReservationServiceInterface interface {
	UpdateStatus(ctx context.Context, principal *auth.Principal, reservationID uuid.UUID, status domain.ReservationStatus) (*domain.Reservation, error)
	Get(ctx context.Context, principal *auth.Principal, reservationID uuid.UUID) (*domain.Reservation, error)
	ListForCustomer(ctx context.Context, principal *auth.Principal, filter CustomerFilter) ([]domain.Reservation, error)
	ListForRestaurant(ctx context.Context, principal *auth.Principal, restaurantID uuid.UUID, filter domain.ReservationFilter) ([]domain.Reservation, error)
	Stats(ctx context.Context, principal *auth.Principal, restaurantID uuid.UUID) (*domain.RestaurantStats, error)
	ConfirmationQRCode(ctx context.Context, principal *auth.Principal, reservationID uuid.UUID) ([]byte, error)
}

type TableServiceInterface interface {
	List(ctx context.Context, principal *auth.Principal, restaurantID uuid.UUID) ([]domain.Table, error)
	Create(ctx context.Context, principal *auth.Principal, table *domain.Table) error
	Update(ctx context.Context, principal *auth.Principal, table *domain.Table) error
	Delete(ctx context.Context, principal *auth.Principal, restaurantID, tableID uuid.UUID) error
	SetOpeningHours(ctx context.Context, principal *auth.Principal, restaurantID uuid.UUID, hours domain.OpeningHours) error
	RegisterRestaurant(ctx context.Context, principal *auth.Principal, restaurant *domain.Restaurant) error
}

// AvailabilityReader is the read side shared by availability queries and the
// booking transaction.
type AvailabilityReader interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
	ListBookableTables(ctx context.Context, restaurantID uuid.UUID) ([]domain.Table, error)
	ListActiveReservations(ctx context.Context, restaurantID uuid.UUID, date string) ([]domain.Reservation, error)
}

type BookingTx interface {
	AvailabilityReader
	InsertReservation(ctx context.Context, r *domain.Reservation) error
}

// BookingStore runs fn while holding an exclusive lock on the reservation set
// of (tableID, date). Writes made through tx commit only if fn returns nil.
type BookingStore interface {
	AvailabilityReader
	GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	WithTableLock(ctx context.Context, tableID uuid.UUID, date string, fn func(tx BookingTx) error) error
}

type ReservationRepository interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	// UpdateReservationStatus moves the reservation from -> to only if it is
	// still in from, recording the change. It returns ErrStoreConflict when
	// the status moved underneath the caller.
	UpdateReservationStatus(ctx context.Context, change domain.StatusChange) (*domain.Reservation, error)
	ListCustomerReservations(ctx context.Context, customerID uuid.UUID, filter domain.ReservationFilter) ([]domain.Reservation, error)
	ListRestaurantReservations(ctx context.Context, restaurantID uuid.UUID, filter domain.ReservationFilter) ([]domain.Reservation, error)
	ReservationStats(ctx context.Context, restaurantID uuid.UUID, today string) (*domain.RestaurantStats, error)
}

type TableRepository interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
	UpsertRestaurant(ctx context.Context, r *domain.Restaurant) error
	ListTables(ctx context.Context, restaurantID uuid.UUID) ([]domain.Table, error)
	GetTable(ctx context.Context, restaurantID, tableID uuid.UUID) (*domain.Table, error)
	CreateTable(ctx context.Context, table *domain.Table) error
	UpdateTable(ctx context.Context, table *domain.Table) error
	// DeleteTable removes the table unless it has pending or confirmed
	// reservations on or after fromDate, in which case ErrTableInUse.
	DeleteTable(ctx context.Context, restaurantID, tableID uuid.UUID, fromDate string) error
	UpdateOpeningHours(ctx context.Context, restaurantID uuid.UUID, hours domain.OpeningHours) error
}

// IdempotencyStore remembers which reservation a client request key produced.
type IdempotencyStore interface {
	// Reserve claims key. If the key already completed it returns the
	// reservation id; if it is claimed but not completed, ErrDuplicateRequest.
	Reserve(ctx context.Context, key string) (existing uuid.UUID, err error)
	Complete(ctx context.Context, key string, reservationID uuid.UUID) error
	Release(ctx context.Context, key string) error
}

type Notifier interface {
	Notify(n domain.Notification)
}

type CodeGenerator interface {
	Generate() (string, error)
}

type QRGenerator interface {
	Generate(content string) ([]byte, error)
}

// Metrics receives booking outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	BookingAttempt(outcome string)
	BookingRetry()
	StatusTransition(to domain.ReservationStatus)
}

type nopMetrics struct{}

func (nopMetrics) BookingAttempt(string) {}
func (nopMetrics) BookingRetry() {}
func (nopMetrics) StatusTransition(domain.ReservationStatus) {}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

var (
	_ AvailabilityServiceInterface = (*AvailabilityService)(nil)
	_ BookingServiceInterface      = (*BookingService)(nil)
	_ ReservationServiceInterface  = (*ReservationService)(nil)
	_ TableServiceInterface        = (*TableService)(nil)
)

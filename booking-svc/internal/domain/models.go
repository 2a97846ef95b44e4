package domain

import (
	"time"

	"github.com/google/uuid"
)

type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// OpeningHours is keyed by lowercase weekday name, "monday" through "sunday".
type OpeningHours map[string]DayHours

type Restaurant struct {
	ID           uuid.UUID    `json:"id"`
	OwnerID      uuid.UUID    `json:"owner_id"`
	Name         string       `json:"name"`
	OpeningHours OpeningHours `json:"opening_hours"`
}

type TableShape string

const (
	ShapeCircle    TableShape = "circle"
	ShapeSquare    TableShape = "square"
	ShapeRectangle TableShape = "rectangle"
)

func (s TableShape) Valid() bool {
	return s == ShapeCircle || s == ShapeSquare || s == ShapeRectangle
}

type Table struct {
	ID                    uuid.UUID  `json:"id"`
	RestaurantID          uuid.UUID  `json:"restaurant_id"`
	TableNumber           int        `json:"table_number"`
	Capacity              int        `json:"capacity"`
	Shape                 TableShape `json:"shape"`
	IsAvailableForBooking bool       `json:"is_available"`
	PositionX             *float64   `json:"position_x,omitempty"`
	PositionY             *float64   `json:"position_y,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s ReservationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Reservation dates are ISO "YYYY-MM-DD" and times "HH:MM" in the
// restaurant's wall-clock time.
type Reservation struct {
	ID               uuid.UUID         `json:"id"`
	RestaurantID     uuid.UUID         `json:"restaurant_id"`
	TableID          uuid.UUID         `json:"table_id"`
	CustomerID       uuid.UUID         `json:"customer_id"`
	Date             string            `json:"reservation_date"`
	Time             string            `json:"reservation_time"`
	PartySize        int               `json:"number_of_people"`
	SpecialRequests  string            `json:"special_requests,omitempty"`
	Status           ReservationStatus `json:"status"`
	ConfirmationCode string            `json:"confirmation_code"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	// Joined for display.
	RestaurantName    string    `json:"restaurant_name,omitempty"`
	RestaurantOwnerID uuid.UUID `json:"-"`
	TableNumber       int       `json:"table_number,omitempty"`
}

// AvailabilityEntry is a table annotated with occupancy at the query instant.
// It is recomputed on every query and never persisted.
type AvailabilityEntry struct {
	Table
	IsOccupied        bool    `json:"is_occupied"`
	NextAvailableTime *string `json:"next_available_time"`
}

type ClosedReason string

const (
	ReasonClosedOnDay     ClosedReason = "closed_on_day"
	ReasonOutsideHours    ClosedReason = "outside_hours"
	ReasonMissingSchedule ClosedReason = "missing_schedule"
)

type HoursResult struct {
	IsOpen      bool         `json:"is_open"`
	Weekday     string       `json:"weekday,omitempty"`
	OpeningTime string       `json:"opening_time,omitempty"`
	ClosingTime string       `json:"closing_time,omitempty"`
	Reason      ClosedReason `json:"reason,omitempty"`
}

type StatusChange struct {
	ReservationID uuid.UUID         `json:"reservation_id"`
	From          ReservationStatus `json:"from_status"`
	To            ReservationStatus `json:"to_status"`
	ChangedBy     uuid.UUID         `json:"changed_by"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ReservationFilter narrows reservation listings. Zero fields do not filter.
type ReservationFilter struct {
	Status           ReservationStatus
	ExcludeCancelled bool
	Date             string
	FromDate         string // inclusive
	BeforeDate       string // exclusive
	Limit            int
}

type RestaurantStats struct {
	TotalReservations     int `json:"total_reservations"`
	UpcomingReservations  int `json:"upcoming_reservations"`
	TodayReservations     int `json:"today_reservations"`
	ThisMonthReservations int `json:"this_month_reservations"`
}

type NotificationType string

const (
	NotificationReservationNew       NotificationType = "reservation_new"
	NotificationReservationConfirmed NotificationType = "reservation_confirmed"
	NotificationReservationCancelled NotificationType = "reservation_cancelled"
)

// Notification is the event handed to the notification sink.
type Notification struct {
	RecipientID uuid.UUID        `json:"user_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	RelatedID   uuid.UUID        `json:"related_id"`
	Timestamp   time.Time        `json:"timestamp"`
}

package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrRestaurantClosed    = errors.New("restaurant is closed")
	ErrRestaurantNotFound  = errors.New("restaurant not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrTableOccupied       = errors.New("table is already reserved")
	ErrCapacityExceeded    = errors.New("party size exceeds table capacity")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidFormat       = errors.New("invalid format")
	ErrStoreConflict       = errors.New("concurrent update conflict")
	ErrDuplicateRequest    = errors.New("request with this idempotency key is in progress")
	ErrTableInUse          = errors.New("table has active reservations")
	ErrDuplicateTable      = errors.New("table number already exists")
)

type ClosedError struct {
	Hours HoursResult
}

func (e *ClosedError) Error() string {
	switch e.Hours.Reason {
	case ReasonClosedOnDay:
		return fmt.Sprintf("restaurant is closed on %ss", e.Hours.Weekday)
	case ReasonOutsideHours:
		return fmt.Sprintf("restaurant is open from %s to %s", e.Hours.OpeningTime, e.Hours.ClosingTime)
	default:
		return "unable to verify restaurant hours"
	}
}

func (e *ClosedError) Is(target error) bool { return target == ErrRestaurantClosed }

type OccupiedError struct {
	TableID           uuid.UUID
	NextAvailableTime *string
}

func (e *OccupiedError) Error() string {
	if e.NextAvailableTime == nil {
		return "this table is already reserved for the rest of the day"
	}
	return "this table is already reserved. Next available at " + *e.NextAvailableTime
}

func (e *OccupiedError) Is(target error) bool { return target == ErrTableOccupied }

type CapacityError struct {
	Required int
	Actual   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("this table only seats %d people, party of %d requested", e.Actual, e.Required)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExceeded }

type TransitionError struct {
	From   ReservationStatus
	To     ReservationStatus
	Actor  string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition: %s -> %s is not allowed for %s", e.From, e.To, e.Actor)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

package service

import (
	"fmt"

	"tablebook/booking-svc/internal/domain"
)

func newReservationNotification(r *domain.Reservation, clock Clock) domain.Notification {
	return domain.Notification{
		RecipientID: r.RestaurantOwnerID,
		Type:        domain.NotificationReservationNew,
		Title:       "New Reservation",
		Message: fmt.Sprintf("New reservation for %d guests at %s on %s at %s",
			r.PartySize, r.RestaurantName, r.Date, r.Time),
		RelatedID: r.ID,
		Timestamp: clock.Now().UTC(),
	}
}

// statusNotification returns the customer-facing event for a transition into
// to, if there is one.
func statusNotification(r *domain.Reservation, to domain.ReservationStatus, clock Clock) (domain.Notification, bool) {
	n := domain.Notification{
		RecipientID: r.CustomerID,
		RelatedID:   r.ID,
		Timestamp:   clock.Now().UTC(),
	}
	switch to {
	case domain.StatusConfirmed:
		n.Type = domain.NotificationReservationConfirmed
		n.Title = "Reservation Confirmed"
		n.Message = fmt.Sprintf("Your reservation at %s on %s at %s has been confirmed. Confirmation code: %s",
			r.RestaurantName, r.Date, r.Time, r.ConfirmationCode)
	case domain.StatusCancelled:
		n.Type = domain.NotificationReservationCancelled
		n.Title = "Reservation Cancelled"
		n.Message = fmt.Sprintf("Your reservation at %s on %s at %s has been cancelled.",
			r.RestaurantName, r.Date, r.Time)
	default:
		return domain.Notification{}, false
	}
	return n, true
}

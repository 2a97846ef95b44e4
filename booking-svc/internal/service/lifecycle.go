package service

import (
	"tablebook/booking-svc/internal/domain"
)

const (
	ActorOwner    = "owner"
	ActorCustomer = "customer"
)

type Transition struct {
	From  domain.ReservationStatus
	To    domain.ReservationStatus
	Actor string
}

var transitions = []Transition{
	{From: domain.StatusPending, To: domain.StatusConfirmed, Actor: ActorOwner},
	{From: domain.StatusConfirmed, To: domain.StatusCompleted, Actor: ActorOwner},
	{From: domain.StatusPending, To: domain.StatusCancelled, Actor: ActorOwner},
	{From: domain.StatusConfirmed, To: domain.StatusCancelled, Actor: ActorOwner},
	// Customers may only cancel, and only for today or later.
	{From: domain.StatusPending, To: domain.StatusCancelled, Actor: ActorCustomer},
	{From: domain.StatusConfirmed, To: domain.StatusCancelled, Actor: ActorCustomer},
}

var transitionSet = func() map[Transition]bool {
	m := make(map[Transition]bool, len(transitions))
	for _, t := range transitions {
		m[t] = true
	}
	return m
}()

// Transitions returns a copy of the lifecycle table.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

func CanTransition(from, to domain.ReservationStatus, actor string) error {
	if from.Terminal() {
		return &domain.TransitionError{From: from, To: to, Actor: actor, Reason: "reservation is already " + string(from)}
	}
	if !transitionSet[Transition{From: from, To: to, Actor: actor}] {
		return &domain.TransitionError{From: from, To: to, Actor: actor}
	}
	return nil
}

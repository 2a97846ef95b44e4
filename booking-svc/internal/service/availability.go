package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"tablebook/booking-svc/internal/domain"
	"tablebook/booking-svc/internal/schedule"
)

type AvailabilityService struct {
	store  AvailabilityReader
	policy schedule.Policy
}

func NewAvailabilityService(store AvailabilityReader, policy schedule.Policy) *AvailabilityService {
	return &AvailabilityService{store: store, policy: policy}
}

// CheckHours reports a closed restaurant through the result, not an error.
func (s *AvailabilityService) CheckHours(ctx context.Context, restaurantID uuid.UUID, date, at string) (domain.HoursResult, error) {
	slot, err := parseSlot(date, at)
	if err != nil {
		return domain.HoursResult{}, err
	}
	_, hours, err := resolveHours(ctx, s.store, restaurantID, slot, s.policy)
	return hours, err
}

func (s *AvailabilityService) GetAvailableTables(ctx context.Context, restaurantID uuid.UUID, date, at string) ([]domain.AvailabilityEntry, error) {
	slot, err := parseSlot(date, at)
	if err != nil {
		return nil, err
	}
	restaurant, hours, err := resolveHours(ctx, s.store, restaurantID, slot, s.policy)
	if err != nil {
		return nil, err
	}
	if !hours.IsOpen {
		return nil, &domain.ClosedError{Hours: hours}
	}
	return availableTables(ctx, s.store, restaurant.ID, slot, s.policy)
}

// slot is a validated (date, time) pair.
type slot struct {
	day     time.Time
	date    string
	time    string
	minutes int
}

func parseSlot(date, at string) (slot, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return slot{}, err
	}
	minutes, err := schedule.TimeToMinutes(at)
	if err != nil {
		return slot{}, err
	}
	return slot{day: day, date: date, time: schedule.MinutesToTime(minutes), minutes: minutes}, nil
}

func resolveHours(ctx context.Context, r AvailabilityReader, restaurantID uuid.UUID, at slot, policy schedule.Policy) (*domain.Restaurant, domain.HoursResult, error) {
	restaurant, err := r.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, domain.HoursResult{}, err
	}
	hours, err := schedule.CheckHours(restaurant.OpeningHours, at.day, at.minutes, policy)
	if err != nil {
		return nil, domain.HoursResult{}, err
	}
	return restaurant, hours, nil
}

// availableTables is a fresh read of bookable tables merged with occupancy.
func availableTables(ctx context.Context, r AvailabilityReader, restaurantID uuid.UUID, at slot, policy schedule.Policy) ([]domain.AvailabilityEntry, error) {
	tables, err := r.ListBookableTables(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	reservations, err := r.ListActiveReservations(ctx, restaurantID, at.date)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(tables))
	for _, t := range tables {
		ids = append(ids, t.ID)
	}
	occupancy, err := schedule.ComputeOccupancy(ids, reservations, at.minutes, policy)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AvailabilityEntry, 0, len(tables))
	for _, t := range tables {
		occ := occupancy[t.ID]
		entries = append(entries, domain.AvailabilityEntry{
			Table:             t,
			IsOccupied:        occ.Occupied,
			NextAvailableTime: occ.NextAvailable,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TableNumber < entries[j].TableNumber
	})
	return entries, nil
}

package schedule

import (
	"fmt"

	"github.com/google/uuid"

	"tablebook/booking-svc/internal/domain"
)

type Occupancy struct {
	Occupied bool
	// NextAvailable is nil for a free table, and for an occupied table whose
	// window runs to midnight or beyond.
	NextAvailable *string
}

// Overlaps reports whether reservations at a and b (minutes since midnight)
// fall within one buffer of each other.
func Overlaps(a, b int, policy Policy) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= policy.buffer()
}

// ComputeOccupancy marks each table occupied at targetMinutes if a
// non-cancelled reservation on it lies within the buffer. reservations must
// all be for the same date. Every id in tableIDs gets an entry; reservations
// on other tables are ignored.
func ComputeOccupancy(tableIDs []uuid.UUID, reservations []domain.Reservation, targetMinutes int, policy Policy) (map[uuid.UUID]Occupancy, error) {
	latest := make(map[uuid.UUID]int, len(tableIDs))
	result := make(map[uuid.UUID]Occupancy, len(tableIDs))
	for _, id := range tableIDs {
		result[id] = Occupancy{}
	}

	for _, r := range reservations {
		if r.Status == domain.StatusCancelled {
			continue
		}
		if _, tracked := result[r.TableID]; !tracked {
			continue
		}
		m, err := TimeToMinutes(r.Time)
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
		}
		if !Overlaps(m, targetMinutes, policy) {
			continue
		}
		if prev, seen := latest[r.TableID]; !seen || m > prev {
			latest[r.TableID] = m
		}
	}

	for id, m := range latest {
		occ := Occupancy{Occupied: true}
		if next := m + policy.buffer(); next < MinutesPerDay {
			s := MinutesToTime(next)
			occ.NextAvailable = &s
		}
		result[id] = occ
	}
	return result, nil
}

package schedule

import (
	"fmt"
	"time"

	"tablebook/booking-svc/internal/domain"
)

const DefaultBufferMinutes = 120

// Policy carries the product decisions the engine does not hardcode.
type Policy struct {
	// BufferMinutes is the dining duration assumed around every reservation.
	BufferMinutes int
	// AllowOvernight lets a day's close fall before its open, meaning the
	// restaurant stays open past midnight. The early-morning hours are read
	// from the same weekday's entry, not the previous day's: with Friday
	// 18:00-02:00 and Saturday closed, Saturday 01:00 reports ClosedOnDay.
	AllowOvernight bool
}

func DefaultPolicy() Policy {
	return Policy{BufferMinutes: DefaultBufferMinutes}
}

func (p Policy) buffer() int {
	if p.BufferMinutes <= 0 {
		return DefaultBufferMinutes
	}
	return p.BufferMinutes
}

// CheckHours decides whether the restaurant is open on date at minutes.
// Malformed open/close values in the schedule are reported as errors rather
// than as a closed result.
func CheckHours(hours domain.OpeningHours, date time.Time, minutes int, policy Policy) (domain.HoursResult, error) {
	day := WeekdayName(date)
	result := domain.HoursResult{Weekday: day}

	if len(hours) == 0 {
		result.Reason = domain.ReasonMissingSchedule
		return result, nil
	}

	entry, ok := hours[day]
	if !ok || entry.Closed {
		result.Reason = domain.ReasonClosedOnDay
		return result, nil
	}

	open, err := TimeToMinutes(entry.Open)
	if err != nil {
		return result, fmt.Errorf("%s opening time: %w", day, err)
	}
	closing, err := TimeToMinutes(entry.Close)
	if err != nil {
		return result, fmt.Errorf("%s closing time: %w", day, err)
	}

	result.OpeningTime = MinutesToTime(open)
	result.ClosingTime = MinutesToTime(closing)

	if policy.AllowOvernight && closing < open {
		result.IsOpen = minutes >= open || minutes <= closing
	} else {
		result.IsOpen = minutes >= open && minutes <= closing
	}
	if !result.IsOpen {
		result.Reason = domain.ReasonOutsideHours
	}
	return result, nil
}

// ValidateOpeningHours rejects unknown weekday keys and malformed times so a
// schedule is checked once when the owner saves it.
func ValidateOpeningHours(hours domain.OpeningHours, policy Policy) error {
	known := make(map[string]bool, len(weekdays))
	for _, d := range weekdays {
		known[d] = true
	}
	for day, entry := range hours {
		if !known[day] {
			return fmt.Errorf("%w: unknown weekday %q", domain.ErrInvalidFormat, day)
		}
		if entry.Closed {
			continue
		}
		open, err := TimeToMinutes(entry.Open)
		if err != nil {
			return fmt.Errorf("%s opening time: %w", day, err)
		}
		closing, err := TimeToMinutes(entry.Close)
		if err != nil {
			return fmt.Errorf("%s closing time: %w", day, err)
		}
		if closing <= open && !policy.AllowOvernight {
			return fmt.Errorf("%w: %s closes at %s before opening at %s", domain.ErrInvalidFormat, day, entry.Close, entry.Open)
		}
	}
	return nil
}

package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tablebook/auth"
	"tablebook/booking-svc/internal/domain"
	"tablebook/booking-svc/internal/schedule"
	"tablebook/booking-svc/internal/service"
	"tablebook/booking-svc/internal/storage"
)

const (
	monday = "2024-06-10"
	sunday = "2024-06-09"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func at(date string) time.Time {
	d, _ := time.ParseInLocation(schedule.DateLayout, date, time.UTC)
	return d.Add(9 * time.Hour)
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []domain.Notification
}

func (n *recordingNotifier) Notify(note domain.Notification) {
	n.mu.Lock()
	n.got = append(n.got, note)
	n.mu.Unlock()
}

func (n *recordingNotifier) All() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.got...)
}

type recordingMetrics struct {
	mu          sync.Mutex
	outcomes    map[string]int
	retries     int
	transitions map[domain.ReservationStatus]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		outcomes:    make(map[string]int),
		transitions: make(map[domain.ReservationStatus]int),
	}
}

func (m *recordingMetrics) BookingAttempt(outcome string) {
	m.mu.Lock()
	m.outcomes[outcome]++
	m.mu.Unlock()
}

func (m *recordingMetrics) BookingRetry() {
	m.mu.Lock()
	m.retries++
	m.mu.Unlock()
}

func (m *recordingMetrics) StatusTransition(to domain.ReservationStatus) {
	m.mu.Lock()
	m.transitions[to]++
	m.mu.Unlock()
}

// sequenceCodes hands out codes in order, repeating the last one.
type sequenceCodes struct {
	mu    sync.Mutex
	codes []string
}

func (s *sequenceCodes) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.codes[0]
	if len(s.codes) > 1 {
		s.codes = s.codes[1:]
	}
	return code, nil
}

func weekSchedule() domain.OpeningHours {
	hours := domain.OpeningHours{}
	for _, d := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"} {
		hours[d] = domain.DayHours{Open: "11:00", Close: "22:00"}
	}
	hours["sunday"] = domain.DayHours{Closed: true}
	return hours
}

type fixture struct {
	store    *storage.MemoryStore
	clock    *fixedClock
	notifier *recordingNotifier
	metrics  *recordingMetrics

	restaurant domain.Restaurant
	table3     domain.Table // seats 4
	table5     domain.Table // seats 6
	table7     domain.Table // not bookable

	owner    *auth.Principal
	customer *auth.Principal
	stranger *auth.Principal
	admin    *auth.Principal

	bookings     *service.BookingService
	availability *service.AvailabilityService
	reservations *service.ReservationService
	tables       *service.TableService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    storage.NewMemoryStore(),
		clock:    &fixedClock{now: at("2024-06-01")},
		notifier: &recordingNotifier{},
		metrics:  newRecordingMetrics(),
		owner:    &auth.Principal{UserID: uuid.New(), Role: auth.RoleOwner},
		customer: &auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer},
		stranger: &auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer},
		admin:    &auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin},
	}
	f.restaurant = domain.Restaurant{
		ID:           uuid.New(),
		OwnerID:      f.owner.UserID,
		Name:         "Chez Test",
		OpeningHours: weekSchedule(),
	}
	f.store.PutRestaurant(f.restaurant)

	f.table3 = f.addTable(t, 3, 4, true)
	f.table5 = f.addTable(t, 5, 6, true)
	f.table7 = f.addTable(t, 7, 8, false)

	f.withBookingOptions(service.BookingOptions{})
	f.availability = service.NewAvailabilityService(f.store, schedule.DefaultPolicy())
	f.reservations = service.NewReservationService(f.store, f.notifier, nil, f.metrics, f.clock, time.UTC, zerolog.Nop())
	f.tables = service.NewTableService(f.store, schedule.DefaultPolicy(), f.clock, time.UTC, zerolog.Nop())
	return f
}

func (f *fixture) addTable(t *testing.T, number, capacity int, bookable bool) domain.Table {
	t.Helper()
	table := domain.Table{
		ID:                    uuid.New(),
		RestaurantID:          f.restaurant.ID,
		TableNumber:           number,
		Capacity:              capacity,
		Shape:                 domain.ShapeSquare,
		IsAvailableForBooking: bookable,
	}
	if err := f.store.CreateTable(context.Background(), &table); err != nil {
		t.Fatalf("seed table %d: %v", number, err)
	}
	return table
}

// withBookingOptions rebuilds the booking service; zero fields fall back to
// the fixture's clock and metrics.
func (f *fixture) withBookingOptions(opts service.BookingOptions) {
	f.withBookingStore(f.store, opts)
}

func (f *fixture) withBookingStore(store service.BookingStore, opts service.BookingOptions) {
	if opts.Clock == nil {
		opts.Clock = f.clock
	}
	if opts.Metrics == nil {
		opts.Metrics = f.metrics
	}
	if opts.Policy == (schedule.Policy{}) {
		opts.Policy = schedule.DefaultPolicy()
	}
	f.bookings = service.NewBookingService(store, f.notifier, zerolog.Nop(), opts)
}

func (f *fixture) request(table domain.Table, date, at string, party int) service.BookingRequest {
	return service.BookingRequest{
		RestaurantID: f.restaurant.ID,
		TableID:      table.ID,
		Date:         date,
		Time:         at,
		PartySize:    party,
	}
}

func (f *fixture) book(t *testing.T, table domain.Table, date, at string, party int) *domain.Reservation {
	t.Helper()
	r, err := f.bookings.Book(context.Background(), f.customer, f.request(table, date, at, party))
	if err != nil {
		t.Fatalf("book table %d at %s %s: %v", table.TableNumber, date, at, err)
	}
	return r
}

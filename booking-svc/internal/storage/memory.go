package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tablebook/booking-svc/internal/domain"
	"tablebook/booking-svc/internal/service"
)

type lockKey struct {
	tableID uuid.UUID
	date    string
}

type slotKey struct {
	tableID uuid.UUID
	date    string
	time    string
}

// MemoryStore keeps everything in process. Bookings on the same table and
// date are serialized by a per-key mutex, and committed inserts enforce the
// same uniqueness rules as the Postgres schema.
type MemoryStore struct {
	mu           sync.RWMutex
	restaurants  map[uuid.UUID]domain.Restaurant
	tables       map[uuid.UUID]domain.Table
	reservations map[uuid.UUID]domain.Reservation
	history      []domain.StatusChange

	locksMu sync.Mutex
	locks   map[lockKey]*tableLock
}

// tableLock is dropped from the map once no booking holds or waits on it.
type tableLock struct {
	mu   sync.Mutex
	refs int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		restaurants:  make(map[uuid.UUID]domain.Restaurant),
		tables:       make(map[uuid.UUID]domain.Table),
		reservations: make(map[uuid.UUID]domain.Reservation),
		locks:        make(map[lockKey]*tableLock),
	}
}

var (
	_ service.BookingStore          = (*MemoryStore)(nil)
	_ service.ReservationRepository = (*MemoryStore)(nil)
	_ service.TableRepository       = (*MemoryStore)(nil)
)

// PutRestaurant inserts or replaces a restaurant. Restaurants are owned by an
// upstream catalogue; this is how dev mode and tests seed them.
func (s *MemoryStore) PutRestaurant(r domain.Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.OpeningHours = copyHours(r.OpeningHours)
	s.restaurants[r.ID] = r
}

func (s *MemoryStore) UpsertRestaurant(_ context.Context, r *domain.Restaurant) error {
	s.PutRestaurant(*r)
	return nil
}

func (s *MemoryStore) GetRestaurant(_ context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.restaurants[id]
	if !ok {
		return nil, domain.ErrRestaurantNotFound
	}
	r.OpeningHours = copyHours(r.OpeningHours)
	return &r, nil
}

func (s *MemoryStore) UpdateOpeningHours(_ context.Context, restaurantID uuid.UUID, hours domain.OpeningHours) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[restaurantID]
	if !ok {
		return domain.ErrRestaurantNotFound
	}
	r.OpeningHours = copyHours(hours)
	s.restaurants[restaurantID] = r
	return nil
}

func (s *MemoryStore) ListBookableTables(ctx context.Context, restaurantID uuid.UUID) ([]domain.Table, error) {
	all, err := s.ListTables(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, t := range all {
		if t.IsAvailableForBooking {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListTables(_ context.Context, restaurantID uuid.UUID) ([]domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.restaurants[restaurantID]; !ok {
		return nil, domain.ErrRestaurantNotFound
	}
	var out []domain.Table
	for _, t := range s.tables {
		if t.RestaurantID == restaurantID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	return out, nil
}

func (s *MemoryStore) GetTable(_ context.Context, restaurantID, tableID uuid.UUID) (*domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[tableID]
	if !ok || t.RestaurantID != restaurantID {
		return nil, domain.ErrTableNotFound
	}
	return &t, nil
}

func (s *MemoryStore) CreateTable(_ context.Context, table *domain.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[table.RestaurantID]; !ok {
		return domain.ErrRestaurantNotFound
	}
	if s.tableNumberTaken(table.RestaurantID, table.TableNumber, table.ID) {
		return domain.ErrDuplicateTable
	}
	s.tables[table.ID] = *table
	return nil
}

func (s *MemoryStore) UpdateTable(_ context.Context, table *domain.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tables[table.ID]
	if !ok || existing.RestaurantID != table.RestaurantID {
		return domain.ErrTableNotFound
	}
	if s.tableNumberTaken(table.RestaurantID, table.TableNumber, table.ID) {
		return domain.ErrDuplicateTable
	}
	s.tables[table.ID] = *table
	return nil
}

func (s *MemoryStore) tableNumberTaken(restaurantID uuid.UUID, number int, except uuid.UUID) bool {
	for _, t := range s.tables {
		if t.RestaurantID == restaurantID && t.TableNumber == number && t.ID != except {
			return true
		}
	}
	return false
}

func (s *MemoryStore) DeleteTable(_ context.Context, restaurantID, tableID uuid.UUID, fromDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableID]
	if !ok || t.RestaurantID != restaurantID {
		return domain.ErrTableNotFound
	}
	for _, r := range s.reservations {
		if r.TableID == tableID && !r.Status.Terminal() && r.Date >= fromDate {
			return domain.ErrTableInUse
		}
	}
	delete(s.tables, tableID)
	for id, r := range s.reservations {
		if r.TableID == tableID {
			delete(s.reservations, id)
		}
	}
	return nil
}

func (s *MemoryStore) ListActiveReservations(_ context.Context, restaurantID uuid.UUID, date string) ([]domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Reservation
	for _, r := range s.reservations {
		if r.RestaurantID == restaurantID && r.Date == date && r.Status != domain.StatusCancelled {
			out = append(out, s.joined(r))
		}
	}
	return out, nil
}

func (s *MemoryStore) GetReservation(_ context.Context, id uuid.UUID) (*domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	r = s.joined(r)
	return &r, nil
}

func (s *MemoryStore) UpdateReservationStatus(_ context.Context, change domain.StatusChange) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[change.ReservationID]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	if r.Status != change.From {
		return nil, domain.ErrStoreConflict
	}
	r.Status = change.To
	r.UpdatedAt = change.CreatedAt
	s.reservations[r.ID] = r
	s.history = append(s.history, change)
	r = s.joined(r)
	return &r, nil
}

// StatusHistory returns the recorded changes for one reservation, oldest first.
func (s *MemoryStore) StatusHistory(reservationID uuid.UUID) []domain.StatusChange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.StatusChange
	for _, c := range s.history {
		if c.ReservationID == reservationID {
			out = append(out, c)
		}
	}
	return out
}

func (s *MemoryStore) ListCustomerReservations(_ context.Context, customerID uuid.UUID, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	out := s.listWhere(func(r domain.Reservation) bool { return r.CustomerID == customerID }, filter)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time > out[j].Time
	})
	return limit(out, filter.Limit), nil
}

func (s *MemoryStore) ListRestaurantReservations(_ context.Context, restaurantID uuid.UUID, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	out := s.listWhere(func(r domain.Reservation) bool { return r.RestaurantID == restaurantID }, filter)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return limit(out, filter.Limit), nil
}

func (s *MemoryStore) ReservationStats(_ context.Context, restaurantID uuid.UUID, today string) (*domain.RestaurantStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	month := today[:7]
	stats := &domain.RestaurantStats{}
	for _, r := range s.reservations {
		if r.RestaurantID != restaurantID {
			continue
		}
		stats.TotalReservations++
		active := r.Status != domain.StatusCancelled
		if active && r.Date >= today {
			stats.UpcomingReservations++
		}
		if active && r.Date == today {
			stats.TodayReservations++
		}
		if strings.HasPrefix(r.Date, month) {
			stats.ThisMonthReservations++
		}
	}
	return stats, nil
}

func (s *MemoryStore) listWhere(match func(domain.Reservation) bool, f domain.ReservationFilter) []domain.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Reservation
	for _, r := range s.reservations {
		if !match(r) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.ExcludeCancelled && r.Status == domain.StatusCancelled {
			continue
		}
		if f.Date != "" && r.Date != f.Date {
			continue
		}
		if f.FromDate != "" && r.Date < f.FromDate {
			continue
		}
		if f.BeforeDate != "" && r.Date >= f.BeforeDate {
			continue
		}
		out = append(out, s.joined(r))
	}
	return out
}

func limit(rs []domain.Reservation, n int) []domain.Reservation {
	if n > 0 && len(rs) > n {
		return rs[:n]
	}
	return rs
}

// joined fills display fields. Callers hold s.mu.
func (s *MemoryStore) joined(r domain.Reservation) domain.Reservation {
	if rest, ok := s.restaurants[r.RestaurantID]; ok {
		r.RestaurantName = rest.Name
		r.RestaurantOwnerID = rest.OwnerID
	}
	if t, ok := s.tables[r.TableID]; ok {
		r.TableNumber = t.TableNumber
	}
	return r
}

func (s *MemoryStore) acquire(key lockKey) *tableLock {
	s.locksMu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &tableLock{}
		s.locks[key] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return l
}

func (s *MemoryStore) release(key lockKey, l *tableLock) {
	l.mu.Unlock()

	s.locksMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
	s.locksMu.Unlock()
}

// heldLocks reports how many (table, date) locks are live.
func (s *MemoryStore) heldLocks() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}

func (s *MemoryStore) WithTableLock(ctx context.Context, tableID uuid.UUID, date string, fn func(tx service.BookingTx) error) error {
	key := lockKey{tableID: tableID, date: date}
	l := s.acquire(key)
	defer s.release(key, l)

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{MemoryStore: s}
	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(tx.pending)
}

func (s *MemoryStore) commit(pending []domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make(map[slotKey]bool)
	codes := make(map[string]bool)
	for _, r := range s.reservations {
		codes[r.ConfirmationCode] = true
		if r.Status != domain.StatusCancelled {
			slots[slotKey{r.TableID, r.Date, r.Time}] = true
		}
	}
	for _, r := range pending {
		// The table may have been deleted since availability was read.
		if _, ok := s.tables[r.TableID]; !ok {
			return domain.ErrTableNotFound
		}
		key := slotKey{r.TableID, r.Date, r.Time}
		if slots[key] || codes[r.ConfirmationCode] {
			return domain.ErrStoreConflict
		}
		slots[key] = true
		codes[r.ConfirmationCode] = true
	}
	for _, r := range pending {
		s.reservations[r.ID] = r
	}
	return nil
}

type memoryTx struct {
	*MemoryStore
	pending []domain.Reservation
}

func (tx *memoryTx) InsertReservation(_ context.Context, r *domain.Reservation) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
		r.UpdatedAt = r.CreatedAt
	}
	stored := *r
	stored.RestaurantName, stored.RestaurantOwnerID, stored.TableNumber = "", uuid.Nil, 0
	tx.pending = append(tx.pending, stored)
	return nil
}

func copyHours(h domain.OpeningHours) domain.OpeningHours {
	if h == nil {
		return nil
	}
	out := make(domain.OpeningHours, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

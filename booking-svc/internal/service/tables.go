package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tablebook/auth"
	"tablebook/booking-svc/internal/domain"
	"tablebook/booking-svc/internal/schedule"
)

const MaxTableCapacity = 50

// TableService is the owner tooling for table inventory and opening hours.
// The booking engine only reads what it writes.
type TableService struct {
	repo   TableRepository
	policy schedule.Policy
	clock  Clock
	loc    *time.Location
	logger zerolog.Logger
}

func NewTableService(repo TableRepository, policy schedule.Policy, clock Clock, loc *time.Location, logger zerolog.Logger) *TableService {
	if clock == nil {
		clock = RealClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &TableService{
		repo:   repo,
		policy: policy,
		clock:  clock,
		loc:    loc,
		logger: logger.With().Str("component", "tables").Logger(),
	}
}

func (s *TableService) List(ctx context.Context, principal *auth.Principal, restaurantID uuid.UUID) ([]domain.Table, error) {
	if err := authorizeOwner(ctx, s.repo, principal, restaurantID); err != nil {
		return nil, err
	}
	return s.repo.ListTables(ctx, restaurantID)
}

func (s *TableService) Create(ctx context.Context, principal *auth.Principal, table *domain.Table) error {
	if err := authorizeOwner(ctx, s.repo, principal, table.RestaurantID); err != nil {
		return err
	}
	if table.Shape == "" {
		table.Shape = domain.ShapeSquare
	}
	if err := validateTable(table); err != nil {
		return err
	}
	table.ID = uuid.New()
	table.CreatedAt = s.clock.Now().UTC()
	if err := s.repo.CreateTable(ctx, table); err != nil {
		return err
	}
	s.logger.Info().Str("table_id", table.ID.String()).Int("table_number", table.TableNumber).Msg("table created")
	return nil
}

func (s *TableService) Update(ctx context.Context, principal *auth.Principal, table *domain.Table) error {
	if err := authorizeOwner(ctx, s.repo, principal, table.RestaurantID); err != nil {
		return err
	}
	existing, err := s.repo.GetTable(ctx, table.RestaurantID, table.ID)
	if err != nil {
		return err
	}
	if table.Shape == "" {
		table.Shape = existing.Shape
	}
	if err := validateTable(table); err != nil {
		return err
	}
	table.CreatedAt = existing.CreatedAt
	return s.repo.UpdateTable(ctx, table)
}

// Delete refuses tables that still carry pending or confirmed reservations
// from today on.
func (s *TableService) Delete(ctx context.Context, principal *auth.Principal, restaurantID, tableID uuid.UUID) error {
	if err := authorizeOwner(ctx, s.repo, principal, restaurantID); err != nil {
		return err
	}
	today := schedule.Today(s.clock.Now(), s.loc)
	if err := s.repo.DeleteTable(ctx, restaurantID, tableID, today); err != nil {
		return err
	}
	s.logger.Info().Str("table_id", tableID.String()).Msg("table deleted")
	return nil
}

func (s *TableService) SetOpeningHours(ctx context.Context, principal *auth.Principal, restaurantID uuid.UUID, hours domain.OpeningHours) error {
	if err := authorizeOwner(ctx, s.repo, principal, restaurantID); err != nil {
		return err
	}
	if err := schedule.ValidateOpeningHours(hours, s.policy); err != nil {
		return err
	}
	normalized := make(domain.OpeningHours, len(hours))
	for day, entry := range hours {
		if !entry.Closed {
			entry.Open, _ = schedule.NormalizeTime(entry.Open)
			entry.Close, _ = schedule.NormalizeTime(entry.Close)
		}
		normalized[day] = entry
	}
	return s.repo.UpdateOpeningHours(ctx, restaurantID, normalized)
}

// RegisterRestaurant mirrors a restaurant from the catalogue. Admin only.
func (s *TableService) RegisterRestaurant(ctx context.Context, principal *auth.Principal, restaurant *domain.Restaurant) error {
	if principal == nil {
		return domain.ErrNotAuthenticated
	}
	if !principal.IsAdmin() {
		return domain.ErrForbidden
	}
	if restaurant.ID == uuid.Nil || restaurant.OwnerID == uuid.Nil || restaurant.Name == "" {
		return fmt.Errorf("%w: id, owner_id and name are required", domain.ErrInvalidFormat)
	}
	if err := schedule.ValidateOpeningHours(restaurant.OpeningHours, s.policy); err != nil {
		return err
	}
	return s.repo.UpsertRestaurant(ctx, restaurant)
}

func validateTable(t *domain.Table) error {
	if t.TableNumber < 1 {
		return fmt.Errorf("%w: table number must be positive", domain.ErrInvalidFormat)
	}
	if t.Capacity < 1 || t.Capacity > MaxTableCapacity {
		return fmt.Errorf("%w: capacity must be between 1 and %d", domain.ErrInvalidFormat, MaxTableCapacity)
	}
	if !t.Shape.Valid() {
		return fmt.Errorf("%w: unknown shape %q", domain.ErrInvalidFormat, t.Shape)
	}
	return nil
}

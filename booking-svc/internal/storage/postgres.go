package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tablebook/booking-svc/internal/domain"
	"tablebook/booking-svc/internal/service"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresRepository struct {
	DB *sql.DB
	pgQueries
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db, pgQueries: pgQueries{q: db}}
}

var (
	_ service.BookingStore          = (*PostgresRepository)(nil)
	_ service.ReservationRepository = (*PostgresRepository)(nil)
	_ service.TableRepository       = (*PostgresRepository)(nil)
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// mapError turns the Postgres conflict codes into domain.ErrStoreConflict.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %s", domain.ErrStoreConflict, pqErr.Message)
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeForeignKeyViolation
}

type pgQueries struct {
	q queryer
}

func (p pgQueries) GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	var (
		rest  domain.Restaurant
		hours []byte
	)
	err := p.q.QueryRowContext(ctx,
		"SELECT id, owner_id, name, opening_hours FROM restaurants WHERE id = $1", id).
		Scan(&rest.ID, &rest.OwnerID, &rest.Name, &hours)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRestaurantNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &rest.OpeningHours); err != nil {
			return nil, fmt.Errorf("%w: opening hours: %v", domain.ErrInvalidFormat, err)
		}
	}
	return &rest, nil
}

const tableColumns = `id, restaurant_id, table_number, capacity, shape, is_available_for_booking, position_x, position_y, created_at`

func scanTable(row interface{ Scan(...any) error }) (domain.Table, error) {
	var (
		t    domain.Table
		x, y sql.NullFloat64
	)
	err := row.Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.Capacity, &t.Shape, &t.IsAvailableForBooking, &x, &y, &t.CreatedAt)
	if x.Valid {
		t.PositionX = &x.Float64
	}
	if y.Valid {
		t.PositionY = &y.Float64
	}
	return t, err
}

func (p pgQueries) listTables(ctx context.Context, restaurantID uuid.UUID, bookableOnly bool) ([]domain.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE restaurant_id = $1`
	if bookableOnly {
		query += ` AND is_available_for_booking`
	}
	query += ` ORDER BY table_number`

	rows, err := p.q.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []domain.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (p pgQueries) ListBookableTables(ctx context.Context, restaurantID uuid.UUID) ([]domain.Table, error) {
	return p.listTables(ctx, restaurantID, true)
}

const reservationSelect = `
	SELECT r.id, r.restaurant_id, r.table_id, r.user_id,
	       to_char(r.reservation_date, 'YYYY-MM-DD'), to_char(r.reservation_time, 'HH24:MI'),
	       r.number_of_people, COALESCE(r.special_requests, ''), r.status, r.confirmation_code,
	       r.created_at, r.updated_at, rest.name, rest.owner_id, t.table_number
	FROM reservations r
	JOIN restaurants rest ON rest.id = r.restaurant_id
	JOIN restaurant_tables t ON t.id = r.table_id`

func scanReservation(row interface{ Scan(...any) error }) (domain.Reservation, error) {
	var r domain.Reservation
	err := row.Scan(&r.ID, &r.RestaurantID, &r.TableID, &r.CustomerID, &r.Date, &r.Time,
		&r.PartySize, &r.SpecialRequests, &r.Status, &r.ConfirmationCode,
		&r.CreatedAt, &r.UpdatedAt, &r.RestaurantName, &r.RestaurantOwnerID, &r.TableNumber)
	return r, err
}

func (p pgQueries) queryReservations(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := p.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p pgQueries) ListActiveReservations(ctx context.Context, restaurantID uuid.UUID, date string) ([]domain.Reservation, error) {
	return p.queryReservations(ctx, reservationSelect+`
	WHERE r.restaurant_id = $1 AND r.reservation_date = $2 AND r.status <> 'cancelled'`,
		restaurantID, date)
}

func (p pgQueries) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	r, err := scanReservation(p.q.QueryRowContext(ctx, reservationSelect+` WHERE r.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// WithTableLock serializes bookings per (table, date) with a transaction-scoped
// advisory lock. The partial unique index on live slots backs it up.
func (r *PostgresRepository) WithTableLock(ctx context.Context, tableID uuid.UUID, date string, fn func(tx service.BookingTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", tableID.String()+"/"+date); err != nil {
		return mapError(err)
	}
	if err := fn(pgTx{pgQueries{q: tx}}); err != nil {
		return err
	}
	return mapError(tx.Commit())
}

type pgTx struct {
	pgQueries
}

func (t pgTx) InsertReservation(ctx context.Context, r *domain.Reservation) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO reservations (id, restaurant_id, table_id, user_id, reservation_date, reservation_time,
		                          number_of_people, special_requests, status, confirmation_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12)`,
		r.ID, r.RestaurantID, r.TableID, r.CustomerID, r.Date, r.Time,
		r.PartySize, r.SpecialRequests, r.Status, r.ConfirmationCode, r.CreatedAt, r.UpdatedAt)
	// The table was deleted after availability was read.
	if isForeignKeyViolation(err) {
		return domain.ErrTableNotFound
	}
	return mapError(err)
}

func (r *PostgresRepository) UpdateReservationStatus(ctx context.Context, change domain.StatusChange) (*domain.Reservation, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
		change.To, change.CreatedAt, change.ReservationID, change.From)
	if err != nil {
		return nil, mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)", change.ReservationID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrReservationNotFound
		}
		return nil, domain.ErrStoreConflict
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reservation_status_history (reservation_id, from_status, to_status, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		change.ReservationID, change.From, change.To, change.ChangedBy, change.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapError(err)
	}
	return r.GetReservation(ctx, change.ReservationID)
}

// filterClause appends the filter's conditions starting at placeholder next.
func filterClause(f domain.ReservationFilter, next int) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		conds = append(conds, fmt.Sprintf(cond, next))
		args = append(args, arg)
		next++
	}
	if f.Status != "" {
		add("r.status = $%d", string(f.Status))
	}
	if f.ExcludeCancelled {
		conds = append(conds, "r.status <> 'cancelled'")
	}
	if f.Date != "" {
		add("r.reservation_date = $%d", f.Date)
	}
	if f.FromDate != "" {
		add("r.reservation_date >= $%d", f.FromDate)
	}
	if f.BeforeDate != "" {
		add("r.reservation_date < $%d", f.BeforeDate)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(conds, " AND "), args
}

func limitClause(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", n)
}

func (r *PostgresRepository) ListCustomerReservations(ctx context.Context, customerID uuid.UUID, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	clause, args := filterClause(filter, 2)
	query := reservationSelect + ` WHERE r.user_id = $1` + clause +
		` ORDER BY r.reservation_date DESC, r.reservation_time DESC` + limitClause(filter.Limit)
	return r.queryReservations(ctx, query, append([]any{customerID}, args...)...)
}

func (r *PostgresRepository) ListRestaurantReservations(ctx context.Context, restaurantID uuid.UUID, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	clause, args := filterClause(filter, 2)
	query := reservationSelect + ` WHERE r.restaurant_id = $1` + clause +
		` ORDER BY r.reservation_date DESC, r.reservation_time ASC` + limitClause(filter.Limit)
	return r.queryReservations(ctx, query, append([]any{restaurantID}, args...)...)
}

func (r *PostgresRepository) ReservationStats(ctx context.Context, restaurantID uuid.UUID, today string) (*domain.RestaurantStats, error) {
	var s domain.RestaurantStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE reservation_date >= $2 AND status <> 'cancelled'),
		       count(*) FILTER (WHERE reservation_date = $2 AND status <> 'cancelled'),
		       count(*) FILTER (WHERE to_char(reservation_date, 'YYYY-MM') = $3)
		FROM reservations
		WHERE restaurant_id = $1`, restaurantID, today, today[:7]).
		Scan(&s.TotalReservations, &s.UpcomingReservations, &s.TodayReservations, &s.ThisMonthReservations)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) UpsertRestaurant(ctx context.Context, rest *domain.Restaurant) error {
	hours, err := json.Marshal(rest.OpeningHours)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO restaurants (id, owner_id, name, opening_hours)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET owner_id = EXCLUDED.owner_id, name = EXCLUDED.name, opening_hours = EXCLUDED.opening_hours`,
		rest.ID, rest.OwnerID, rest.Name, hours)
	return err
}

func (r *PostgresRepository) UpdateOpeningHours(ctx context.Context, restaurantID uuid.UUID, hours domain.OpeningHours) error {
	payload, err := json.Marshal(hours)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE restaurants SET opening_hours = $1 WHERE id = $2", payload, restaurantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrRestaurantNotFound
	}
	return nil
}

func (r *PostgresRepository) ListTables(ctx context.Context, restaurantID uuid.UUID) ([]domain.Table, error) {
	return r.listTables(ctx, restaurantID, false)
}

func (r *PostgresRepository) GetTable(ctx context.Context, restaurantID, tableID uuid.UUID) (*domain.Table, error) {
	t, err := scanTable(r.DB.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables WHERE id = $1 AND restaurant_id = $2`, tableID, restaurantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresRepository) CreateTable(ctx context.Context, t *domain.Table) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO restaurant_tables (id, restaurant_id, table_number, capacity, shape, is_available_for_booking, position_x, position_y, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.RestaurantID, t.TableNumber, t.Capacity, t.Shape, t.IsAvailableForBooking, t.PositionX, t.PositionY, t.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateTable
	}
	if isForeignKeyViolation(err) {
		return domain.ErrRestaurantNotFound
	}
	return err
}

func (r *PostgresRepository) UpdateTable(ctx context.Context, t *domain.Table) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE restaurant_tables
		SET table_number = $1, capacity = $2, shape = $3, is_available_for_booking = $4, position_x = $5, position_y = $6
		WHERE id = $7 AND restaurant_id = $8`,
		t.TableNumber, t.Capacity, t.Shape, t.IsAvailableForBooking, t.PositionX, t.PositionY, t.ID, t.RestaurantID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateTable
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTableNotFound
	}
	return nil
}

// DeleteTable locks the table row first; concurrent reservation inserts take
// a key-share lock on it through the foreign key and so wait behind us.
func (r *PostgresRepository) DeleteTable(ctx context.Context, restaurantID, tableID uuid.UUID, fromDate string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id uuid.UUID
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM restaurant_tables WHERE id = $1 AND restaurant_id = $2 FOR UPDATE", tableID, restaurantID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrTableNotFound
	}
	if err != nil {
		return err
	}

	var active int
	if err := tx.QueryRowContext(ctx, `
		SELECT count(*) FROM reservations
		WHERE table_id = $1 AND status IN ('pending', 'confirmed') AND reservation_date >= $2`,
		tableID, fromDate).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return domain.ErrTableInUse
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM restaurant_tables WHERE id = $1", tableID); err != nil {
		return err
	}
	return tx.Commit()
}

// Ping is used by the readiness probe.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

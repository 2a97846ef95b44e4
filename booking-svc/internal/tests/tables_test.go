package tests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablebook/booking-svc/internal/domain"
)

func TestTableService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tables, err := f.tables.List(ctx, f.owner, f.restaurant.ID)
	require.NoError(t, err)
	require.Len(t, tables, 3)
	assert.Equal(t, []int{3, 5, 7}, []int{tables[0].TableNumber, tables[1].TableNumber, tables[2].TableNumber})

	_, err = f.tables.List(ctx, f.customer, f.restaurant.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.tables.List(ctx, f.admin, f.restaurant.ID)
	assert.NoError(t, err)

	_, err = f.tables.List(ctx, f.owner, uuid.New())
	assert.ErrorIs(t, err, domain.ErrRestaurantNotFound)
}

func TestTableService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		table   domain.Table
		wantErr error
	}{
		{name: "default_shape", table: domain.Table{TableNumber: 9, Capacity: 2, IsAvailableForBooking: true}},
		{name: "duplicate_number", table: domain.Table{TableNumber: 3, Capacity: 2}, wantErr: domain.ErrDuplicateTable},
		{name: "zero_capacity", table: domain.Table{TableNumber: 10, Capacity: 0}, wantErr: domain.ErrInvalidFormat},
		{name: "too_large", table: domain.Table{TableNumber: 10, Capacity: 51}, wantErr: domain.ErrInvalidFormat},
		{name: "bad_shape", table: domain.Table{TableNumber: 10, Capacity: 2, Shape: "hexagon"}, wantErr: domain.ErrInvalidFormat},
		{name: "bad_number", table: domain.Table{TableNumber: 0, Capacity: 2}, wantErr: domain.ErrInvalidFormat},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			table := testCase.table
			table.RestaurantID = f.restaurant.ID
			err := f.tables.Create(ctx, f.owner, &table)
			if testCase.wantErr != nil {
				assert.ErrorIs(t, err, testCase.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, table.ID)
			assert.Equal(t, domain.ShapeSquare, table.Shape)
			assert.Equal(t, f.clock.Now().UTC(), table.CreatedAt)
		})
	}

	stray := domain.Table{RestaurantID: f.restaurant.ID, TableNumber: 11, Capacity: 2}
	assert.ErrorIs(t, f.tables.Create(ctx, f.stranger, &stray), domain.ErrForbidden)
}

func TestTableService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	changed := f.table5
	changed.Capacity = 8
	changed.Shape = ""
	require.NoError(t, f.tables.Update(ctx, f.owner, &changed))

	stored, err := f.store.GetTable(ctx, f.restaurant.ID, f.table5.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.Capacity)
	assert.Equal(t, domain.ShapeSquare, stored.Shape)

	clash := f.table5
	clash.TableNumber = 3
	assert.ErrorIs(t, f.tables.Update(ctx, f.owner, &clash), domain.ErrDuplicateTable)

	missing := domain.Table{ID: uuid.New(), RestaurantID: f.restaurant.ID, TableNumber: 12, Capacity: 2}
	assert.ErrorIs(t, f.tables.Update(ctx, f.owner, &missing), domain.ErrTableNotFound)

	// Now bookable for a larger party.
	r := f.book(t, f.table5, monday, "19:00", 8)
	assert.Equal(t, 8, r.PartySize)
}

func TestTableService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	upcoming := f.book(t, f.table3, monday, "19:00", 2)
	assert.ErrorIs(t, f.tables.Delete(ctx, f.owner, f.restaurant.ID, f.table3.ID), domain.ErrTableInUse)

	_, err := f.reservations.UpdateStatus(ctx, f.owner, upcoming.ID, domain.StatusCancelled)
	require.NoError(t, err)
	require.NoError(t, f.tables.Delete(ctx, f.owner, f.restaurant.ID, f.table3.ID))

	_, err = f.store.GetReservation(ctx, upcoming.ID)
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)

	// Reservations already in the past do not block deletion.
	f.book(t, f.table5, "2024-06-03", "19:00", 2)
	f.clock.Set(at("2024-06-05"))
	assert.NoError(t, f.tables.Delete(ctx, f.owner, f.restaurant.ID, f.table5.ID))

	assert.ErrorIs(t, f.tables.Delete(ctx, f.owner, f.restaurant.ID, f.table5.ID), domain.ErrTableNotFound)
	assert.ErrorIs(t, f.tables.Delete(ctx, f.customer, f.restaurant.ID, f.table7.ID), domain.ErrForbidden)
}

func TestTableService_SetOpeningHours(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.tables.SetOpeningHours(ctx, f.owner, f.restaurant.ID, domain.OpeningHours{
		"monday": {Open: "12:00:00", Close: "23:00"},
		"sunday": {Closed: true},
	})
	require.NoError(t, err)

	restaurant, err := f.store.GetRestaurant(ctx, f.restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, "12:00", restaurant.OpeningHours["monday"].Open)

	result, err := f.availability.CheckHours(ctx, f.restaurant.ID, monday, "22:30")
	require.NoError(t, err)
	assert.True(t, result.IsOpen)

	// Days left out of the schedule are closed.
	result, err = f.availability.CheckHours(ctx, f.restaurant.ID, "2024-06-11", "13:00")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonClosedOnDay, result.Reason)

	assert.ErrorIs(t, f.tables.SetOpeningHours(ctx, f.owner, f.restaurant.ID, domain.OpeningHours{
		"someday": {Open: "10:00", Close: "11:00"},
	}), domain.ErrInvalidFormat)
	assert.ErrorIs(t, f.tables.SetOpeningHours(ctx, f.owner, f.restaurant.ID, domain.OpeningHours{
		"monday": {Open: "23:00", Close: "10:00"},
	}), domain.ErrInvalidFormat)
	assert.ErrorIs(t, f.tables.SetOpeningHours(ctx, f.customer, f.restaurant.ID, weekSchedule()), domain.ErrForbidden)
}

func TestTableService_RegisterRestaurant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := &domain.Restaurant{ID: uuid.New(), OwnerID: f.owner.UserID, Name: "Second", OpeningHours: weekSchedule()}
	require.NoError(t, f.tables.RegisterRestaurant(ctx, f.admin, r))

	stored, err := f.store.GetRestaurant(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Second", stored.Name)

	r.Name = "Renamed"
	require.NoError(t, f.tables.RegisterRestaurant(ctx, f.admin, r))
	stored, err = f.store.GetRestaurant(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)

	assert.ErrorIs(t, f.tables.RegisterRestaurant(ctx, f.owner, r), domain.ErrForbidden)
	assert.ErrorIs(t, f.tables.RegisterRestaurant(ctx, nil, r), domain.ErrNotAuthenticated)
	assert.ErrorIs(t, f.tables.RegisterRestaurant(ctx, f.admin, &domain.Restaurant{ID: uuid.New()}), domain.ErrInvalidFormat)
}

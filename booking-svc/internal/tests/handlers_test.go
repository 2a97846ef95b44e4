package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tablebook/auth"
	httpapi "tablebook/booking-svc/internal/api/http"
	"tablebook/booking-svc/internal/domain"
	"tablebook/booking-svc/internal/metrics"
	"tablebook/booking-svc/internal/mocks"
	"tablebook/booking-svc/internal/service"
)

var testSecret = []byte("test-secret")

type handlerMocks struct {
	availability *mocks.AvailabilityServiceInterface
	bookings     *mocks.BookingServiceInterface
	reservations *mocks.ReservationServiceInterface
	tables       *mocks.TableServiceInterface
}

func newTestHandler(t *testing.T) (*httpapi.Handler, handlerMocks) {
	m := handlerMocks{
		availability: mocks.NewAvailabilityServiceInterface(t),
		bookings:     mocks.NewBookingServiceInterface(t),
		reservations: mocks.NewReservationServiceInterface(t),
		tables:       mocks.NewTableServiceInterface(t),
	}
	h := httpapi.NewHandler(m.availability, m.bookings, m.reservations, m.tables, zerolog.Nop())
	return h, m
}

func token(t *testing.T, p auth.Principal) string {
	t.Helper()
	tok, err := auth.NewVerifier(testSecret).Issue(p, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func serve(h *httpapi.Handler, req *http.Request) *httptest.ResponseRecorder {
	router := httpapi.NewRouter(h, auth.NewVerifier(testSecret), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func byUser(id uuid.UUID) any {
	return mock.MatchedBy(func(p *auth.Principal) bool { return p != nil && p.UserID == id })
}

func TestHandler_createReservation(t *testing.T) {
	customer := auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer}
	restaurantID := uuid.New()
	tableID := uuid.New()
	next := "21:00"

	body := `{"table_id":"` + tableID.String() + `","reservation_date":"2024-06-10","reservation_time":"20:30","number_of_people":2}`

	tests := []struct {
		name      string
		path      string
		body      string
		auth      bool
		setupMock func(m *mocks.BookingServiceInterface)
		wantCode  int
		check     func(t *testing.T, body map[string]any)
	}{
		{
			name: "created",
			path: "/api/restaurants/" + restaurantID.String() + "/reservations",
			body: body,
			auth: true,
			setupMock: func(m *mocks.BookingServiceInterface) {
				m.On("Book", mock.Anything, byUser(customer.UserID), mock.MatchedBy(func(req service.BookingRequest) bool {
					return req.RestaurantID == restaurantID && req.TableID == tableID && req.IdempotencyKey == "key-1" && req.PartySize == 2
				})).Return(&domain.Reservation{ID: uuid.New(), Status: domain.StatusPending, ConfirmationCode: "ABCD1234"}, nil).Once()
			},
			wantCode: http.StatusCreated,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "pending", body["status"])
				assert.Equal(t, "ABCD1234", body["confirmation_code"])
			},
		},
		{
			name: "occupied",
			path: "/api/restaurants/" + restaurantID.String() + "/reservations",
			body: body,
			auth: true,
			setupMock: func(m *mocks.BookingServiceInterface) {
				m.On("Book", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, &domain.OccupiedError{TableID: tableID, NextAvailableTime: &next}).Once()
			},
			wantCode: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "table_occupied", body["error"])
				assert.Equal(t, "21:00", body["next_available_time"])
			},
		},
		{
			name: "closed",
			path: "/api/restaurants/" + restaurantID.String() + "/reservations",
			body: body,
			auth: true,
			setupMock: func(m *mocks.BookingServiceInterface) {
				m.On("Book", mock.Anything, mock.Anything, mock.Anything).Return(nil, &domain.ClosedError{Hours: domain.HoursResult{
					Weekday: "sunday", Reason: domain.ReasonClosedOnDay,
				}}).Once()
			},
			wantCode: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "restaurant_closed", body["error"])
				assert.Equal(t, "closed_on_day", body["reason"])
				assert.Equal(t, "restaurant is closed on sundays", body["message"])
			},
		},
		{
			name: "capacity",
			path: "/api/restaurants/" + restaurantID.String() + "/reservations",
			body: body,
			auth: true,
			setupMock: func(m *mocks.BookingServiceInterface) {
				m.On("Book", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, &domain.CapacityError{Required: 10, Actual: 6}).Once()
			},
			wantCode: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "capacity_exceeded", body["error"])
				assert.Equal(t, float64(10), body["required"])
				assert.Equal(t, float64(6), body["actual"])
			},
		},
		{
			name: "conflict_is_retryable",
			path: "/api/restaurants/" + restaurantID.String() + "/reservations",
			body: body,
			auth: true,
			setupMock: func(m *mocks.BookingServiceInterface) {
				m.On("Book", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrStoreConflict).Once()
			},
			wantCode: http.StatusConflict,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["retry"])
			},
		},
		{
			name: "internal_error_hidden",
			path: "/api/restaurants/" + restaurantID.String() + "/reservations",
			body: body,
			auth: true,
			setupMock: func(m *mocks.BookingServiceInterface) {
				m.On("Book", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection reset")).Once()
			},
			wantCode: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "internal", body["error"])
				assert.NotContains(t, body["message"], "pq")
			},
		},
		{
			name:      "anonymous",
			path:      "/api/restaurants/" + restaurantID.String() + "/reservations",
			body:      body,
			setupMock: func(m *mocks.BookingServiceInterface) {},
			wantCode:  http.StatusUnauthorized,
		},
		{
			name:      "unknown_field",
			path:      "/api/restaurants/" + restaurantID.String() + "/reservations",
			body:      `{"table_id":"` + tableID.String() + `","price":5}`,
			auth:      true,
			setupMock: func(m *mocks.BookingServiceInterface) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "bad_restaurant_id",
			path:      "/api/restaurants/42/reservations",
			body:      body,
			auth:      true,
			setupMock: func(m *mocks.BookingServiceInterface) {},
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			h, m := newTestHandler(t)
			testCase.setupMock(m.bookings)

			req := httptest.NewRequest(http.MethodPost, testCase.path, strings.NewReader(testCase.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Idempotency-Key", "key-1")
			if testCase.auth {
				req.Header.Set("Authorization", token(t, customer))
			}

			w := serve(h, req)
			assert.Equal(t, testCase.wantCode, w.Code, w.Body.String())
			if testCase.check != nil {
				testCase.check(t, decode(t, w))
			}
		})
	}
}

func TestHandler_createReservationRateLimited(t *testing.T) {
	customer := auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer}
	h, m := newTestHandler(t)
	h.Limiter = httpapi.NewRateLimiter(1)

	m.bookings.On("Book", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Reservation{ID: uuid.New()}, nil).Once()

	send := func() *httptest.ResponseRecorder {
		body := `{"table_id":"` + uuid.NewString() + `","reservation_date":"2024-06-10","reservation_time":"19:00","number_of_people":2}`
		req := httptest.NewRequest(http.MethodPost, "/api/restaurants/"+uuid.NewString()+"/reservations", strings.NewReader(body))
		req.Header.Set("Authorization", token(t, customer))
		return serve(h, req)
	}

	assert.Equal(t, http.StatusCreated, send().Code)
	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestHandler_getAvailability(t *testing.T) {
	restaurantID := uuid.New()
	next := "21:00"

	t.Run("ok", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.availability.On("GetAvailableTables", mock.Anything, restaurantID, "2024-06-10", "20:30").Return([]domain.AvailabilityEntry{
			{Table: domain.Table{ID: uuid.New(), TableNumber: 3, Capacity: 4}, IsOccupied: true, NextAvailableTime: &next},
			{Table: domain.Table{ID: uuid.New(), TableNumber: 5, Capacity: 6}},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/restaurants/"+restaurantID.String()+"/availability?date=2024-06-10&time=20:30", nil)
		w := serve(h, req)
		require.Equal(t, http.StatusOK, w.Code)

		var entries []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, true, entries[0]["is_occupied"])
		assert.Equal(t, "21:00", entries[0]["next_available_time"])
		assert.Nil(t, entries[1]["next_available_time"])
	})

	t.Run("bad_time", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.availability.On("GetAvailableTables", mock.Anything, restaurantID, "2024-06-10", "7pm").
			Return(nil, domain.ErrInvalidFormat).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/restaurants/"+restaurantID.String()+"/availability?date=2024-06-10&time=7pm", nil)
		w := serve(h, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_format", decode(t, w)["error"])
	})
}

func TestHandler_checkHours(t *testing.T) {
	h, m := newTestHandler(t)
	restaurantID := uuid.New()
	m.availability.On("CheckHours", mock.Anything, restaurantID, "2024-06-10", "23:00").Return(domain.HoursResult{
		Weekday: "monday", OpeningTime: "11:00", ClosingTime: "22:00", Reason: domain.ReasonOutsideHours,
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/restaurants/"+restaurantID.String()+"/hours?date=2024-06-10&time=23:00", nil)
	w := serve(h, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["is_open"])
	assert.Equal(t, "outside_hours", body["reason"])
}

func TestHandler_updateReservationStatus(t *testing.T) {
	owner := auth.Principal{UserID: uuid.New(), Role: auth.RoleOwner}
	reservationID := uuid.New()

	tests := []struct {
		name      string
		body      string
		setupMock func(m *mocks.ReservationServiceInterface)
		wantCode  int
	}{
		{
			name: "confirmed",
			body: `{"status":"confirmed"}`,
			setupMock: func(m *mocks.ReservationServiceInterface) {
				m.On("UpdateStatus", mock.Anything, byUser(owner.UserID), reservationID, domain.StatusConfirmed).
					Return(&domain.Reservation{ID: reservationID, Status: domain.StatusConfirmed}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "terminal",
			body: `{"status":"cancelled"}`,
			setupMock: func(m *mocks.ReservationServiceInterface) {
				m.On("UpdateStatus", mock.Anything, mock.Anything, reservationID, domain.StatusCancelled).
					Return(nil, &domain.TransitionError{From: domain.StatusCompleted, To: domain.StatusCancelled, Actor: "owner", Reason: "reservation is already completed"}).Once()
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "forbidden",
			body: `{"status":"cancelled"}`,
			setupMock: func(m *mocks.ReservationServiceInterface) {
				m.On("UpdateStatus", mock.Anything, mock.Anything, reservationID, domain.StatusCancelled).
					Return(nil, domain.ErrForbidden).Once()
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "not_found",
			body: `{"status":"confirmed"}`,
			setupMock: func(m *mocks.ReservationServiceInterface) {
				m.On("UpdateStatus", mock.Anything, mock.Anything, reservationID, domain.StatusConfirmed).
					Return(nil, domain.ErrReservationNotFound).Once()
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:      "malformed",
			body:      `{"status":`,
			setupMock: func(m *mocks.ReservationServiceInterface) {},
			wantCode:  http.StatusBadRequest,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			h, m := newTestHandler(t)
			testCase.setupMock(m.reservations)

			req := httptest.NewRequest(http.MethodPatch, "/api/reservations/"+reservationID.String()+"/status", strings.NewReader(testCase.body))
			req.Header.Set("Authorization", token(t, owner))
			w := serve(h, req)
			assert.Equal(t, testCase.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestHandler_listings(t *testing.T) {
	customer := auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer}
	owner := auth.Principal{UserID: uuid.New(), Role: auth.RoleOwner}
	restaurantID := uuid.New()

	t.Run("my_reservations_all", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.reservations.On("ListForCustomer", mock.Anything, byUser(customer.UserID), service.FilterAll).Return(nil, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/me/reservations?filter=all", nil)
		req.Header.Set("Authorization", token(t, customer))
		w := serve(h, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("my_reservations_anonymous", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.reservations.On("ListForCustomer", mock.Anything, (*auth.Principal)(nil), service.FilterUpcoming).
			Return(nil, domain.ErrNotAuthenticated).Once()

		w := serve(h, httptest.NewRequest(http.MethodGet, "/api/me/reservations?filter=upcoming", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("restaurant_reservations", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.reservations.On("ListForRestaurant", mock.Anything, byUser(owner.UserID), restaurantID, domain.ReservationFilter{
			Status: domain.StatusPending, Date: "2024-06-10", Limit: 10,
		}).Return([]domain.Reservation{{ID: uuid.New()}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/restaurants/"+restaurantID.String()+"/reservations?status=pending&date=2024-06-10&limit=10", nil)
		req.Header.Set("Authorization", token(t, owner))
		w := serve(h, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("restaurant_reservations_bad_limit", func(t *testing.T) {
		h, _ := newTestHandler(t)
		req := httptest.NewRequest(http.MethodGet, "/api/restaurants/"+restaurantID.String()+"/reservations?limit=ten", nil)
		req.Header.Set("Authorization", token(t, owner))
		assert.Equal(t, http.StatusBadRequest, serve(h, req).Code)
	})

	t.Run("stats", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.reservations.On("Stats", mock.Anything, byUser(owner.UserID), restaurantID).
			Return(&domain.RestaurantStats{TotalReservations: 4, TodayReservations: 1}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/restaurants/"+restaurantID.String()+"/stats", nil)
		req.Header.Set("Authorization", token(t, owner))
		w := serve(h, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(4), decode(t, w)["total_reservations"])
	})
}

func TestHandler_getReservationQRCode(t *testing.T) {
	customer := auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer}
	reservationID := uuid.New()
	png := []byte("\x89PNG fake")

	h, m := newTestHandler(t)
	m.reservations.On("ConfirmationQRCode", mock.Anything, byUser(customer.UserID), reservationID).Return(png, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/reservations/"+reservationID.String()+"/qrcode", nil)
	req.Header.Set("Authorization", token(t, customer))
	w := serve(h, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, png, w.Body.Bytes())
}

func TestHandler_tables(t *testing.T) {
	owner := auth.Principal{UserID: uuid.New(), Role: auth.RoleOwner}
	restaurantID := uuid.New()
	tableID := uuid.New()

	t.Run("create_defaults_to_bookable", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.tables.On("Create", mock.Anything, byUser(owner.UserID), mock.MatchedBy(func(table *domain.Table) bool {
			return table.RestaurantID == restaurantID && table.TableNumber == 4 && table.IsAvailableForBooking && table.ID == uuid.Nil
		})).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/restaurants/"+restaurantID.String()+"/tables",
			bytes.NewBufferString(`{"table_number":4,"capacity":2,"shape":"circle"}`))
		req.Header.Set("Authorization", token(t, owner))
		assert.Equal(t, http.StatusCreated, serve(h, req).Code)
	})

	t.Run("create_duplicate", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.tables.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrDuplicateTable).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/restaurants/"+restaurantID.String()+"/tables",
			bytes.NewBufferString(`{"table_number":3,"capacity":2}`))
		req.Header.Set("Authorization", token(t, owner))
		w := serve(h, req)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "duplicate_table", decode(t, w)["error"])
	})

	t.Run("update", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.tables.On("Update", mock.Anything, mock.Anything, mock.MatchedBy(func(table *domain.Table) bool {
			return table.ID == tableID && !table.IsAvailableForBooking
		})).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/api/restaurants/"+restaurantID.String()+"/tables/"+tableID.String(),
			bytes.NewBufferString(`{"table_number":3,"capacity":4,"is_available":false}`))
		req.Header.Set("Authorization", token(t, owner))
		assert.Equal(t, http.StatusOK, serve(h, req).Code)
	})

	t.Run("delete_in_use", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.tables.On("Delete", mock.Anything, mock.Anything, restaurantID, tableID).Return(domain.ErrTableInUse).Once()

		req := httptest.NewRequest(http.MethodDelete, "/api/restaurants/"+restaurantID.String()+"/tables/"+tableID.String(), nil)
		req.Header.Set("Authorization", token(t, owner))
		w := serve(h, req)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "table_in_use", decode(t, w)["error"])
	})

	t.Run("delete", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.tables.On("Delete", mock.Anything, mock.Anything, restaurantID, tableID).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/api/restaurants/"+restaurantID.String()+"/tables/"+tableID.String(), nil)
		req.Header.Set("Authorization", token(t, owner))
		assert.Equal(t, http.StatusNoContent, serve(h, req).Code)
	})

	t.Run("set_hours", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.tables.On("SetOpeningHours", mock.Anything, mock.Anything, restaurantID, domain.OpeningHours{
			"monday": {Open: "11:00", Close: "22:00"},
		}).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/api/restaurants/"+restaurantID.String()+"/hours",
			bytes.NewBufferString(`{"monday":{"open":"11:00","close":"22:00"}}`))
		req.Header.Set("Authorization", token(t, owner))
		assert.Equal(t, http.StatusNoContent, serve(h, req).Code)
	})

	t.Run("register_restaurant", func(t *testing.T) {
		admin := auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}
		h, m := newTestHandler(t)
		m.tables.On("RegisterRestaurant", mock.Anything, byUser(admin.UserID), mock.MatchedBy(func(r *domain.Restaurant) bool {
			return r.ID == restaurantID && r.Name == "Chez Test" && r.OwnerID == owner.UserID
		})).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/api/restaurants/"+restaurantID.String(),
			bytes.NewBufferString(`{"owner_id":"`+owner.UserID.String()+`","name":"Chez Test"}`))
		req.Header.Set("Authorization", token(t, admin))
		assert.Equal(t, http.StatusOK, serve(h, req).Code)
	})
}

func TestHandler_probesAndAuth(t *testing.T) {
	h, _ := newTestHandler(t)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "booking-svc", decode(t, w)["service"])

	h.Ready = func(_ context.Context) error { return errors.New("postgres down") }
	w = serve(h, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/me/reservations", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)
}

func TestRouter_metrics(t *testing.T) {
	h, m := newTestHandler(t)
	reg := prometheus.NewRegistry()
	observer := metrics.New("booking", reg)
	router := httpapi.NewRouter(h, auth.NewVerifier(testSecret), observer)

	restaurantID := uuid.New()
	m.reservations.On("Stats", mock.Anything, mock.Anything, restaurantID).Return(nil, domain.ErrForbidden).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/restaurants/"+restaurantID.String()+"/stats", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `booking_http_request_duration_seconds_count{code="403",method="GET",route="/api/restaurants/{id}/stats"} 1`)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lanhall/internal/billing"
	apperr "lanhall/internal/errors"
	"lanhall/internal/middleware"
	"lanhall/internal/models"
	"lanhall/internal/repository"
	"lanhall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory service.Store for routing tests.
type memStore struct {
	seats    map[string]*models.Seat
	accounts map[int64]*models.Account
	sessions []models.SessionRecord
}

func newMemStore() *memStore {
	return &memStore{
		seats:    make(map[string]*models.Seat),
		accounts: make(map[int64]*models.Account),
	}
}

func (m *memStore) InTx(ctx context.Context, fn func(tx repository.StoreTx) error) error {
	return fn(m)
}

func (m *memStore) SeatByOccupant(ctx context.Context, accountID int64) (*models.Seat, error) {
	return m.SeatByOccupantForUpdate(ctx, accountID)
}

func (m *memStore) AccountByID(ctx context.Context, accountID int64) (*models.Account, error) {
	return m.accounts[accountID], nil
}

func (m *memStore) SeatForUpdate(ctx context.Context, seatID string) (*models.Seat, error) {
	seat, ok := m.seats[seatID]
	if !ok {
		return nil, apperr.ErrSeatNotFound
	}
	copied := *seat
	return &copied, nil
}

func (m *memStore) SeatByOccupantForUpdate(ctx context.Context, accountID int64) (*models.Seat, error) {
	for _, seat := range m.seats {
		if seat.OccupantID != nil && *seat.OccupantID == accountID &&
			(seat.Status == models.SeatReserved || seat.Status == models.SeatOccupied) {
			copied := *seat
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateSeatState(ctx context.Context, seat *models.Seat) error {
	copied := *seat
	m.seats[seat.ID] = &copied
	return nil
}

func (m *memStore) AccountForUpdate(ctx context.Context, accountID int64) (*models.Account, error) {
	account, ok := m.accounts[accountID]
	if !ok {
		return nil, apperr.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *memStore) UpdateBalance(ctx context.Context, accountID int64, balance int64) error {
	m.accounts[accountID].Balance = balance
	return nil
}

func (m *memStore) SetActivityStatus(ctx context.Context, accountID int64, status string) error {
	return nil
}

func (m *memStore) InsertSession(ctx context.Context, rec *models.SessionRecord) error {
	m.sessions = append(m.sessions, *rec)
	return nil
}

// memCatalog is an in-memory service.SeatCatalog.
type memCatalog struct {
	store *memStore
}

func (m *memCatalog) Create(ctx context.Context, seat *models.Seat) error {
	seat.ID = "seat-" + seat.Name
	m.store.seats[seat.ID] = seat
	return nil
}

func (m *memCatalog) GetByID(ctx context.Context, id string) (*models.Seat, error) {
	return m.store.seats[id], nil
}

func (m *memCatalog) List(ctx context.Context) ([]models.Seat, error) {
	seats := make([]models.Seat, 0, len(m.store.seats))
	for _, seat := range m.store.seats {
		seats = append(seats, *seat)
	}
	return seats, nil
}

func (m *memCatalog) Delete(ctx context.Context, id string) error {
	if _, ok := m.store.seats[id]; !ok {
		return apperr.ErrSeatNotFound
	}
	delete(m.store.seats, id)
	return nil
}

const testAccountID int64 = 7

func authAs(accountID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(
			middleware.ContextWithAccountID(c.Request.Context(), accountID))
		c.Next()
	}
}

func setupRouter(t *testing.T, store *memStore, authenticated bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tariff := billing.Tariff{Deposit: 36000, RatePerHour: 36000}
	catalog := &memCatalog{store: store}
	services := &service.Services{
		Registry: service.NewRegistryService(store, catalog, nil, nil, tariff, nil),
		Sessions: service.NewSessionService(store, nil, nil, nil, tariff, nil),
	}
	h := NewHandlers(services)

	router := gin.New()
	api := router.Group("/api")
	if authenticated {
		api.Use(authAs(testAccountID))
	}
	api.GET("/seats", h.ListSeats)
	api.POST("/seats/reserve", h.ReserveSeat)
	api.POST("/seats/enter", h.EnterSeat)
	api.POST("/sessions/end", h.EndSession)
	api.GET("/sessions/remaining", h.PreviewRemaining)

	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestReserveSeatEndpoint(t *testing.T) {
	store := newMemStore()
	store.seats["seat-1"] = &models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatFree}
	store.accounts[testAccountID] = &models.Account{AccountID: testAccountID, Balance: 100000}
	router := setupRouter(t, store, true)

	w := doJSON(router, http.MethodPost, "/api/seats/reserve", models.ReserveSeatRequest{SeatID: "seat-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ReserveSeatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(64000), resp.NewBalance)
	assert.Equal(t, models.SeatReserved, resp.Seat.Status)
}

func TestReserveSeatValidation(t *testing.T) {
	router := setupRouter(t, newMemStore(), true)

	w := doJSON(router, http.MethodPost, "/api/seats/reserve", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReserveSeatRequiresAuth(t *testing.T) {
	store := newMemStore()
	store.seats["seat-1"] = &models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatFree}
	router := setupRouter(t, store, false)

	w := doJSON(router, http.MethodPost, "/api/seats/reserve", models.ReserveSeatRequest{SeatID: "seat-1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDomainErrorMapping(t *testing.T) {
	now := time.Now()
	other := int64(99)

	tests := []struct {
		name       string
		setup      func(store *memStore)
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantKind   string
	}{
		{
			name:       "unknown seat is 404",
			setup:      func(store *memStore) {},
			method:     http.MethodPost,
			path:       "/api/seats/reserve",
			body:       models.ReserveSeatRequest{SeatID: "ghost"},
			wantStatus: http.StatusNotFound,
			wantKind:   "NotFound",
		},
		{
			name: "insufficient balance is 402",
			setup: func(store *memStore) {
				store.seats["seat-1"] = &models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatFree}
				store.accounts[testAccountID].Balance = 10000
			},
			method:     http.MethodPost,
			path:       "/api/seats/reserve",
			body:       models.ReserveSeatRequest{SeatID: "seat-1"},
			wantStatus: http.StatusPaymentRequired,
			wantKind:   "InsufficientBalance",
		},
		{
			name: "seat in maintenance is 409",
			setup: func(store *memStore) {
				store.seats["seat-1"] = &models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatMaintenance}
			},
			method:     http.MethodPost,
			path:       "/api/seats/enter",
			body:       models.EnterSeatRequest{SeatID: "seat-1"},
			wantStatus: http.StatusConflict,
			wantKind:   "SeatUnavailable",
		},
		{
			name: "foreign reservation is 409",
			setup: func(store *memStore) {
				store.seats["seat-1"] = &models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatReserved, OccupantID: &other, SessionStart: &now}
			},
			method:     http.MethodPost,
			path:       "/api/seats/enter",
			body:       models.EnterSeatRequest{SeatID: "seat-1"},
			wantStatus: http.StatusConflict,
			wantKind:   "ReservationMismatch",
		},
		{
			name:       "end without session is 409",
			setup:      func(store *memStore) {},
			method:     http.MethodPost,
			path:       "/api/sessions/end",
			body:       nil,
			wantStatus: http.StatusConflict,
			wantKind:   "NotPlaying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.accounts[testAccountID] = &models.Account{AccountID: testAccountID, Balance: 100000}
			tt.setup(store)
			router := setupRouter(t, store, true)

			w := doJSON(router, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body["kind"])
		})
	}
}

func TestAlreadySeatedNamesTheSeat(t *testing.T) {
	now := time.Now()
	held := testAccountID
	store := newMemStore()
	store.seats["seat-1"] = &models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatOccupied, OccupantID: &held, SessionStart: &now}
	store.seats["seat-2"] = &models.Seat{ID: "seat-2", Name: "A2", Status: models.SeatFree}
	store.accounts[testAccountID] = &models.Account{AccountID: testAccountID, Balance: 100000}
	router := setupRouter(t, store, true)

	w := doJSON(router, http.MethodPost, "/api/seats/reserve", models.ReserveSeatRequest{SeatID: "seat-2"})
	require.Equal(t, http.StatusConflict, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "AlreadySeated", body["kind"])
	assert.Equal(t, "A1", body["seat"])
}

func TestEndSessionEndpoint(t *testing.T) {
	sessionStart := time.Now().Add(-30 * time.Minute)
	held := testAccountID
	store := newMemStore()
	store.seats["seat-1"] = &models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatOccupied, OccupantID: &held, SessionStart: &sessionStart}
	store.accounts[testAccountID] = &models.Account{AccountID: testAccountID, Balance: 100000}
	router := setupRouter(t, store, true)

	w := doJSON(router, http.MethodPost, "/api/sessions/end", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.EndSessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 30.0, resp.ElapsedMinutes, 0.1)
	assert.InDelta(t, float64(18000), float64(resp.Cost), 100)
	assert.Equal(t, models.SeatFree, store.seats["seat-1"].Status)
}

func TestPreviewRemainingEndpoint(t *testing.T) {
	sessionStart := time.Now().Add(-30 * time.Minute)
	held := testAccountID
	store := newMemStore()
	store.seats["seat-1"] = &models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatOccupied, OccupantID: &held, SessionStart: &sessionStart}
	store.accounts[testAccountID] = &models.Account{AccountID: testAccountID, Balance: 72000}
	router := setupRouter(t, store, true)

	w := doJSON(router, http.MethodGet, "/api/sessions/remaining", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RemainingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, float64(54000), float64(resp.EffectiveBalance), 100)
	assert.Greater(t, resp.RemainingMs, int64(0))
}

func TestListSeatsEndpoint(t *testing.T) {
	store := newMemStore()
	store.seats["seat-1"] = &models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatFree}
	router := setupRouter(t, store, true)

	w := doJSON(router, http.MethodGet, "/api/seats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ListSeatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "A1", resp[0].Name)
	assert.Equal(t, models.SeatFree, resp[0].Status)
}

package service

import (
	"context"
	"testing"
	"time"

	apperr "lanhall/internal/errors"
	"lanhall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(store *fakeStore, at time.Time) (*SessionService, *fakePublisher, *fakePresence) {
	events := newFakePublisher()
	presence := newFakePresence()
	svc := NewSessionService(store, events, presence, nil, testTariff, fixedClock(at))
	return svc, events, presence
}

func TestEndSettlesSession(t *testing.T) {
	sessionStart := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := sessionStart.Add(30 * time.Minute)
	accountID := int64(7)
	store := newFakeStore()
	store.addSeat(models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatOccupied, OccupantID: &accountID, SessionStart: &sessionStart})
	store.addAccount(models.Account{AccountID: accountID, Balance: 100000})
	svc, events, presence := newTestSessions(store, now)

	resp, err := svc.End(context.Background(), accountID, models.RoleMember)
	require.NoError(t, err)

	assert.Equal(t, int64(18000), resp.Cost)
	assert.Equal(t, 30.0, resp.ElapsedMinutes)
	assert.Equal(t, int64(82000), resp.NewBalance)

	assert.Equal(t, int64(82000), store.accounts[accountID].Balance)
	assert.Equal(t, models.SeatFree, store.seats["seat-1"].Status)
	assert.Nil(t, store.seats["seat-1"].OccupantID)
	assert.Nil(t, store.seats["seat-1"].SessionStart)
	assert.Equal(t, models.ActivityOnline, store.activity[accountID])
	assert.Equal(t, models.ActivityOnline, presence.statuses[accountID])

	require.Len(t, store.sessions, 1)
	rec := store.sessions[0]
	assert.Equal(t, "seat-1", rec.SeatID)
	assert.Equal(t, sessionStart, rec.StartedAt)
	assert.Equal(t, now, rec.EndedAt)
	assert.Equal(t, int64(18000), rec.Cost)
	assert.Equal(t, models.RoleMember, rec.EndedBy)

	event := events.last(models.EventSessionEnded).(models.SessionEndedEvent)
	assert.Equal(t, int64(18000), event.Cost)
	assert.Equal(t, int64(82000), event.NewBalance)
}

func TestEndFloorsBalanceAtZero(t *testing.T) {
	sessionStart := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := sessionStart.Add(3 * time.Hour)
	accountID := int64(7)
	store := newFakeStore()
	store.addSeat(models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatOccupied, OccupantID: &accountID, SessionStart: &sessionStart})
	store.addAccount(models.Account{AccountID: accountID, Balance: 50000})
	svc, _, _ := newTestSessions(store, now)

	resp, err := svc.End(context.Background(), accountID, models.RoleMember)
	require.NoError(t, err)

	assert.Equal(t, int64(108000), resp.Cost, "the audit row records the full cost")
	assert.Equal(t, int64(0), resp.NewBalance)
	assert.Equal(t, int64(0), store.accounts[accountID].Balance)
}

func TestEndRequiresActiveSession(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	accountID := int64(7)

	t.Run("no seat held", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(models.Account{AccountID: accountID, Balance: 100000})
		svc, _, _ := newTestSessions(store, now)

		_, err := svc.End(context.Background(), accountID, models.RoleMember)
		assert.ErrorIs(t, err, apperr.ErrNotPlaying)
	})

	t.Run("reservation is not a session", func(t *testing.T) {
		store := newFakeStore()
		store.addSeat(models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatReserved, OccupantID: &accountID, SessionStart: &now})
		store.addAccount(models.Account{AccountID: accountID, Balance: 100000})
		svc, _, _ := newTestSessions(store, now)

		_, err := svc.End(context.Background(), accountID, models.RoleMember)
		assert.ErrorIs(t, err, apperr.ErrNotPlaying)
		assert.Equal(t, models.SeatReserved, store.seats["seat-1"].Status)
	})
}

func TestEndIsIdempotentPerSession(t *testing.T) {
	sessionStart := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := sessionStart.Add(time.Hour)
	accountID := int64(7)
	store := newFakeStore()
	store.addSeat(models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatOccupied, OccupantID: &accountID, SessionStart: &sessionStart})
	store.addAccount(models.Account{AccountID: accountID, Balance: 100000})
	svc, _, _ := newTestSessions(store, now)

	_, err := svc.End(context.Background(), accountID, models.RoleMember)
	require.NoError(t, err)

	// The seat is FREE now, so a repeated end finds no session to settle
	_, err = svc.End(context.Background(), accountID, models.RoleMember)
	assert.ErrorIs(t, err, apperr.ErrNotPlaying)
	assert.Equal(t, int64(64000), store.accounts[accountID].Balance, "settled exactly once")
	assert.Len(t, store.sessions, 1)
}

func TestPreviewRemaining(t *testing.T) {
	sessionStart := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := sessionStart.Add(30 * time.Minute)
	accountID := int64(7)
	store := newFakeStore()
	store.addSeat(models.Seat{ID: "seat-1", Name: "A1", Status: models.SeatOccupied, OccupantID: &accountID, SessionStart: &sessionStart})
	store.addAccount(models.Account{AccountID: accountID, Balance: 72000})
	svc, _, _ := newTestSessions(store, now)

	resp, err := svc.PreviewRemaining(context.Background(), accountID)
	require.NoError(t, err)

	assert.Equal(t, int64(54000), resp.EffectiveBalance)
	assert.Equal(t, int64(5_400_000), resp.RemainingMs)

	// Read-only: nothing settles
	assert.Equal(t, int64(72000), store.accounts[accountID].Balance)
	assert.Equal(t, models.SeatOccupied, store.seats["seat-1"].Status)
}

func TestPreviewRemainingGuards(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("unknown account", func(t *testing.T) {
		svc, _, _ := newTestSessions(newFakeStore(), now)
		_, err := svc.PreviewRemaining(context.Background(), 42)
		assert.ErrorIs(t, err, apperr.ErrAccountNotFound)
	})

	t.Run("not playing", func(t *testing.T) {
		store := newFakeStore()
		store.addAccount(models.Account{AccountID: 7, Balance: 100000})
		svc, _, _ := newTestSessions(store, now)
		_, err := svc.PreviewRemaining(context.Background(), 7)
		assert.ErrorIs(t, err, apperr.ErrNotPlaying)
	})
}

func TestSearchArchiveWithoutBackend(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewSessionService(newFakeStore(), nil, nil, nil, testTariff, fixedClock(now))

	_, err := svc.SearchArchive(context.Background(), nil, "", 1, 20)
	assert.Error(t, err)
}

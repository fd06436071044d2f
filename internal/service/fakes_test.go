package service

import (
	"context"
	"sync"

	apperr "lanhall/internal/errors"
	"lanhall/internal/models"
	"lanhall/internal/repository"
)

// fakeStore is an in-memory Store and StoreTx used to exercise the
// state machine without Postgres. Row copies emulate the read-modify-
// write flow of the real transaction.
type fakeStore struct {
	mu       sync.Mutex
	seats    map[string]*models.Seat
	accounts map[int64]*models.Account
	sessions []models.SessionRecord
	activity map[int64]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		seats:    make(map[string]*models.Seat),
		accounts: make(map[int64]*models.Account),
		activity: make(map[int64]string),
	}
}

func (f *fakeStore) addSeat(seat models.Seat) {
	f.seats[seat.ID] = &seat
}

func (f *fakeStore) addAccount(account models.Account) {
	f.accounts[account.AccountID] = &account
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx repository.StoreTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

func (f *fakeStore) SeatByOccupant(ctx context.Context, accountID int64) (*models.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seatByOccupant(accountID), nil
}

func (f *fakeStore) AccountByID(ctx context.Context, accountID int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (f *fakeStore) SeatForUpdate(ctx context.Context, seatID string) (*models.Seat, error) {
	seat, ok := f.seats[seatID]
	if !ok {
		return nil, apperr.ErrSeatNotFound
	}
	copied := *seat
	return &copied, nil
}

func (f *fakeStore) SeatByOccupantForUpdate(ctx context.Context, accountID int64) (*models.Seat, error) {
	if seat := f.seatByOccupant(accountID); seat != nil {
		return seat, nil
	}
	return nil, nil
}

func (f *fakeStore) seatByOccupant(accountID int64) *models.Seat {
	for _, seat := range f.seats {
		if seat.OccupantID != nil && *seat.OccupantID == accountID &&
			(seat.Status == models.SeatReserved || seat.Status == models.SeatOccupied) {
			copied := *seat
			return &copied
		}
	}
	return nil
}

func (f *fakeStore) UpdateSeatState(ctx context.Context, seat *models.Seat) error {
	copied := *seat
	f.seats[seat.ID] = &copied
	return nil
}

func (f *fakeStore) AccountForUpdate(ctx context.Context, accountID int64) (*models.Account, error) {
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, apperr.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (f *fakeStore) UpdateBalance(ctx context.Context, accountID int64, balance int64) error {
	account, ok := f.accounts[accountID]
	if !ok {
		return apperr.ErrAccountNotFound
	}
	account.Balance = balance
	return nil
}

func (f *fakeStore) SetActivityStatus(ctx context.Context, accountID int64, status string) error {
	f.activity[accountID] = status
	return nil
}

func (f *fakeStore) InsertSession(ctx context.Context, rec *models.SessionRecord) error {
	rec.ID = int64(len(f.sessions) + 1)
	f.sessions = append(f.sessions, *rec)
	return nil
}

// fakePublisher records published events per subject.
type fakePublisher struct {
	mu       sync.Mutex
	events   map[string][]interface{}
	failWith error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(map[string][]interface{})}
}

func (p *fakePublisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.events[subject] = append(p.events[subject], data)
	return nil
}

func (p *fakePublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[subject])
}

func (p *fakePublisher) last(subject string) interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	published := p.events[subject]
	if len(published) == 0 {
		return nil
	}
	return published[len(published)-1]
}

// fakePresence records the last activity status per account.
type fakePresence struct {
	mu       sync.Mutex
	statuses map[int64]string
}

func newFakePresence() *fakePresence {
	return &fakePresence{statuses: make(map[int64]string)}
}

func (p *fakePresence) SetActivity(ctx context.Context, accountID int64, status string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[accountID] = status
	return nil
}

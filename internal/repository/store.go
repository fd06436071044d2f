package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lanhall/internal/database"
	apperr "lanhall/internal/errors"
	"lanhall/internal/models"

	"github.com/lib/pq"
)

// Store exposes the transactional surface the seat registry and billing
// engine run on. Every mutating operation that touches both a seat and
// an account balance goes through InTx so either both changes apply or
// neither does; row locks inside the transaction serialize concurrent
// attempts on the same seat.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// StoreTx is the set of row-locking operations available inside one
// transaction. It is an interface so service tests can substitute an
// in-memory implementation.
type StoreTx interface {
	SeatForUpdate(ctx context.Context, seatID string) (*models.Seat, error)
	SeatByOccupantForUpdate(ctx context.Context, accountID int64) (*models.Seat, error)
	UpdateSeatState(ctx context.Context, seat *models.Seat) error
	AccountForUpdate(ctx context.Context, accountID int64) (*models.Account, error)
	UpdateBalance(ctx context.Context, accountID int64, balance int64) error
	SetActivityStatus(ctx context.Context, accountID int64, status string) error
	InsertSession(ctx context.Context, rec *models.SessionRecord) error
}

// InTx runs fn inside a single database transaction. Concurrent
// reserve/enter calls on the same seat serialize on the SELECT ... FOR
// UPDATE row lock taken by SeatForUpdate.
func (s *Store) InTx(ctx context.Context, fn func(tx StoreTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

// SeatByOccupant returns the seat currently reserved or occupied by the
// account, without locking. Used by the read-only preview path.
func (s *Store) SeatByOccupant(ctx context.Context, accountID int64) (*models.Seat, error) {
	return scanSeat(s.db.QueryRowContext(ctx, seatByOccupantQuery, accountID))
}

// AccountByID returns the account without locking, or ErrAccountNotFound.
func (s *Store) AccountByID(ctx context.Context, accountID int64) (*models.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, accountByIDQuery+` WHERE account_id = $1`, accountID))
}

// Tx bundles the row-locking operations available inside one transaction.
type Tx struct {
	tx *sql.Tx
}

const seatColumns = `id, name, grid_x, grid_y, status, occupant_id, session_start, created_at, updated_at`

const seatByOccupantQuery = `
	SELECT id, name, grid_x, grid_y, status, occupant_id, session_start, created_at, updated_at
	FROM seats
	WHERE occupant_id = $1 AND status IN ('RESERVED', 'OCCUPIED')`

const accountByIDQuery = `
	SELECT account_id, email, password_hash, display_name, role, balance, activity_status, is_active, registered_at
	FROM accounts`

// SeatForUpdate locks the seat row for the rest of the transaction.
func (t *Tx) SeatForUpdate(ctx context.Context, seatID string) (*models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1 FOR UPDATE`
	seat, err := scanSeat(t.tx.QueryRowContext(ctx, query, seatID))
	if err != nil {
		return nil, err
	}
	if seat == nil {
		return nil, apperr.ErrSeatNotFound
	}
	return seat, nil
}

// SeatByOccupantForUpdate locks and returns the seat the account holds
// (RESERVED or OCCUPIED), or nil when the account holds none.
func (t *Tx) SeatByOccupantForUpdate(ctx context.Context, accountID int64) (*models.Seat, error) {
	return scanSeat(t.tx.QueryRowContext(ctx, seatByOccupantQuery+` FOR UPDATE`, accountID))
}

// UpdateSeatState persists the mutable seat fields.
func (t *Tx) UpdateSeatState(ctx context.Context, seat *models.Seat) error {
	query := `
		UPDATE seats
		SET status = $1, occupant_id = $2, session_start = $3, updated_at = NOW()
		WHERE id = $4`
	_, err := t.tx.ExecContext(ctx, query, seat.Status, seat.OccupantID, seat.SessionStart, seat.ID)
	if err != nil {
		return fmt.Errorf("update seat %s: %w", seat.ID, err)
	}
	return nil
}

// AccountForUpdate locks the account row for the rest of the transaction.
func (t *Tx) AccountForUpdate(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := scanAccount(t.tx.QueryRowContext(ctx,
		accountByIDQuery+` WHERE account_id = $1 FOR UPDATE`, accountID))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.ErrAccountNotFound
	}
	return account, nil
}

// UpdateBalance writes the new balance for a previously locked account.
func (t *Tx) UpdateBalance(ctx context.Context, accountID int64, balance int64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1 WHERE account_id = $2`, balance, accountID)
	if err != nil {
		return fmt.Errorf("update balance for account %d: %w", accountID, err)
	}
	return nil
}

// SetActivityStatus writes the account's activity status.
func (t *Tx) SetActivityStatus(ctx context.Context, accountID int64, status string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE accounts SET activity_status = $1 WHERE account_id = $2`, status, accountID)
	if err != nil {
		return fmt.Errorf("set activity status for account %d: %w", accountID, err)
	}
	return nil
}

// InsertSession writes the settlement audit row for an ended session.
func (t *Tx) InsertSession(ctx context.Context, rec *models.SessionRecord) error {
	query := `
		INSERT INTO sessions (seat_id, seat_name, account_id, started_at, ended_at, elapsed_minutes, cost, ended_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := t.tx.QueryRowContext(ctx, query,
		rec.SeatID, rec.SeatName, rec.AccountID, rec.StartedAt, rec.EndedAt,
		rec.ElapsedMinutes, rec.Cost, rec.EndedBy,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert session record: %w", err)
	}
	return nil
}

func scanSeat(row *sql.Row) (*models.Seat, error) {
	seat := &models.Seat{}
	err := row.Scan(
		&seat.ID,
		&seat.Name,
		&seat.GridX,
		&seat.GridY,
		&seat.Status,
		&seat.OccupantID,
		&seat.SessionStart,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return seat, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.AccountID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&account.Role,
		&account.Balance,
		&account.ActivityStatus,
		&account.IsActive,
		&account.RegisteredAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, used to surface the one-seat-per-account index as a domain error.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

package repository

import (
	"context"
	"fmt"
	"time"

	"lanhall/internal/database"
	apperr "lanhall/internal/errors"
	"lanhall/internal/models"
)

type SeatRepository struct {
	db *database.DB
}

func NewSeatRepository(db *database.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

func (r *SeatRepository) Create(ctx context.Context, seat *models.Seat) error {
	query := `
		INSERT INTO seats (name, grid_x, grid_y, status)
		VALUES ($1, $2, $3, 'FREE')
		RETURNING id, status, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, seat.Name, seat.GridX, seat.GridY).
		Scan(&seat.ID, &seat.Status, &seat.CreatedAt, &seat.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("seat name %q: %w", seat.Name, apperr.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *SeatRepository) GetByID(ctx context.Context, id string) (*models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`
	return scanSeat(r.db.QueryRowContext(ctx, query, id))
}

func (r *SeatRepository) List(ctx context.Context) ([]models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats ORDER BY grid_y, grid_x, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		err := rows.Scan(
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
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}

// Delete removes a station. Deleting a seat with an active session is
// refused with ErrSeatBusy.
func (r *SeatRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM seats WHERE id = $1 AND status <> 'OCCUPIED'`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	seat, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if seat == nil {
		return apperr.ErrSeatNotFound
	}
	return apperr.ErrSeatBusy
}

// ListExpiredReservations returns seats still RESERVED whose reservation
// clock started before the cutoff.
func (r *SeatRepository) ListExpiredReservations(ctx context.Context, cutoff time.Time) ([]models.Seat, error) {
	query := `SELECT ` + seatColumns + `
		FROM seats
		WHERE status = 'RESERVED' AND session_start < $1
		ORDER BY session_start`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		err := rows.Scan(
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
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}

// ReclaimExpired returns an expired reservation's seat to FREE without a
// refund. The RESERVED filter is re-checked under the row lock so a
// reservation claimed between the sweep's scan and this call is left
// alone; in that case it returns nil.
func (r *SeatRepository) ReclaimExpired(ctx context.Context, seatID string, cutoff time.Time) (*models.Seat, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	seat, err := scanSeat(tx.QueryRowContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE id = $1 FOR UPDATE`, seatID))
	if err != nil {
		return nil, err
	}
	if seat == nil || seat.Status != models.SeatReserved ||
		seat.SessionStart == nil || !seat.SessionStart.Before(cutoff) {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE seats
		SET status = 'FREE', occupant_id = NULL, session_start = NULL, updated_at = NOW()
		WHERE id = $1`, seatID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return seat, nil
}

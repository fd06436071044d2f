package service

import (
	"context"
	"fmt"
	"time"

	"lanhall/internal/billing"
	apperr "lanhall/internal/errors"
	"lanhall/internal/logger"
	"lanhall/internal/metrics"
	"lanhall/internal/models"
	"lanhall/internal/repository"
)

// Store is the transactional surface the registry runs on, satisfied by
// *repository.Store in production and by an in-memory fake in tests.
type Store interface {
	InTx(ctx context.Context, fn func(tx repository.StoreTx) error) error
	SeatByOccupant(ctx context.Context, accountID int64) (*models.Seat, error)
	AccountByID(ctx context.Context, accountID int64) (*models.Account, error)
}

// SeatCatalog covers the non-transactional seat administration used by
// the registry, satisfied by *repository.SeatRepository.
type SeatCatalog interface {
	Create(ctx context.Context, seat *models.Seat) error
	GetByID(ctx context.Context, id string) (*models.Seat, error)
	List(ctx context.Context) ([]models.Seat, error)
	Delete(ctx context.Context, id string) error
}

// Publisher emits domain events. Publish failures are logged and never
// fail the originating operation.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// Presence mirrors activity-status changes into the shared presence
// registry so every API instance agrees on who is ONLINE/PLAYING.
type Presence interface {
	SetActivity(ctx context.Context, accountID int64, status string) error
}

// RegistryService enforces the seat state machine and the
// one-seat-per-account constraint.
type RegistryService struct {
	store    Store
	seats    SeatCatalog
	events   Publisher
	presence Presence
	tariff   billing.Tariff
	now      billing.Clock
}

func NewRegistryService(store Store, seats SeatCatalog, events Publisher, presence Presence, tariff billing.Tariff, now billing.Clock) *RegistryService {
	if now == nil {
		now = time.Now
	}
	return &RegistryService{
		store:    store,
		seats:    seats,
		events:   events,
		presence: presence,
		tariff:   tariff,
		now:      now,
	}
}

// Reserve transitions a FREE seat to RESERVED, debiting the deposit from
// the account in the same transaction.
func (s *RegistryService) Reserve(ctx context.Context, seatID string, accountID int64) (*models.ReserveSeatResponse, error) {
	now := s.now()
	var (
		seat       *models.Seat
		newBalance int64
	)

	err := s.store.InTx(ctx, func(tx repository.StoreTx) error {
		var err error
		seat, err = tx.SeatForUpdate(ctx, seatID)
		if err != nil {
			return err
		}
		if seat.Status != models.SeatFree {
			return fmt.Errorf("seat %s is %s: %w", seat.Name, seat.Status, apperr.ErrSeatUnavailable)
		}

		if other, err := tx.SeatByOccupantForUpdate(ctx, accountID); err != nil {
			return err
		} else if other != nil {
			return &apperr.AlreadySeatedError{SeatID: other.ID, SeatName: other.Name}
		}

		account, err := tx.AccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Balance < s.tariff.Deposit {
			return fmt.Errorf("balance %d below deposit %d: %w",
				account.Balance, s.tariff.Deposit, apperr.ErrInsufficientBalance)
		}

		newBalance = account.Balance - s.tariff.Deposit
		if err := tx.UpdateBalance(ctx, accountID, newBalance); err != nil {
			return err
		}

		seat.Status = models.SeatReserved
		seat.OccupantID = &accountID
		seat.SessionStart = &now
		return tx.UpdateSeatState(ctx, seat)
	})
	if err != nil {
		return nil, err
	}

	metrics.ReservationsTotal.Inc()
	s.publish(ctx, models.EventSeatReserved, models.SeatReservedEvent{
		SeatID:    seat.ID,
		SeatName:  seat.Name,
		AccountID: accountID,
		Deposit:   s.tariff.Deposit,
		Timestamp: now,
	})

	return &models.ReserveSeatResponse{Seat: seat, NewBalance: newBalance}, nil
}

// Enter transitions a FREE or RESERVED seat to OCCUPIED and starts the
// billing clock. Claiming one's own reservation refunds the deposit;
// claiming someone else's fails with ErrReservationMismatch.
func (s *RegistryService) Enter(ctx context.Context, seatID string, accountID int64) (*models.EnterSeatResponse, error) {
	now := s.now()
	var (
		seat       *models.Seat
		newBalance int64
		refunded   int64
	)

	err := s.store.InTx(ctx, func(tx repository.StoreTx) error {
		var err error
		seat, err = tx.SeatForUpdate(ctx, seatID)
		if err != nil {
			return err
		}
		if !seat.Occupiable() {
			return fmt.Errorf("seat %s is %s: %w", seat.Name, seat.Status, apperr.ErrSeatUnavailable)
		}
		if seat.Status == models.SeatReserved && (seat.OccupantID == nil || *seat.OccupantID != accountID) {
			return fmt.Errorf("seat %s: %w", seat.Name, apperr.ErrReservationMismatch)
		}

		if other, err := tx.SeatByOccupantForUpdate(ctx, accountID); err != nil {
			return err
		} else if other != nil && other.ID != seat.ID {
			return &apperr.AlreadySeatedError{SeatID: other.ID, SeatName: other.Name}
		}

		account, err := tx.AccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		newBalance = account.Balance
		if seat.Status == models.SeatReserved {
			// The deposit was taken at reservation time; the hourly
			// clock takes over from here.
			refunded = s.tariff.Deposit
			newBalance = account.Balance + refunded
			if err := tx.UpdateBalance(ctx, accountID, newBalance); err != nil {
				return err
			}
		}

		seat.Status = models.SeatOccupied
		seat.OccupantID = &accountID
		seat.SessionStart = &now
		if err := tx.UpdateSeatState(ctx, seat); err != nil {
			return err
		}

		return tx.SetActivityStatus(ctx, accountID, models.ActivityPlaying)
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsStartedTotal.Inc()
	s.setPresence(ctx, accountID, models.ActivityPlaying)
	s.publish(ctx, models.EventSeatEntered, models.SeatEnteredEvent{
		SeatID:       seat.ID,
		SeatName:     seat.Name,
		AccountID:    accountID,
		Refunded:     refunded,
		SessionStart: now,
		Timestamp:    now,
	})

	return &models.EnterSeatResponse{
		Seat:           seat,
		NewBalance:     newBalance,
		ActivityStatus: models.ActivityPlaying,
	}, nil
}

// ForceLogout clears an occupied seat without billing. Operator override
// for abuse or disconnect handling; the evicted account goes OFFLINE.
func (s *RegistryService) ForceLogout(ctx context.Context, seatID string) (*models.Seat, error) {
	now := s.now()
	var (
		seat    *models.Seat
		evicted int64
	)

	err := s.store.InTx(ctx, func(tx repository.StoreTx) error {
		var err error
		seat, err = tx.SeatForUpdate(ctx, seatID)
		if err != nil {
			return err
		}
		if seat.Status != models.SeatOccupied || seat.OccupantID == nil {
			return fmt.Errorf("seat %s is %s: %w", seat.Name, seat.Status, apperr.ErrNotPlaying)
		}
		evicted = *seat.OccupantID

		seat.Status = models.SeatFree
		seat.OccupantID = nil
		seat.SessionStart = nil
		if err := tx.UpdateSeatState(ctx, seat); err != nil {
			return err
		}

		return tx.SetActivityStatus(ctx, evicted, models.ActivityOffline)
	})
	if err != nil {
		return nil, err
	}

	s.setPresence(ctx, evicted, models.ActivityOffline)
	s.publish(ctx, models.EventSeatForceLogout, models.SeatForceLogoutEvent{
		SeatID:    seat.ID,
		SeatName:  seat.Name,
		AccountID: evicted,
		Timestamp: now,
	})

	return seat, nil
}

// RefundBooking is the operator path out of RESERVED: the deposit goes
// back to the reserving account and the seat enters MAINTENANCE.
func (s *RegistryService) RefundBooking(ctx context.Context, seatID string) error {
	now := s.now()
	var (
		seat      *models.Seat
		accountID int64
	)

	err := s.store.InTx(ctx, func(tx repository.StoreTx) error {
		var err error
		seat, err = tx.SeatForUpdate(ctx, seatID)
		if err != nil {
			return err
		}
		if seat.Status != models.SeatReserved || seat.OccupantID == nil {
			return fmt.Errorf("seat %s is %s: %w", seat.Name, seat.Status, apperr.ErrSeatUnavailable)
		}
		accountID = *seat.OccupantID

		account, err := tx.AccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, accountID, account.Balance+s.tariff.Deposit); err != nil {
			return err
		}

		seat.Status = models.SeatMaintenance
		seat.OccupantID = nil
		seat.SessionStart = nil
		return tx.UpdateSeatState(ctx, seat)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, models.EventBookingRefunded, models.BookingRefundedEvent{
		SeatID:    seat.ID,
		SeatName:  seat.Name,
		AccountID: accountID,
		Refunded:  s.tariff.Deposit,
		Timestamp: now,
	})

	return nil
}

// SetStatus is the operator override between the unoccupied states
// (FREE, MAINTENANCE, LOCKED). Occupant state is cleared on the way out
// of RESERVED; an OCCUPIED seat must be force-logged-out first.
func (s *RegistryService) SetStatus(ctx context.Context, seatID, status string) (*models.Seat, error) {
	switch status {
	case models.SeatFree, models.SeatMaintenance, models.SeatLocked:
	default:
		return nil, fmt.Errorf("status %q is not an operator override target: %w",
			status, apperr.ErrSeatUnavailable)
	}

	var seat *models.Seat
	err := s.store.InTx(ctx, func(tx repository.StoreTx) error {
		var err error
		seat, err = tx.SeatForUpdate(ctx, seatID)
		if err != nil {
			return err
		}
		if seat.Status == models.SeatOccupied {
			return fmt.Errorf("seat %s: %w", seat.Name, apperr.ErrSeatBusy)
		}

		seat.Status = status
		seat.OccupantID = nil
		seat.SessionStart = nil
		return tx.UpdateSeatState(ctx, seat)
	})
	if err != nil {
		return nil, err
	}

	return seat, nil
}

// CreateSeat adds a station to the floor.
func (s *RegistryService) CreateSeat(ctx context.Context, req *models.CreateSeatRequest) (*models.Seat, error) {
	seat := &models.Seat{
		Name:  req.Name,
		GridX: req.GridX,
		GridY: req.GridY,
	}
	if err := s.seats.Create(ctx, seat); err != nil {
		return nil, fmt.Errorf("failed to create seat: %w", err)
	}
	return seat, nil
}

// DeleteSeat removes a station; occupied stations are refused.
func (s *RegistryService) DeleteSeat(ctx context.Context, seatID string) error {
	return s.seats.Delete(ctx, seatID)
}

// ListSeats returns the seat map for the floor view.
func (s *RegistryService) ListSeats(ctx context.Context) (models.ListSeatsResponse, error) {
	seats, err := s.seats.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}

	result := make(models.ListSeatsResponse, len(seats))
	for i, seat := range seats {
		item := models.ListSeatsResponseItem{
			ID:         seat.ID,
			Name:       seat.Name,
			GridX:      seat.GridX,
			GridY:      seat.GridY,
			Status:     seat.Status,
			OccupantID: seat.OccupantID,
		}
		if seat.SessionStart != nil {
			item.SessionStart = seat.SessionStart.UTC().Format(time.RFC3339)
		}
		result[i] = item
	}
	return result, nil
}

func (s *RegistryService) publish(ctx context.Context, subject string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}

func (s *RegistryService) setPresence(ctx context.Context, accountID int64, status string) {
	if s.presence == nil {
		return
	}
	if err := s.presence.SetActivity(ctx, accountID, status); err != nil {
		logger.WithContext(ctx).Error("Failed to update presence registry",
			"error", err,
			"account_id", accountID,
			"status", status)
	}
}

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

// Archive is the settled-session search backend, satisfied by
// *search.Client. Nil when Elasticsearch is not configured.
type Archive interface {
	SearchSessions(ctx context.Context, accountID *int64, seatName string, page, pageSize int) (models.SessionSearchResponse, error)
}

// SessionService settles occupied sessions and serves the live
// remaining-time preview.
type SessionService struct {
	store    Store
	events   Publisher
	presence Presence
	archive  Archive
	tariff   billing.Tariff
	now      billing.Clock
}

func NewSessionService(store Store, events Publisher, presence Presence, archive Archive, tariff billing.Tariff, now billing.Clock) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		store:    store,
		events:   events,
		presence: presence,
		archive:  archive,
		tariff:   tariff,
		now:      now,
	}
}

// End settles the account's occupied session: elapsed time is converted
// to cost, the balance is debited (floored at zero), the settlement row
// is written and the seat returns to FREE, all in one transaction.
// endedBy records whether the member or an operator triggered it.
func (s *SessionService) End(ctx context.Context, accountID int64, endedBy string) (*models.EndSessionResponse, error) {
	now := s.now()
	var (
		seat       *models.Seat
		rec        models.SessionRecord
		newBalance int64
	)

	err := s.store.InTx(ctx, func(tx repository.StoreTx) error {
		var err error
		seat, err = tx.SeatByOccupantForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if seat == nil || seat.Status != models.SeatOccupied || seat.SessionStart == nil {
			return apperr.ErrNotPlaying
		}

		account, err := tx.AccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		var cost int64
		cost, newBalance = s.tariff.Settle(account.Balance, *seat.SessionStart, now)
		rec = models.SessionRecord{
			SeatID:         seat.ID,
			SeatName:       seat.Name,
			AccountID:      accountID,
			StartedAt:      *seat.SessionStart,
			EndedAt:        now,
			ElapsedMinutes: billing.ElapsedMinutes(*seat.SessionStart, now),
			Cost:           cost,
			EndedBy:        endedBy,
		}

		if err := tx.UpdateBalance(ctx, accountID, newBalance); err != nil {
			return err
		}
		if err := tx.InsertSession(ctx, &rec); err != nil {
			return err
		}

		seat.Status = models.SeatFree
		seat.OccupantID = nil
		seat.SessionStart = nil
		if err := tx.UpdateSeatState(ctx, seat); err != nil {
			return err
		}

		return tx.SetActivityStatus(ctx, accountID, models.ActivityOnline)
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsSettledTotal.Inc()
	metrics.RevenueTotal.Add(float64(rec.Cost))
	s.setPresence(ctx, accountID, models.ActivityOnline)
	s.publish(ctx, models.EventSessionEnded, models.SessionEndedEvent{
		SeatID:         rec.SeatID,
		SeatName:       rec.SeatName,
		AccountID:      accountID,
		StartedAt:      rec.StartedAt,
		EndedAt:        rec.EndedAt,
		ElapsedMinutes: rec.ElapsedMinutes,
		Cost:           rec.Cost,
		NewBalance:     newBalance,
		EndedBy:        endedBy,
		Timestamp:      now,
	})

	return &models.EndSessionResponse{
		Cost:           rec.Cost,
		ElapsedMinutes: rec.ElapsedMinutes,
		NewBalance:     newBalance,
	}, nil
}

// PreviewRemaining is the read-only countdown for the polling client.
// No locks, no side effects.
func (s *SessionService) PreviewRemaining(ctx context.Context, accountID int64) (*models.RemainingResponse, error) {
	account, err := s.store.AccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperr.ErrAccountNotFound
	}

	seat, err := s.store.SeatByOccupant(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if seat == nil || seat.Status != models.SeatOccupied || seat.SessionStart == nil {
		return nil, apperr.ErrNotPlaying
	}

	effective, remainingMs := s.tariff.PreviewRemaining(account.Balance, *seat.SessionStart, s.now())
	return &models.RemainingResponse{
		EffectiveBalance: effective,
		RemainingMs:      remainingMs,
	}, nil
}

// SearchArchive runs the operator session-history search against
// Elasticsearch.
func (s *SessionService) SearchArchive(ctx context.Context, accountID *int64, seatName string, page, pageSize int) (models.SessionSearchResponse, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("session archive is not configured")
	}
	return s.archive.SearchSessions(ctx, accountID, seatName, page, pageSize)
}

func (s *SessionService) publish(ctx context.Context, subject string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}

func (s *SessionService) setPresence(ctx context.Context, accountID int64, status string) {
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

package jobs

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"lanhall/internal/billing"
	"lanhall/internal/config"
	"lanhall/internal/metrics"
	"lanhall/internal/models"
)

// SweepStore is the storage surface the sweeper needs, satisfied by
// *repository.SeatRepository.
type SweepStore interface {
	ListExpiredReservations(ctx context.Context, cutoff time.Time) ([]models.Seat, error)
	ReclaimExpired(ctx context.Context, seatID string, cutoff time.Time) (*models.Seat, error)
}

// Publisher emits reservation.expired events; failures are logged only.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// Sweeper reclaims seats whose reservation outlived the booking timeout
// without being claimed. No refund is issued: a late claim forfeits the
// deposit. Each tick is idempotent: the RESERVED filter is re-checked
// under a row lock, so a seat claimed mid-sweep is left alone.
type Sweeper struct {
	store  SweepStore
	events Publisher
	cfg    config.SweeperConfig
	now    billing.Clock
	done   chan struct{}
}

func NewSweeper(store SweepStore, events Publisher, cfg config.SweeperConfig, now billing.Clock) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		store:  store,
		events: events,
		cfg:    cfg,
		now:    now,
		done:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled.
// Ticks are spaced by the configured interval plus jitter; a failed scan
// pushes the next tick out by the error backoff instead of hammering a
// struggling database.
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("Starting reservation expiry sweeper",
		"interval", s.cfg.Interval,
		"booking_timeout", s.cfg.BookingTimeout)

	go func() {
		timer := time.NewTimer(s.nextDelay(false))
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				failed := s.sweepOnce(ctx) != nil
				timer.Reset(s.nextDelay(failed))
			case <-ctx.Done():
				slog.Info("Reservation expiry sweeper stopped", "reason", ctx.Err())
				return
			case <-s.done:
				slog.Info("Reservation expiry sweeper stopped")
				return
			}
		}
	}()
}

// Stop terminates the sweep loop.
func (s *Sweeper) Stop() {
	close(s.done)
}

// nextDelay returns the interval with jitter, stretched by the error
// backoff after a failed scan.
func (s *Sweeper) nextDelay(afterError bool) time.Duration {
	delay := s.cfg.Interval
	if s.cfg.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(s.cfg.Jitter)))
	}
	if afterError {
		delay += s.cfg.ErrorBackoff
	}
	return delay
}

// sweepOnce scans for stale reservations and reclaims them one by one,
// continuing past per-seat failures.
func (s *Sweeper) sweepOnce(ctx context.Context) error {
	cutoff := s.now().Add(-s.cfg.BookingTimeout)

	expired, err := s.store.ListExpiredReservations(ctx, cutoff)
	if err != nil {
		metrics.SweepErrorsTotal.Inc()
		slog.Error("Failed to scan for expired reservations", "error", err)
		return err
	}

	if len(expired) == 0 {
		return nil
	}

	slog.Info("Found expired reservations to reclaim", "count", len(expired))

	for _, seat := range expired {
		reclaimed, err := s.store.ReclaimExpired(ctx, seat.ID, cutoff)
		if err != nil {
			metrics.SweepErrorsTotal.Inc()
			slog.Error("Failed to reclaim expired reservation",
				"error", err,
				"seat_id", seat.ID,
				"seat_name", seat.Name)
			continue
		}
		if reclaimed == nil {
			// Claimed or already reclaimed between scan and lock
			continue
		}

		metrics.ReservationsExpiredTotal.Inc()
		slog.Info("Reclaimed expired reservation",
			"seat_id", reclaimed.ID,
			"seat_name", reclaimed.Name,
			"reserved_at", reclaimed.SessionStart)

		if s.events != nil && reclaimed.OccupantID != nil {
			event := models.ReservationExpiredEvent{
				SeatID:    reclaimed.ID,
				SeatName:  reclaimed.Name,
				AccountID: *reclaimed.OccupantID,
				Reason:    "booking timeout exceeded",
				Timestamp: s.now(),
			}
			if err := s.events.Publish(models.EventReservationExpired, event); err != nil {
				slog.Error("Failed to publish reservation expired event",
					"error", err,
					"seat_id", reclaimed.ID)
			}
		}
	}

	return nil
}

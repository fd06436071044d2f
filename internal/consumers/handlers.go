package consumers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"lanhall/internal/models"
	"lanhall/internal/search"

	"github.com/nats-io/stan.go"
)

// Handlers processes domain events on the worker side.
type Handlers struct {
	archive *search.Client
}

func NewHandlers(archive *search.Client) *Handlers {
	return &Handlers{archive: archive}
}

// HandleSessionEnded archives a settled session into Elasticsearch.
// Indexing is idempotent (deterministic document ID), so redelivered
// messages are safe.
func (h *Handlers) HandleSessionEnded(msg *stan.Msg) {
	var event models.SessionEndedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		slog.Error("Failed to unmarshal session ended event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.archive.IndexSession(ctx, &event); err != nil {
		slog.Error("Failed to archive session",
			"error", err,
			"seat_id", event.SeatID,
			"account_id", event.AccountID)
		return
	}

	slog.Info("Archived settled session",
		"seat_name", event.SeatName,
		"account_id", event.AccountID,
		"cost", event.Cost,
		"index", h.archive.Index())
}

// HandleReservationExpired logs sweeper reclamations for the audit trail.
func (h *Handlers) HandleReservationExpired(msg *stan.Msg) {
	var event models.ReservationExpiredEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reservation expired event", "error", err)
		return
	}

	slog.Info("Reservation expired",
		"seat_name", event.SeatName,
		"account_id", event.AccountID,
		"reason", event.Reason)
}

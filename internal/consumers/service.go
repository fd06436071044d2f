package consumers

import (
	"log/slog"

	"lanhall/internal/messaging"
	"lanhall/internal/models"
	"lanhall/internal/search"

	"github.com/nats-io/stan.go"
)

const archiveQueue = "archive-workers"

// ConsumerService owns the worker-side NATS subscriptions.
type ConsumerService struct {
	nats     *messaging.NATSClient
	handlers *Handlers
	subs     []stan.Subscription
}

func NewConsumerService(nats *messaging.NATSClient, archive *search.Client) *ConsumerService {
	return &ConsumerService{
		nats:     nats,
		handlers: NewHandlers(archive),
	}
}

// Start subscribes to every subject the worker handles. Session archival
// uses a queue group so multiple workers share the load.
func (cs *ConsumerService) Start() error {
	sub, err := cs.nats.SubscribeQueue(models.EventSessionEnded, archiveQueue, cs.handlers.HandleSessionEnded)
	if err != nil {
		return err
	}
	cs.subs = append(cs.subs, sub)

	sub, err = cs.nats.Subscribe(models.EventReservationExpired, cs.handlers.HandleReservationExpired)
	if err != nil {
		return err
	}
	cs.subs = append(cs.subs, sub)

	slog.Info("Consumer service started", "subscriptions", len(cs.subs))
	return nil
}

// Shutdown closes subscriptions without deleting durable state.
func (cs *ConsumerService) Shutdown() {
	for _, sub := range cs.subs {
		if err := sub.Close(); err != nil {
			slog.Warn("Failed to close subscription", "error", err)
		}
	}
	slog.Info("Consumer service stopped")
}

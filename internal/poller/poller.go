// Package poller consumes trip-completed events and drops the finished
// trip's persisted cart and checklist, so the next session starts fresh.
// The producing side (checkout, billing) lives outside this process.
package poller

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/cart"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/progress"
)

// messageReader is the subset of kafka.Reader the poller uses; tests swap in
// a fake.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type tripCompleted struct {
	UserID string `json:"user_id"`
	ListID string `json:"list_id"`
}

type Poller struct {
	reader  messageReader
	carts   *cart.Engine
	tracker *progress.Tracker
	logger  *slog.Logger
}

func NewPoller(carts *cart.Engine, tracker *progress.Tracker, logger *slog.Logger, topic string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "lista-compra-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{reader: reader, carts: carts, tracker: tracker, logger: logger}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.consumeOne(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("error closing reader", "error", err)
	}
}

func (p *Poller) consumeOne(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("error reading message", "error", err)
		}
		return
	}

	var event tripCompleted
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.logger.Warn("error parsing message", "error", err)
		return
	}
	if event.UserID == "" {
		p.logger.Warn("missing user_id in trip-completed event")
		return
	}

	p.carts.ClearFor(event.UserID)
	if event.ListID != "" {
		p.tracker.ClearFor(event.ListID)
	}
	p.logger.Info("trip completed, cleared persisted state", "user_id", event.UserID, "list_id", event.ListID)
}

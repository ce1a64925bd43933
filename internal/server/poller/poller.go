// Package poller drains checkout events and empties the corresponding
// carts, so a completed order never leaves stale lines behind.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/solekta/cartsync/internal/server/cache"
	"github.com/solekta/cartsync/internal/server/repository"
)

const (
	topic   = "checkout-completed"
	groupID = "cartsync-cartd"
)

type Poller struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	reader *kafka.Reader
	log    *zap.Logger
}

func New(repo repository.CartRepository, cache cache.CartCache, log *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{repo: repo, cache: cache, reader: reader, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			// io.EOF means the reader was closed.
			if errors.Is(err, io.EOF) {
				return
			}
			if ctx.Err() == nil {
				p.log.Warn("failed to read checkout event", zap.Error(err))
			}
			continue
		}
		p.handle(ctx, m.Value)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("failed to close kafka reader", zap.Error(err))
	}
}

// handle empties one customer's cart for a checkout event. Malformed events
// are logged and dropped.
func (p *Poller) handle(ctx context.Context, payload []byte) {
	var event struct {
		CustomerID string `json:"customer_id"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		p.log.Warn("malformed checkout event", zap.Error(err))
		return
	}
	if event.CustomerID == "" {
		p.log.Warn("checkout event without customer id")
		return
	}

	if err := p.repo.DeleteCart(ctx, event.CustomerID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		p.log.Warn("failed to delete cart after checkout",
			zap.String("customer_id", event.CustomerID), zap.Error(err))
	}

	if err := p.cache.Delete(ctx, event.CustomerID); err != nil {
		p.log.Warn("failed to invalidate cache after checkout",
			zap.String("customer_id", event.CustomerID), zap.Error(err))
	}
}

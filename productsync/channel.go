package productsync

import (
	"context"
	"fmt"

	"github.com/herecomesthebride/boutique-api/models"
	"github.com/herecomesthebride/boutique-api/services"
	"github.com/herecomesthebride/boutique-api/store"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ProductSource reads the full product collection
type ProductSource interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
}

// LiveChannel pushes the full collection whenever it changes.
//
// Open delivers an initial snapshot, then one per change, until the returned
// close function is called or ctx ends. A failure after Open returns is
// reported once through onError and ends the channel. Callbacks run on the
// channel's own goroutine and are never invoked after close returns.
type LiveChannel interface {
	Open(ctx context.Context, onSnapshot func([]models.Product), onError func(error)) (close func(), err error)
}

// PgChannel listens for NOTIFY on a Postgres channel and re-reads the
// collection on every notification
type PgChannel struct {
	connString string
	channel    string
	source     ProductSource
}

// NewPgChannel creates a live channel over a dedicated connection to connString
func NewPgChannel(connString, channel string, source ProductSource) *PgChannel {
	return &PgChannel{connString: connString, channel: channel, source: source}
}

func (c *PgChannel) Open(ctx context.Context, onSnapshot func([]models.Product), onError func(error)) (func(), error) {
	conn, err := pgx.Connect(ctx, c.connString)
	if err != nil {
		return nil, services.ClassifyStoreError(fmt.Errorf("failed to connect live channel: %w", err))
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{c.channel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, services.ClassifyStoreError(fmt.Errorf("failed to listen on %s: %w", c.channel, err))
	}

	listenCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if err := conn.Close(context.Background()); err != nil {
				zap.L().Debug("Live channel close failed", zap.Error(err))
			}
		}()

		for {
			products, err := c.source.GetProducts(listenCtx)
			if err != nil {
				if listenCtx.Err() == nil {
					onError(err)
				}
				return
			}
			onSnapshot(products)

			if _, err := conn.WaitForNotification(listenCtx); err != nil {
				if listenCtx.Err() == nil {
					onError(services.ClassifyStoreError(err))
				}
				return
			}
		}
	}()

	zap.L().Info("Live channel opened", zap.String("channel", c.channel))
	return func() {
		cancel()
		<-done
	}, nil
}

// HubChannel follows product writes made through this process's hub
type HubChannel struct {
	hub    *store.Hub
	topic  string
	source ProductSource
}

// NewHubChannel creates a live channel on the hub's product topic
func NewHubChannel(hub *store.Hub, source ProductSource) *HubChannel {
	return &HubChannel{hub: hub, topic: services.ProductsTopic, source: source}
}

func (c *HubChannel) Open(ctx context.Context, onSnapshot func([]models.Product), onError func(error)) (func(), error) {
	listenCtx, cancel := context.WithCancel(ctx)
	changed := make(chan struct{}, 1)
	unsubscribe := c.hub.Subscribe(c.topic, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			products, err := c.source.GetProducts(listenCtx)
			if err != nil {
				if listenCtx.Err() == nil {
					onError(err)
				}
				return
			}
			onSnapshot(products)

			select {
			case <-changed:
			case <-listenCtx.Done():
				return
			}
		}
	}()

	return func() {
		unsubscribe()
		cancel()
		<-done
	}, nil
}

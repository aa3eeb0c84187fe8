package controllers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/herecomesthebride/boutique-api/config"
	"github.com/herecomesthebride/boutique-api/models"
	"github.com/herecomesthebride/boutique-api/productsync"
	"github.com/herecomesthebride/boutique-api/services"
	"go.uber.org/zap"
)

// productFeed holds the newest snapshot and mode not yet written to the
// stream. Older values are overwritten, so a slow client only misses
// intermediate states.
type productFeed struct {
	mu       sync.Mutex
	products []models.Product
	fresh    bool
	mode     productsync.Mode
	wake     chan struct{}
}

func newProductFeed() *productFeed {
	return &productFeed{wake: make(chan struct{}, 1)}
}

func (f *productFeed) setProducts(products []models.Product) {
	f.mu.Lock()
	f.products = products
	f.fresh = true
	f.mu.Unlock()
	f.signal()
}

func (f *productFeed) setMode(mode productsync.Mode) {
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
	f.signal()
}

func (f *productFeed) signal() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

func (f *productFeed) take() (products []models.Product, fresh bool, mode productsync.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	products, fresh, mode = f.products, f.fresh, f.mode
	f.products, f.fresh, f.mode = nil, false, ""
	return products, fresh, mode
}

// streamCloser tells open event streams that the server is shutting down
type streamCloser struct {
	mu      sync.Mutex
	closing chan struct{}
}

var streams = &streamCloser{closing: make(chan struct{})}

func (s *streamCloser) current() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// CloseStreams ends every open event stream. Streams opened afterwards are
// not affected. Register it with http.Server.RegisterOnShutdown, since
// Shutdown waits for handlers instead of cancelling their requests.
func CloseStreams() {
	streams.mu.Lock()
	defer streams.mu.Unlock()
	close(streams.closing)
	streams.closing = make(chan struct{})
}

func startStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()
}

// StreamProducts handles GET /api/v1/admin/products/stream - pushes the
// product list ("products" events) and the sync mode ("mode" events)
func StreamProducts(c *gin.Context) {
	coordinator := productsync.GetCoordinator()
	if coordinator == nil {
		respondError(c, http.StatusServiceUnavailable, "SYNC_UNAVAILABLE", "Product sync is not running")
		return
	}

	closing := streams.current()
	feed := newProductFeed()
	cancel := coordinator.Subscribe(feed.setProducts, feed.setMode)
	defer cancel()

	startStream(c)
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-closing:
			return
		case <-feed.wake:
			products, fresh, mode := feed.take()
			if mode != "" {
				c.SSEvent("mode", gin.H{"mode": mode})
			}
			if fresh {
				c.SSEvent("products", toProductResponses(products))
			}
			c.Writer.Flush()
		}
	}
}

// StreamRequests handles GET /api/v1/admin/requests/stream - pushes both
// request collections ("requests" events) whenever either changes, and at
// least every REQUEST_POLL_INTERVAL
func StreamRequests(c *gin.Context) {
	dreamDress := services.GetDreamDressStore()
	appointments := services.GetAppointmentStore()
	ctx := c.Request.Context()
	closing := streams.current()

	changed := make(chan struct{}, 1)
	notify := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	stopDreamDress := dreamDress.Watch(ctx, func([]models.DreamDressRequest) { notify() })
	defer stopDreamDress()
	stopAppointments := appointments.Watch(ctx, func([]models.AppointmentRequest) { notify() })
	defer stopAppointments()

	interval := 5 * time.Second
	if cfg := config.GetConfig(); cfg != nil && cfg.RequestPollInterval > 0 {
		interval = cfg.RequestPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	startStream(c)
	for {
		dreamDressRequests, err := dreamDress.List(ctx)
		if err != nil {
			zap.L().Warn("Failed to load dream-dress requests for stream", zap.Error(err))
		}
		appointmentRequests, err := appointments.List(ctx)
		if err != nil {
			zap.L().Warn("Failed to load appointment requests for stream", zap.Error(err))
		}
		if dreamDressRequests != nil && appointmentRequests != nil {
			c.SSEvent("requests", gin.H{
				"dreamDressRequests":  dreamDressRequests,
				"appointmentRequests": appointmentRequests,
			})
			c.Writer.Flush()
		}

		select {
		case <-ctx.Done():
			return
		case <-closing:
			return
		case <-changed:
		case <-ticker.C:
		}
	}
}

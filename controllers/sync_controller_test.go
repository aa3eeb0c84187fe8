package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/herecomesthebride/boutique-api/config"
	"github.com/herecomesthebride/boutique-api/models"
	"github.com/herecomesthebride/boutique-api/productsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sseEvent struct {
	name string
	data string
}

// openStream connects to an SSE endpoint and returns its parsed events
func openStream(t *testing.T, handler gin.HandlerFunc) <-chan sseEvent {
	t.Helper()

	router := setupTestRouter()
	router.GET("/stream", handler)
	server := httptest.NewServer(router)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	t.Cleanup(func() {
		cancel()
		resp.Body.Close()
		server.Close()
	})

	events := make(chan sseEvent, 64)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		var current sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				current.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				current.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "" && current.name != "":
				events <- current
				current = sseEvent{}
			}
		}
	}()
	return events
}

// nextEvent waits for the next event named name, skipping others
func nextEvent(t *testing.T, events <-chan sseEvent, name string) sseEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed before %q event", name)
			if ev.name == name {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q event", name)
		}
	}
}

func TestStreamProducts(t *testing.T) {
	env := setupServices(t)
	coordinator := productsync.NewCoordinator(env.repo, productsync.NewHubChannel(env.hub, env.repo),
		productsync.WithLogger(zap.NewNop()))
	productsync.InitCoordinator(coordinator)
	defer productsync.InitCoordinator(nil)

	events := openStream(t, StreamProducts)

	mode := nextEvent(t, events, "mode")
	assert.JSONEq(t, `{"mode":"realtime"}`, mode.data)

	var products []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events, "products").data), &products))
	assert.Len(t, products, len(models.DefaultProducts()))

	_, err := env.repo.AddProduct(context.Background(), models.Product{
		ID: "hair-9", Name: "Pearl Comb", Category: models.CategoryHairPieces, Price: "$45",
	})
	require.NoError(t, err)

	// the seed write may produce an extra snapshot before the new one
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events, "products").data), &products))
		if len(products) == len(models.DefaultProducts())+1 {
			break
		}
	}
	assert.Len(t, products, len(models.DefaultProducts())+1)
}

func TestStreamProducts_WithoutCoordinator(t *testing.T) {
	productsync.InitCoordinator(nil)
	router := setupTestRouter()
	router.GET("/stream", StreamProducts)

	w := performJSON(router, http.MethodGet, "/stream", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SYNC_UNAVAILABLE", errorCode(decodeResponse(t, w)))
}

func TestStreamRequests(t *testing.T) {
	env := setupServices(t)
	config.SetConfig(&config.Config{RequestPollInterval: time.Hour})

	events := openStream(t, StreamRequests)

	var payload struct {
		DreamDressRequests  []models.DreamDressRequest  `json:"dreamDressRequests"`
		AppointmentRequests []models.AppointmentRequest `json:"appointmentRequests"`
	}
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events, "requests").data), &payload))
	assert.Empty(t, payload.DreamDressRequests)
	assert.Empty(t, payload.AppointmentRequests)

	_, err := env.dream.Submit(context.Background(), models.DreamDressRequest{
		Name: "Jane", Email: "jane@x.com", Phone: "555-0100", DreamDress: "ivory lace, off-shoulder",
	})
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events, "requests").data), &payload))
	require.Len(t, payload.DreamDressRequests, 1, "Change is pushed without waiting for the poll")
	assert.Equal(t, "Jane", payload.DreamDressRequests[0].Name)
}

func TestStreamRequests_SafetyNetPoll(t *testing.T) {
	setupServices(t)
	config.SetConfig(&config.Config{RequestPollInterval: 50 * time.Millisecond})

	events := openStream(t, StreamRequests)

	nextEvent(t, events, "requests")
	nextEvent(t, events, "requests")
}

func TestCloseStreams(t *testing.T) {
	env := setupServices(t)
	config.SetConfig(&config.Config{RequestPollInterval: time.Hour})
	productsync.InitCoordinator(productsync.NewCoordinator(env.repo, productsync.NewHubChannel(env.hub, env.repo),
		productsync.WithLogger(zap.NewNop())))
	defer productsync.InitCoordinator(nil)

	requestEvents := openStream(t, StreamRequests)
	productEvents := openStream(t, StreamProducts)
	nextEvent(t, requestEvents, "requests")
	nextEvent(t, productEvents, "products")

	CloseStreams()

	for name, events := range map[string]<-chan sseEvent{"requests": requestEvents, "products": productEvents} {
		assert.Eventually(t, func() bool {
			select {
			case _, ok := <-events:
				return !ok
			default:
				return false
			}
		}, 5*time.Second, 10*time.Millisecond, "%s stream should end", name)
	}

	// streams opened after the close are unaffected
	later := openStream(t, StreamRequests)
	nextEvent(t, later, "requests")
}

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/herecomesthebride/boutique-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer serves the full application on a local port
func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	router, _ := setupApp(t, mockAuthMiddleware("auth0|owner", "admin"))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// TestServerStartup is an acceptance test that verifies the server can start
func TestServerStartup(t *testing.T) {
	router, _ := setupApp(t, mockAuthMiddleware("auth0|owner", "admin"))
	assert.NotNil(t, router, "Router should be initialized")
}

// TestAPIHealthEndpointAcceptance sends a real HTTP request to the health endpoint
func TestAPIHealthEndpointAcceptance(t *testing.T) {
	server := startServer(t)

	resp, err := http.Get(server.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "Health endpoint should return 200 OK")

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response), "Response should be valid JSON")
	assert.True(t, response.Success, "Success field should be true")
	assert.Equal(t, "Bridal Boutique API is running", response.Message)
}

// TestHealthEndpointAvailability tests that the health endpoint is available immediately
func TestHealthEndpointAvailability(t *testing.T) {
	server := startServer(t)

	for i := 0; i < 5; i++ {
		resp, err := http.Get(server.URL + "/api/v1/health")
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode, fmt.Sprintf("Request %d should succeed", i+1))

		var response map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&response)
		resp.Body.Close()
		assert.Equal(t, true, response["success"], fmt.Sprintf("Request %d should have success=true", i+1))
	}
}

func TestCORSPreflight(t *testing.T) {
	server := startServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/v1/admin/products/dress-1", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

// TestAdminSeesProductChangesLive keeps the product stream open while the
// catalog is edited through the admin API
func TestAdminSeesProductChangesLive(t *testing.T) {
	server := startServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/admin/products/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snapshots := make(chan []models.Product, 16)
	modes := make(chan string, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		var event string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				switch event {
				case "products":
					var products []models.Product
					if json.Unmarshal([]byte(data), &products) == nil {
						snapshots <- products
					}
				case "mode":
					var payload struct {
						Mode string `json:"mode"`
					}
					if json.Unmarshal([]byte(data), &payload) == nil {
						modes <- payload.Mode
					}
				}
			}
		}
	}()

	select {
	case mode := <-modes:
		assert.Equal(t, "realtime", mode)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the mode event")
	}

	raw, _ := json.Marshal(map[string]interface{}{
		"id":       "hair-7",
		"name":     "Pearl Comb",
		"category": models.CategoryHairPieces,
		"price":    "$45",
	})
	created, err := http.Post(server.URL+"/api/v1/admin/products", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	created.Body.Close()
	require.Equal(t, http.StatusCreated, created.StatusCode)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case products := <-snapshots:
			for _, p := range products {
				if p.ID == "hair-7" {
					assert.Equal(t, "Pearl Comb", p.Name)
					return
				}
			}
		case <-deadline:
			t.Fatal("timed out waiting for a snapshot containing the new product")
		}
	}
}

// TestShutdownWithOpenProductStream stops the server while an admin keeps
// the product stream open
func TestShutdownWithOpenProductStream(t *testing.T) {
	router, _ := setupApp(t, mockAuthMiddleware("auth0|owner", "admin"))
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	served := make(chan error, 1)
	go func() {
		served <- serve(ctx, newServer(router), listener, 5*time.Second)
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/api/v1/admin/products/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") && strings.TrimSpace(strings.TrimPrefix(line, "event:")) == "products" {
			break
		}
	}

	stop()
	select {
	case err := <-served:
		assert.NoError(t, err, "shutdown should not wait out the deadline")
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop while a stream was open")
	}
}

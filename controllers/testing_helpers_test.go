package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/herecomesthebride/boutique-api/config"
	"github.com/herecomesthebride/boutique-api/middleware"
	"github.com/herecomesthebride/boutique-api/services"
	"github.com/herecomesthebride/boutique-api/store"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// mockAuthMiddleware mimics EnsureValidToken for a user holding roles
func mockAuthMiddleware(auth0ID string, roles []string, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("access_token", accessToken)

		// Store in context the same way the real middleware does
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
			CustomClaims:     &middleware.CustomClaims{Roles: roles},
		})

		c.Next()
	}
}

// adminChain is the middleware stack of the admin routes with an authenticated admin
func adminChain() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		mockAuthMiddleware("auth0|owner", []string{"admin"}, "owner-token"),
		middleware.RequireRole("admin"),
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// every pooled connection would get its own in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// testEnv wires the services the handlers look up
type testEnv struct {
	db    *gorm.DB
	hub   *store.Hub
	repo  *services.GormProductRepository
	dream *services.DreamDressStore
	appt  *services.AppointmentStore
	image *services.MockImageService
}

func setupServices(t *testing.T) *testEnv {
	db := setupTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{GoEnv: "test", AdminRole: "admin"})

	hub := store.NewHub()
	kv := store.NewGormStore(db, hub)
	env := &testEnv{
		db:    db,
		hub:   hub,
		repo:  services.NewGormProductRepository(db, hub),
		dream: services.NewDreamDressStore(kv),
		appt:  services.NewAppointmentStore(kv),
		image: services.NewMockImageService(),
	}
	services.InitProductRepository(env.repo)
	services.InitRequestStores(env.dream, env.appt)
	env.image.SetAsMockForTesting()

	return env
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

func errorCode(response map[string]interface{}) string {
	errorData, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errorData["code"].(string)
	return code
}

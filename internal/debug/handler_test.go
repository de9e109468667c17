package debug

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiritrise/yogacamp/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newRouter(cfg *config.Config, p Pinger) *gin.Engine {
	h := NewHandler(cfg, p, nil)
	h.now = func() time.Time { return time.Date(2025, 11, 17, 6, 0, 0, 0, time.UTC) }
	r := gin.New()
	h.Register(r)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func testConfig() *config.Config {
	return &config.Config{
		Server:       config.ServerConfig{Env: "production"},
		Store:        config.StoreConfig{Driver: config.DriverPostgres},
		Database:     config.DatabaseConfig{URL: "postgres://user:secret@db/yogacamp"},
		Registration: config.RegistrationConfig{ContactField: "email"},
		Delivery:     config.DeliveryConfig{WebhookSecret: "hunter2"},
	}
}

func TestLiveness(t *testing.T) {
	rec := get(newRouter(testConfig(), pinger{}), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, LivenessText, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := get(newRouter(testConfig(), pinger{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, rec.Body.String())

	rec = get(newRouter(testConfig(), pinger{err: errors.New("refused")}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDebugReportsPresenceOnly(t *testing.T) {
	rec := get(newRouter(testConfig(), pinger{}), "/api/debug")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.NotContains(t, rec.Body.String(), "hunter2")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "postgres", body["storeDriver"])
	assert.Equal(t, "Set", body["storeConfig"])
	assert.Equal(t, "connected", body["store"])
	assert.Equal(t, "Not Set", body["webhookUrl"])
	assert.Equal(t, "Set", body["webhookSecret"])
	assert.Equal(t, "Not Set", body["archiveBucket"])
	assert.Equal(t, "production", body["nodeEnv"])
	assert.Equal(t, "2025-11-17T06:00:00Z", body["timestamp"])
}

func TestDebugDisconnectedStore(t *testing.T) {
	rec := get(newRouter(testConfig(), pinger{err: errors.New("refused")}), "/api/debug")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "disconnected", body["store"])
}

// Package debug serves the liveness, health and configuration-presence endpoints.
package debug

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spiritrise/yogacamp/config"
	"github.com/spiritrise/yogacamp/pkg/response"
)

// LivenessText is the plain-text body of GET /.
const LivenessText = "YogaCamp registration API is running"

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler reports process and store health. It never echoes configuration values.
type Handler struct {
	cfg    *config.Config
	store  Pinger
	logger *zap.Logger
	now    func() time.Time
}

func NewHandler(cfg *config.Config, store Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cfg: cfg, store: store, logger: logger, now: time.Now}
}

// Register mounts GET /, /health and /api/debug.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/", h.Liveness)
	r.GET("/health", h.Health)
	r.GET("/api/debug", h.Debug)
}

func (h *Handler) Liveness(c *gin.Context) {
	c.String(http.StatusOK, LivenessText)
}

// Health returns 503 when the store does not answer a ping.
func (h *Handler) Health(c *gin.Context) {
	if err := h.ping(c.Request.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		response.ServiceUnavailable(c, "store unavailable")
		return
	}
	response.OK(c, gin.H{"status": "ok"})
}

// Debug reports which settings are present, never their values.
func (h *Handler) Debug(c *gin.Context) {
	storeState := "connected"
	if err := h.ping(c.Request.Context()); err != nil {
		storeState = "disconnected"
	}
	c.JSON(http.StatusOK, gin.H{
		"storeDriver":   h.cfg.Store.Driver,
		"storeConfig":   setOrNot(h.cfg.StoreConfigured()),
		"store":         storeState,
		"contactField":  h.cfg.Registration.ContactField,
		"webhookUrl":    setOrNot(h.cfg.Delivery.WebhookURL != ""),
		"webhookSecret": setOrNot(h.cfg.Delivery.WebhookSecret != ""),
		"archiveBucket": setOrNot(h.cfg.AWS.ArchiveBucket != ""),
		"otpStub":       h.cfg.Server.EnableOTPStub,
		"nodeEnv":       h.cfg.Server.Env,
		"timestamp":     h.now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.store.Ping(ctx)
}

func setOrNot(ok bool) string {
	if ok {
		return "Set"
	}
	return "Not Set"
}

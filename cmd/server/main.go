// Package main runs the yoga camp registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spiritrise/yogacamp/config"
	"github.com/spiritrise/yogacamp/internal/debug"
	"github.com/spiritrise/yogacamp/internal/metrics"
	"github.com/spiritrise/yogacamp/internal/middleware"
	"github.com/spiritrise/yogacamp/internal/models"
	"github.com/spiritrise/yogacamp/internal/otp"
	"github.com/spiritrise/yogacamp/internal/realtime"
	"github.com/spiritrise/yogacamp/internal/registrations"
	"github.com/spiritrise/yogacamp/internal/store"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer st.Close()

	m := metrics.New()

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	hub := realtime.NewHub(logger)
	go hub.Run(hubCtx)

	policy := registrations.Policy{
		ContactField: models.ContactField(cfg.Registration.ContactField),
		RequireEmail: cfg.Registration.RequireEmail,
		RequirePhone: cfg.Registration.RequirePhone,
		PhoneDigits:  cfg.Registration.PhoneDigits,
	}
	svc := registrations.NewService(st, m, hub, logger)
	if n, err := svc.Count(ctx); err == nil {
		hub.PublishCount(n)
	}
	registrationHandler := registrations.NewHandler(svc, policy, logger)
	debugHandler := debug.NewHandler(cfg, st, logger)

	if gin.Mode() == gin.DebugMode && cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(m))

	// Liveness, health, debug
	debugHandler.Register(router)

	// Registration (create and read only)
	router.POST("/api/register", registrationHandler.Register)
	router.POST("/api/check-registration", registrationHandler.Check)
	router.GET("/api/stats", registrationHandler.Stats)

	if cfg.Server.EnableOTPStub {
		otp.NewHandler(registrationHandler, logger).Register(router)
		logger.Warn("simulated OTP endpoints enabled; they do not verify phone ownership")
	}

	// Live counter
	router.GET("/ws/stats", realtime.ServeWs(hub, svc, logger))

	router.GET("/metrics", gin.WrapH(m.Handler()))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Driver),
			zap.String("contact_field", cfg.Registration.ContactField))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	hubCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

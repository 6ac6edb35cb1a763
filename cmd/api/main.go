// Package main is the entry point for the security core API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/veilchat/security-core/internal/config"
	"github.com/veilchat/security-core/internal/coordinator"
	"github.com/veilchat/security-core/internal/credstore"
	"github.com/veilchat/security-core/internal/decoy"
	"github.com/veilchat/security-core/internal/eraser"
	"github.com/veilchat/security-core/internal/gesture"
	"github.com/veilchat/security-core/internal/handler"
	"github.com/veilchat/security-core/internal/middleware"
	"github.com/veilchat/security-core/internal/motion"
	"github.com/veilchat/security-core/internal/passcode"
	"github.com/veilchat/security-core/internal/store"
	"github.com/veilchat/security-core/internal/telemetry"
	"github.com/veilchat/security-core/pkg/logger"
	"github.com/veilchat/security-core/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting security core")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "security-core", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// The telemetry plane is optional: without NATS the detectors are
	// inert and credentials fall back to process-local storage, but the
	// HTTP surface keeps working.
	var telemetryClient *telemetry.Client
	var telemetryManager *telemetry.Manager
	var creds credstore.Store

	telemetryClient, err = telemetry.Connect(ctx, telemetry.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Warn("NATS unavailable, telemetry and credential persistence disabled", zap.Error(err))
		telemetryClient = nil
		creds = credstore.NewMemoryStore()
	} else {
		defer telemetryClient.Close()

		kv, err := credstore.NewKVStore(ctx, telemetryClient.JetStream())
		if err != nil {
			log.Error("failed to open credential store", zap.Error(err))
			os.Exit(1)
		}
		creds = kv

		telemetryManager = telemetry.NewManager(telemetryClient, cfg.DeviceID, log)
		if err := telemetryManager.EnsureAuditStream(ctx); err != nil {
			log.Error("failed to ensure audit stream", zap.Error(err))
			os.Exit(1)
		}
		if err := telemetryManager.Subscribe(); err != nil {
			log.Error("failed to subscribe to telemetry", zap.Error(err))
			os.Exit(1)
		}
		defer telemetryManager.Drain()
	}

	// Core subsystem wiring.
	messageStore := store.New()
	router := decoy.NewRouter(messageStore, log)
	er := eraser.New(messageStore, log)
	validator := passcode.NewValidator(creds, passcode.Config{
		ShortThreshold: cfg.LockoutShortThreshold,
		LongThreshold:  cfg.LockoutLongThreshold,
		ShortLockout:   cfg.LockoutShort,
		LongLockout:    cfg.LockoutLong,
	}, log)

	motionDetector := motion.NewDetector(motion.Config{
		JitterStationary: cfg.MotionJitterStationary,
		JitterActive:     cfg.MotionJitterActive,
		FaceDownZ:        cfg.MotionFaceDownZ,
		AxisBound:        cfg.MotionAxisBound,
		HeldZMin:         cfg.MotionHeldZMin,
		HeldZMax:         cfg.MotionHeldZMax,
		FlatZ:            cfg.MotionFlatZ,
		FlatNegZ:         cfg.MotionFlatNegZ,
		FlatFrames:       cfg.MotionFlatFrames,
		ConfirmFrames:    cfg.MotionConfirmFrames,
		UnlockGrace:      cfg.UnlockGrace,
	}, log)

	var audit coordinator.AuditPublisher
	if telemetryManager != nil {
		audit = telemetryManager
	}

	coord := coordinator.New(ctx, creds, validator, router, er, motionDetector, coordinator.Options{
		Audit: audit,
	}, log)

	gestureDetector := gesture.NewDetector(gesture.Config{
		Enabled:       cfg.PanicEnabled,
		Cooldown:      cfg.PanicCooldown,
		RequiredCount: cfg.PanicRequiredCount,
		PressMaxGap:   cfg.PressMaxGap,
		PressDebounce: cfg.PressDebounce,
		ShakeThresh:   cfg.ShakeThreshold,
		ShakeWindow:   cfg.ShakeWindow,
		ShakeDebounce: cfg.ShakeDebounce,
	}, coord.Foreground, log)

	if telemetryManager != nil {
		go motionDetector.Run(ctx, telemetryManager.Motion(), func() {
			coord.HandleLockRequested(ctx)
		})
		go gestureDetector.Run(ctx, telemetryManager.Presses(), telemetryManager.Shakes(), func() {
			coord.HandlePanic(ctx)
		})
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-telemetryManager.Lifecycle():
					if !ok {
						return
					}
					coord.HandleLifecycle(ctx, ev)
				}
			}
		}()
	}

	// HTTP surface.
	healthHandler := handler.NewHealthHandler(telemetryClient)
	securityHandler := handler.NewSecurityHandler(coord, validator, log)
	messageHandler := handler.NewMessageHandler(router, coord, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/security", func(r chi.Router) {
			r.Get("/state", securityHandler.State)
			r.Post("/validate", securityHandler.Validate)
			r.Post("/unlock", securityHandler.Unlock)
			r.Post("/lock", securityHandler.Lock)
			r.Post("/decoy", securityHandler.SetDecoyMode)
			r.Put("/passcode", securityHandler.SetPasscode)
			r.Delete("/passcode", securityHandler.DeletePasscode)
			r.Put("/flavor", securityHandler.SetActiveFlavor)
		})

		r.Route("/flavors/{flavor}", func(r chi.Router) {
			r.Get("/messages", messageHandler.List)
			r.Post("/messages", messageHandler.Append)
			r.Delete("/messages", messageHandler.WipeFlavor)
			r.Put("/preset", messageHandler.SetPreset)
		})

		r.Delete("/messages", messageHandler.WipeAll)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

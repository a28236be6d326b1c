package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consult-signaling/internal/appointments"
	"consult-signaling/internal/audit"
	"consult-signaling/internal/auth"
	"consult-signaling/internal/calls"
	"consult-signaling/internal/config"
	"consult-signaling/internal/gateway/ws"
	"consult-signaling/internal/httpapi"
	"consult-signaling/internal/reporting"
	"consult-signaling/internal/signaling"
	"consult-signaling/pkg/logger"
	"consult-signaling/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if cfg.App.NodeID == "" {
		cfg.App.NodeID = uuid.NewString()
	}

	log := logger.New(cfg.App.Env, "node_id", cfg.App.NodeID)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// Postgres backs the audit trail and appointment attendance; without it audit stays in memory.
	var auditRepo audit.Repository = audit.NewMemoryRepo()
	var apptStore appointments.Store
	if cfg.PostgresEnabled() {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		pgAudit := audit.NewPostgresRepo(db)
		if err := pgAudit.EnsureSchema(rootCtx); err != nil {
			log.Error("audit schema init failed", "err", err)
			os.Exit(1)
		}
		auditRepo = pgAudit
		apptStore = appointments.NewPostgresStore(db)
	} else {
		log.Warn("postgres not configured; audit kept in memory, appointment attendance disabled")
	}

	registry := calls.NewRegistry()
	hub := signaling.NewHub(log)

	auditSvc := audit.NewService(auditRepo)
	dispatcher := signaling.NewDispatcher(log, 1024)
	dispatcher.Register("audit", auditSvc.RecordCallEvent)
	if apptStore != nil {
		dispatcher.Register("appointments", appointments.NewService(apptStore, log).HandleCallEvent)
	}
	go dispatcher.Run(rootCtx)

	svc := signaling.NewService(registry, hub, signaling.Options{
		RequestTimeout: cfg.Signaling.RequestTimeout,
		Observer:       dispatcher,
		Logger:         log,
	})

	// Redis shares the per-user connection cap between nodes. Call state and
	// deliveries stay node-local; route a user's connections to one node.
	var limiter ws.Limiter = ws.NewLocalLimiter(cfg.Signaling.MaxConnectionsPerUser)
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()

		limiter = ws.NewRedisLimiter(rdb, cfg.Signaling.MaxConnectionsPerUser)
	}

	wsHandler := ws.NewHandler(svc, ws.Options{
		Resolver:       authManager,
		Limiter:        limiter,
		SendBuffer:     cfg.Signaling.SendBuffer,
		PingInterval:   cfg.Signaling.PingInterval,
		AllowedOrigins: cfg.Signaling.AllowedOrigins,
	})

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, "/healthz"))

	registerRoutes(r, routeDeps{
		cfg:  cfg,
		auth: authManager,
		ws:   wsHandler,
		handlers: httpapi.Handlers{
			Auth:    authManager,
			Calls:   registry,
			Hub:     hub,
			Reports: reporting.NewService(auditSvc),
			ICE:     cfg.ICE,
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("signaling listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated", "active_calls", registry.Len(), "connections", hub.Stats().Connections)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	select {
	case <-dispatcher.Done():
	case <-shutdownCtx.Done():
		log.Warn("call event queue not drained before shutdown deadline")
	}
}

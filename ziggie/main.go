package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ziggie/ziggie/config"
	"ziggie/ziggie/controllers"
	"ziggie/ziggie/middlewares"
	"ziggie/ziggie/routes"
	"ziggie/ziggie/services/kb"
	"ziggie/ziggie/services/llm"
	"ziggie/ziggie/services/mail"
	"ziggie/ziggie/sources/memstore"
	"ziggie/ziggie/sources/psql"
	"ziggie/ziggie/sources/psql/dao"
	"ziggie/ziggie/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ziggie/ziggie/utils/logging"
)

func main() {
	logging.InitLogger()
	cfg, err := config.Load()
	if err != nil {
		logging.ErrorLogger.Error("config load error", zap.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logging.ErrorLogger.Error("config validation error", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Storage backend: Postgres when configured, in-memory otherwise.
	var (
		sessionStore stores.SessionStore
		messageStore stores.MessageStore
		leadStore    stores.LeadStore
		pinger       stores.Pinger
		db           *psql.Database
	)
	if cfg.DatabaseURL != "" {
		db, err = psql.NewDatabase(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Error("database connection error", zap.Error(err))
			os.Exit(1)
		}
		defer db.Close()
		sessionStore = dao.NewSessionDAO(db.Gorm, cfg.SessionTTL)
		messageStore = dao.NewMessageDAO(db.Pool)
		leadStore = dao.NewLeadDAO(db.Gorm)
		pinger = db
		logging.AppLogger.Info("using postgres storage backend")
	} else {
		backend := memstore.NewBackend()
		sessionStore = memstore.NewSessionStore(cfg.SessionTTL)
		messageStore = memstore.NewMessageStore()
		leadStore = memstore.NewLeadStore()
		pinger = backend
		logging.AppLogger.Warn("DATABASE_URL not set, using in-memory storage backend")
	}

	knowledge := kb.Load(cfg.KnowledgePath)
	model := llm.NewGeminiClient(cfg, knowledge.SystemInstruction())
	mailer := mail.NewMailer(cfg)

	chatCtrl := controllers.NewChatController(sessionStore, messageStore, model, knowledge, cfg)
	sessionCtrl := controllers.NewSessionController(sessionStore, messageStore)
	leadCtrl := controllers.NewLeadController(leadStore, mailer)
	healthCtrl := controllers.NewHealthController(pinger, model)

	writeErr := routes.NewErrorWriter(cfg.Env == "production")
	limiter := middlewares.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax, writeErr)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.RequestLogger)

	r.Get("/health", routes.HealthRoute(healthCtrl))
	r.Group(func(gr chi.Router) {
		gr.Use(limiter.Handler)
		gr.Use(middlewares.APIKey(cfg, writeErr))
		gr.Mount("/sessions", routes.SessionRoutes(sessionCtrl, writeErr))
		gr.Mount("/chat", routes.ChatRoutes(chatCtrl, writeErr))
		gr.Mount("/leads", routes.LeadRoutes(leadCtrl, writeErr))
	})
	r.Mount("/admin", routes.AdminRoutes(sessionCtrl, leadCtrl, cfg, writeErr))

	// Periodic sweep of expired sessions.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := sessionStore.CleanupExpired(sweepCtx); err != nil {
					logging.ErrorLogger.Error("session cleanup sweep failed", zap.Error(err))
				}
			case <-sweepCtx.Done():
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	// Drain in-flight requests, then close the pool. The forced-exit timer
	// guarantees termination if the drain stalls.
	forceExit := time.AfterFunc(cfg.ShutdownTimeout+5*time.Second, func() {
		logging.ErrorLogger.Error("shutdown stalled, forcing exit")
		os.Exit(1)
	})
	defer forceExit.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	stopSweep()
	logging.AppLogger.Info("server shutdown complete")
}

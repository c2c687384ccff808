package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aurora-press/editorial-assistant/internal/config"
	"github.com/aurora-press/editorial-assistant/internal/handler"
	"github.com/aurora-press/editorial-assistant/internal/observability"
	catalogsvc "github.com/aurora-press/editorial-assistant/internal/service/catalog"
	"github.com/aurora-press/editorial-assistant/internal/service/orchestrator"
	"github.com/aurora-press/editorial-assistant/internal/service/resolver"
	"github.com/aurora-press/editorial-assistant/internal/service/session"
	ticketsvc "github.com/aurora-press/editorial-assistant/internal/service/ticket"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Malformed catalog data halts the process before any conversation.
	catalogIndex, err := catalogsvc.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("catalog load failed", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.String("path", cfg.Catalog.Path), zap.Int("books", catalogIndex.Len()))

	var persistence ticketsvc.Persistence
	if cfg.Tickets.DBPath != "" {
		persistence, err = ticketsvc.NewSQLitePersistence(cfg.Tickets.DBPath)
		if err != nil {
			logger.Fatal("ticket database open failed", zap.Error(err))
		}
		logger.Info("ticket persistence: sqlite", zap.String("path", cfg.Tickets.DBPath))
	} else {
		persistence = ticketsvc.NewMemoryPersistence()
		logger.Info("ticket persistence: in-memory")
	}
	defer persistence.Close()

	ticketStore, err := ticketsvc.NewStore(ctx, persistence, logger)
	if err != nil {
		logger.Fatal("ticket store init failed", zap.Error(err))
	}

	var classifier resolver.Classifier
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			logger.Warn("chat model init failed, running on heuristics only", zap.Error(err))
		} else if arkClassifier, err := resolver.NewArkClassifier(ctx, chatModel); err != nil {
			logger.Warn("classifier init failed, running on heuristics only", zap.Error(err))
		} else {
			classifier = arkClassifier
			logger.Info("intent classifier initialized", zap.String("model", cfg.AI.Model))
		}
	} else {
		logger.Info("Ark credentials not configured, running on heuristics only")
	}

	sessions := session.NewManager(catalogIndex, cfg.Session.HistoryLimit)
	res := resolver.New(classifier, logger,
		resolver.WithThreshold(cfg.Resolver.ConfidenceThreshold),
		resolver.WithTimeout(cfg.Resolver.Timeout))
	orch := orchestrator.New(catalogIndex, ticketStore, sessions, res, logger)

	router := handler.NewRouter(orch, ticketStore, logger)
	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("editorial assistant listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

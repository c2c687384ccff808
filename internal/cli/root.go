// Package cli implements the editorial assistant's command-line front end.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aurora-press/editorial-assistant/internal/config"
	"github.com/aurora-press/editorial-assistant/internal/observability"
	catalogsvc "github.com/aurora-press/editorial-assistant/internal/service/catalog"
	"github.com/aurora-press/editorial-assistant/internal/service/orchestrator"
	"github.com/aurora-press/editorial-assistant/internal/service/resolver"
	"github.com/aurora-press/editorial-assistant/internal/service/session"
	ticketsvc "github.com/aurora-press/editorial-assistant/internal/service/ticket"
)

var catalogPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Conversational assistant for the publisher's book catalog",
	Long: "Answers questions about the catalog (details, synopsis, where to buy in a city " +
		"or online) and opens support tickets, from the terminal.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "c", "", "Catalog file path (default: $CATALOG_PATH or data/catalog.json)")
}

// buildCore wires the dialogue core the same way cmd/api does, minus the HTTP
// surface. The CLI logs at warn level so replies stay readable.
func buildCore(ctx context.Context) (*orchestrator.Service, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}

	logger, err := observability.NewLogger("warn")
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	catalogIndex, err := catalogsvc.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	var persistence ticketsvc.Persistence
	if cfg.Tickets.DBPath != "" {
		persistence, err = ticketsvc.NewSQLitePersistence(cfg.Tickets.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open ticket database: %w", err)
		}
	} else {
		persistence = ticketsvc.NewMemoryPersistence()
	}

	ticketStore, err := ticketsvc.NewStore(ctx, persistence, logger)
	if err != nil {
		persistence.Close()
		return nil, nil, fmt.Errorf("init ticket store: %w", err)
	}

	var classifier resolver.Classifier
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err == nil {
			if arkClassifier, err := resolver.NewArkClassifier(ctx, chatModel); err == nil {
				classifier = arkClassifier
			} else {
				logger.Warn("classifier init failed, running on heuristics only", zap.Error(err))
			}
		} else {
			logger.Warn("chat model init failed, running on heuristics only", zap.Error(err))
		}
	}

	sessions := session.NewManager(catalogIndex, cfg.Session.HistoryLimit)
	res := resolver.New(classifier, logger,
		resolver.WithThreshold(cfg.Resolver.ConfidenceThreshold),
		resolver.WithTimeout(cfg.Resolver.Timeout))
	orch := orchestrator.New(catalogIndex, ticketStore, sessions, res, logger)

	cleanup := func() {
		persistence.Close()
		logger.Sync()
	}
	return orch, cleanup, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "erro: %s: %v\n", msg, err)
	os.Exit(1)
}

package main

import (
	"context"
	"log"

	"github.com/sozercan/insight-gateway/internal/analyzer"
	"github.com/sozercan/insight-gateway/internal/auth"
	"github.com/sozercan/insight-gateway/internal/config"
	"github.com/sozercan/insight-gateway/internal/llm"
	"github.com/sozercan/insight-gateway/internal/logger"
	"github.com/sozercan/insight-gateway/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = appLogger.Sync() }()

	catalog := analyzer.DefaultCatalog()
	if cfg.Prompts.CatalogFile != "" {
		catalog, err = analyzer.LoadCatalogFile(cfg.Prompts.CatalogFile)
		if err != nil {
			log.Fatalf("failed to load prompt catalog: %v", err)
		}
	}

	var llmProvider llm.Provider
	llmProvider, err = llm.New(context.Background(), cfg.LLM)
	if err != nil {
		appLogger.Error("LLM provider unavailable, every category will fail", map[string]interface{}{
			"provider": cfg.LLM.Provider,
			"error":    err,
		})
		llmProvider = llm.Unavailable{Reason: err}
	}

	insightAnalyzer := analyzer.New(catalog, llmProvider, appLogger,
		analyzer.WithCategoryTimeout(cfg.LLM.Timeout),
		analyzer.WithMaxConcurrency(cfg.LLM.MaxConcurrency),
	)

	validator := auth.NewRemoteValidator(cfg.Auth.BaseURL, cfg.Auth.APIKey, cfg.Auth.Timeout, appLogger)

	srv := server.New(*cfg, insightAnalyzer, validator, appLogger)
	appLogger.Info("starting insight gateway", map[string]interface{}{
		"environment": cfg.Environment,
		"address":     cfg.Server.Addr(),
		"provider":    llmProvider.Name(),
		"categories":  catalog.Categories(),
	})
	if err := srv.Run(); err != nil {
		appLogger.Error("server failed", map[string]interface{}{"error": err})
		_ = appLogger.Sync()
		log.Fatalf("server failed: %v", err)
	}
}

// ABOUTME: Entry point for the Contract Sentinel analysis service.
// ABOUTME: Handles configuration parsing, wiring of collaborators, and the HTTP server lifecycle.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tbraun92/contract-sentinel/internal/archive"
	"github.com/tbraun92/contract-sentinel/internal/config"
	"github.com/tbraun92/contract-sentinel/internal/engine"
	"github.com/tbraun92/contract-sentinel/internal/jobs"
	"github.com/tbraun92/contract-sentinel/internal/metrics"
	"github.com/tbraun92/contract-sentinel/internal/providers/factory"
	"github.com/tbraun92/contract-sentinel/internal/server"

	"github.com/sirupsen/logrus"
)

type settings struct {
	engine    engine.Config
	providers factory.Config
	archive   archive.Config
}

func main() {
	cfg := parseConfig()

	// Set up structured logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Service exited with error")
	}
}

func run(ctx context.Context, cfg *settings, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"port":           cfg.engine.Port,
		"cache_ttl":      cfg.engine.CacheTTL,
		"runner_timeout": cfg.engine.RunnerTimeout,
		"mock_mode":      cfg.engine.MockMode,
	}).Info("Initializing Contract Sentinel")

	collaborators, err := factory.Create(&cfg.providers, logger)
	if err != nil {
		return fmt.Errorf("failed to create collaborators: %w", err)
	}

	var archiver engine.ReportArchiver
	if cfg.archive.Endpoint != "" {
		store, err := archive.NewStore(cfg.archive, logger)
		if err != nil {
			return fmt.Errorf("failed to create report archive: %w", err)
		}
		archiver = store
		logger.WithField("bucket", cfg.archive.Bucket).Info("Report archiving enabled")
	}

	m := metrics.New()
	registry := jobs.NewRegistry(logger)
	analysisEngine := engine.NewEngine(
		collaborators.Simulator,
		collaborators.Retriever,
		collaborators.Generator,
		collaborators.Metadata,
		registry,
		archiver,
		m,
		&cfg.engine,
		logger,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", server.NewRouter(analysisEngine, logger))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.engine.Port),
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.WithField("port", cfg.engine.Port).Info("Starting HTTP server")

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}

func parseConfig() *settings {
	cfg := &settings{}
	var configFile string

	flag.StringVar(&configFile, "config", "", "Path to optional YAML config file")
	flag.IntVar(&cfg.engine.Port, "port", 8080, "Port to serve the API on")
	flag.DurationVar(&cfg.engine.CacheTTL, "cache-ttl", time.Hour, "TTL for cached analysis reports")
	flag.DurationVar(&cfg.engine.RunnerTimeout, "runner-timeout", 60*time.Second, "Timeout for one sub-analysis runner")
	flag.DurationVar(&cfg.engine.AnalysisTimeout, "analysis-timeout", 5*time.Minute, "Overall timeout for one analysis job")
	flag.BoolVar(&cfg.engine.MockMode, "mock", false, "Enable mock mode for local testing (no external API calls)")

	flag.StringVar(&cfg.providers.TenderlyURL, "tenderly-url", "https://api.tenderly.co/api/v1", "Base URL of the simulation API")
	flag.StringVar(&cfg.providers.TenderlyAccount, "tenderly-account", "", "Tenderly account slug")
	flag.StringVar(&cfg.providers.TenderlyProject, "tenderly-project", "", "Tenderly project slug")
	flag.StringVar(&cfg.providers.ExplorerURL, "explorer-url", "https://api.etherscan.io", "Base URL of the contract metadata API")
	flag.StringVar(&cfg.providers.OpenAIModel, "openai-model", "gpt-4o-mini", "Model for generative analysis")
	flag.StringVar(&cfg.providers.ChromaURL, "chroma-url", "", "Base URL of the retrieval store")
	flag.StringVar(&cfg.providers.ChromaCollection, "chroma-collection", "smart_contracts_knowledge", "Retrieval store collection name")
	flag.Parse()

	// Secrets only come from the environment or the config file, never flags
	cfg.providers.TenderlyKey = os.Getenv("TENDERLY_ACCESS_KEY")
	cfg.providers.ExplorerKey = os.Getenv("ETHERSCAN_API_KEY")
	cfg.providers.OpenAIKey = os.Getenv("OPENAI_API_KEY")

	if envPort := os.Getenv("PORT"); envPort != "" {
		cfg.engine.Port = portFromEnv(envPort, cfg.engine.Port)
	}
	if envTTL := os.Getenv("CACHE_TTL"); envTTL != "" {
		if ttl, err := time.ParseDuration(envTTL); err == nil {
			cfg.engine.CacheTTL = ttl
		}
	}
	if envMock := os.Getenv("MOCK_MODE"); envMock == "true" || envMock == "1" {
		cfg.engine.MockMode = true
	}

	if configFile != "" {
		applyConfigFile(cfg, configFile)
	}

	cfg.providers.MockMode = cfg.engine.MockMode

	return cfg
}

// portFromEnv parses a PORT value strictly, keeping the fallback on any
// malformed input.
func portFromEnv(value string, fallback int) int {
	port, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid PORT environment variable: %s", value)
		return fallback
	}
	return port
}

// applyConfigFile fills in any setting the file provides that flags and env
// left at their zero value or default.
func applyConfigFile(cfg *settings, path string) {
	fileCfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config file %s: %v", path, err)
	}

	if fileCfg.Server.Port != 0 {
		cfg.engine.Port = fileCfg.Server.Port
	}
	if fileCfg.Analysis.CacheTTL != 0 {
		cfg.engine.CacheTTL = time.Duration(fileCfg.Analysis.CacheTTL)
	}
	if fileCfg.Analysis.RunnerTimeout != 0 {
		cfg.engine.RunnerTimeout = time.Duration(fileCfg.Analysis.RunnerTimeout)
	}
	if fileCfg.Analysis.AnalysisTimeout != 0 {
		cfg.engine.AnalysisTimeout = time.Duration(fileCfg.Analysis.AnalysisTimeout)
	}
	if fileCfg.Tenderly.URL != "" {
		cfg.providers.TenderlyURL = fileCfg.Tenderly.URL
	}
	if fileCfg.Tenderly.AccessKey != "" {
		cfg.providers.TenderlyKey = fileCfg.Tenderly.AccessKey
	}
	if fileCfg.Tenderly.Account != "" {
		cfg.providers.TenderlyAccount = fileCfg.Tenderly.Account
	}
	if fileCfg.Tenderly.Project != "" {
		cfg.providers.TenderlyProject = fileCfg.Tenderly.Project
	}
	if fileCfg.Explorer.URL != "" {
		cfg.providers.ExplorerURL = fileCfg.Explorer.URL
	}
	if fileCfg.Explorer.APIKey != "" {
		cfg.providers.ExplorerKey = fileCfg.Explorer.APIKey
	}
	if fileCfg.OpenAI.APIKey != "" {
		cfg.providers.OpenAIKey = fileCfg.OpenAI.APIKey
	}
	if fileCfg.OpenAI.Model != "" {
		cfg.providers.OpenAIModel = fileCfg.OpenAI.Model
	}
	if fileCfg.Chroma.URL != "" {
		cfg.providers.ChromaURL = fileCfg.Chroma.URL
	}
	if fileCfg.Chroma.Collection != "" {
		cfg.providers.ChromaCollection = fileCfg.Chroma.Collection
	}
	if fileCfg.Archive.Endpoint != "" {
		cfg.archive = archive.Config{
			Endpoint:  fileCfg.Archive.Endpoint,
			AccessKey: fileCfg.Archive.AccessKey,
			SecretKey: fileCfg.Archive.SecretKey,
			Bucket:    fileCfg.Archive.Bucket,
			UseSSL:    fileCfg.Archive.UseSSL,
		}
	}
}

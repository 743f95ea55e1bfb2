package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/internal/rules"
	"github.com/iwvelando/homeloan/internal/server"
	"github.com/iwvelando/homeloan/pkg/constants"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := config.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	mortgageConfig := config.DefaultMortgage()
	if cfg.MortgageConfig != "" {
		conf, err := config.LoadConfiguration(cfg.MortgageConfig)
		if err != nil {
			logger.Fatal("failed to load mortgage configuration",
				zap.String("op", "main"),
				zap.String("path", cfg.MortgageConfig),
				zap.Error(err),
			)
		}
		mortgageConfig = conf.Mortgage
	}

	var ruleSet []rules.Rule
	if cfg.RulesFile != "" {
		ruleSet, err = rules.LoadRulesFile(cfg.RulesFile)
		if err != nil {
			logger.Fatal("failed to load matching rules",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	handler, err := server.NewHandler(logger, server.Options{
		Mortgage:    mortgageConfig,
		Rules:       ruleSet,
		Clock:       cfg.Clock(),
		MaxBodySize: cfg.BodySizeBytes(),
		Version:     version,
	})
	if err != nil {
		logger.Fatal("failed to build handler",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	logger.Info("serving homeloan API",
		zap.String("op", "main"),
		zap.String("address", cfg.Address),
		zap.String("version", version),
		zap.Int("rules", len(ruleSet)),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

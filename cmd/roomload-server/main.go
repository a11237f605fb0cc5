// RoomLoad API: HTTP upload service for the room-load pipeline
//
// Accepts DXF drawings on POST /api/process-dxf and answers with the same
// JSON the command-line tool prints. Configuration comes from
// ~/.roomload/config.json, a .env file and ROOMLOAD_* variables.
//
// Build:
//   go build -o roomload-server ./cmd/roomload-server

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/engine"
	"github.com/piwi3910/RoomLoad/internal/logging"
	"github.com/piwi3910/RoomLoad/internal/project"
	"github.com/piwi3910/RoomLoad/internal/server"
	"github.com/piwi3910/RoomLoad/internal/store"
)

func main() {
	configPath := flag.String("config", project.DefaultConfigPath(), "application config file")
	envFile := flag.String("env", ".env", "dotenv file with ROOMLOAD_* overrides")
	flag.Parse()

	config, err := project.LoadAppConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to read config: %v", err)
	}
	project.ApplyEnv(&config, *envFile)

	logger := logging.Must(config.LogLevel, config.LogFormat, "roomload-server")
	defer logger.Sync()

	table, warnings, err := project.LoadFactorTableFile(config.FactorsPath)
	if err != nil {
		logger.Fatal("failed to load load-factor table", zap.String("path", config.FactorsPath), zap.Error(err))
	}
	for _, w := range warnings {
		logger.Warn("load factor table", zap.String("warning", w))
	}

	var runs *store.Store
	if config.HistoryDB != "" {
		runs, err = store.Open(config.HistoryDB, logger)
		if err != nil {
			logger.Fatal("failed to open run history", zap.String("path", config.HistoryDB), zap.Error(err))
		}
		defer runs.Close()
	}

	processor := engine.NewProcessor(table, config.Settings(), logger)
	srv, err := server.New(config, processor, runs, logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Listen(); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}

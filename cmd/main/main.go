package main

import (
	"flag"
	"fmt"
	"os"

	"stock-historian/src/config"
	"stock-historian/src/data_source/yahoo"
	"stock-historian/src/interfaces"
	"stock-historian/src/logger"
	"stock-historian/src/network"
	"stock-historian/src/server"
	"stock-historian/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file (+ .env / environment credential overlay)
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.LogLevel, config.Name)

	// Storage: one pooled handle for the process lifetime, shared by the
	// save and aggregation paths.
	var store interfaces.IStore

	switch config.Storage.DBType {
	case "postgres":
		store, err = storage.NewPostgresStore(config.MConfig, appLogger)
	default:
		store, err = storage.NewSQLiteStore(config.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		appLogger.Critical("Failed to open store: %v", err)
	}
	defer store.Close()

	// Market data source
	var netMgr interfaces.INetworkManager = network.NewNetworkManager(config.MConfig, appLogger)
	var source interfaces.IMarketDataSource = yahoo.NewYahooFinanceSource(config.MConfig, netMgr)

	// Web UI + JSON API
	srv := server.NewWebAppServer(config.MConfig, appLogger, store, source)
	if err := srv.Start(); err != nil {
		appLogger.Critical("Server failed: %v", err)
	}
}

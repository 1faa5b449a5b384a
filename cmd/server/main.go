package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alwaysssummer/eng-lib/internal/database"
	"github.com/alwaysssummer/eng-lib/internal/server"
	"github.com/alwaysssummer/eng-lib/pkg/config"
	"github.com/alwaysssummer/eng-lib/pkg/dropbox"
	"github.com/alwaysssummer/eng-lib/pkg/logger"
)

const serviceVersion = "1.0.0"

func main() {
	var (
		configFile     = flag.String("config", "", "Path to configuration file")
		generateConfig = flag.String("generate-config", "", "Generate example configuration file at specified path")
		validateOnly   = flag.Bool("validate-config", false, "Validate configuration and exit")
		syncOnStart    = flag.Bool("sync-on-start", false, "Run a full sync before serving traffic")
		logLevel       = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		logFormat      = flag.String("log-format", "json", "Log format (json, text)")
		version        = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("eng-lib server v%s\n", serviceVersion)
		os.Exit(0)
	}

	loader := config.NewLoader("")

	if *generateConfig != "" {
		if err := loader.WriteExample(*generateConfig, server.GetDefaultConfig()); err != nil {
			log.Fatalf("Failed to generate config file: %v", err)
		}
		fmt.Printf("Example configuration file generated at: %s\n", *generateConfig)
		os.Exit(0)
	}

	if err := config.ValidateConfigPath(*configFile); err != nil {
		log.Fatalf("Invalid config file: %v", err)
	}

	serverConfig := server.GetDefaultConfig()
	if *configFile != "" {
		if err := loader.Load(*configFile, serverConfig); err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	} else {
		if err := loader.LoadFromEnv(serverConfig); err != nil {
			log.Fatalf("Failed to load configuration from environment: %v", err)
		}
	}

	if *validateOnly {
		if err := serverConfig.Validate(); err != nil {
			fmt.Printf("Configuration validation failed:\n%v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration validation passed.")
		os.Exit(0)
	}

	format := logger.JSONFormat
	if *logFormat == "text" {
		format = logger.TextFormat
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLogLevel(*logLevel),
		Format:  format,
		Output:  os.Stdout,
		Service: "eng-lib",
		Version: serviceVersion,
	})

	appLogger.WithFields(map[string]interface{}{
		"host":     serverConfig.Database.Host,
		"port":     serverConfig.Database.Port,
		"database": serverConfig.Database.Database,
	}).Info("connecting to database")

	db, err := database.New(serverConfig.Database)
	if err != nil {
		appLogger.Fatal("failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Connect(ctx); err != nil {
		cancel()
		appLogger.Fatal("failed to connect to database: %v", err)
	}
	cancel()

	dbx, err := dropbox.NewClient(serverConfig.Dropbox)
	if err != nil {
		appLogger.Fatal("failed to create dropbox client: %v", err)
	}

	srv, err := server.New(serverConfig, db, dbx, appLogger)
	if err != nil {
		appLogger.Fatal("failed to initialize server: %v", err)
	}

	if *syncOnStart {
		appLogger.Info("running startup full sync")
		result := srv.Engine().FullSync(context.Background(), "")
		if !result.Success {
			appLogger.WithField("errors", result.Errors).Warn("startup sync did not complete")
		}
	}

	appLogger.WithFields(map[string]interface{}{
		"address":   serverConfig.GetAddress(),
		"root_path": serverConfig.Dropbox.RootPath,
		"schedule":  serverConfig.Sync.Schedule,
	}).Info("starting eng-lib server")

	if err := srv.Start(context.Background()); err != nil {
		appLogger.Fatal("server failed: %v", err)
	}
}

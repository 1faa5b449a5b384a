package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/alwaysssummer/eng-lib/internal/database"
	"github.com/alwaysssummer/eng-lib/internal/database/models"
	"github.com/alwaysssummer/eng-lib/pkg/config"
)

func main() {
	var (
		command  = flag.String("command", "migrate", "Command to run: migrate, status")
		host     = flag.String("host", "", "Database host")
		port     = flag.Int("port", 0, "Database port")
		username = flag.String("username", "", "Database username")
		password = flag.String("password", "", "Database password")
		dbname   = flag.String("database", "", "Database name")
		sslmode  = flag.String("sslmode", "", "SSL mode")
	)
	flag.Parse()

	dbConfig := database.GetDefaultConfig()
	// Run migrations explicitly, not as a connection side effect.
	dbConfig.AutoMigrate = false

	loader := config.NewLoader("DATABASE")
	if err := loader.LoadFromEnv(dbConfig); err != nil {
		log.Fatalf("Failed to load database configuration: %v", err)
	}

	if *host != "" {
		dbConfig.Host = *host
	}
	if *port != 0 {
		dbConfig.Port = *port
	}
	if *username != "" {
		dbConfig.Username = *username
	}
	if *password != "" {
		dbConfig.Password = *password
	}
	if *dbname != "" {
		dbConfig.Database = *dbname
	}
	if *sslmode != "" {
		dbConfig.SSLMode = *sslmode
	}

	conn, err := database.NewConnection(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	switch *command {
	case "migrate":
		if err := conn.AutoMigrate(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("Migration completed successfully.")

	case "status":
		migrator := conn.DB().Migrator()
		tables := []struct {
			name  string
			model interface{}
		}{
			{"textbooks", &models.Textbook{}},
			{"files", &models.File{}},
			{"file_clicks", &models.FileClick{}},
			{"sync_cursors", &models.SyncCursor{}},
			{"sync_logs", &models.SyncLog{}},
			{"notices", &models.Notice{}},
			{"textbook_requests", &models.TextbookRequest{}},
		}
		for _, table := range tables {
			state := "missing"
			if migrator.HasTable(table.model) {
				state = "present"
			}
			fmt.Printf("%-20s %s\n", table.name, state)
		}

	default:
		fmt.Printf("Unknown command: %s\n", *command)
		flag.Usage()
		os.Exit(1)
	}
}

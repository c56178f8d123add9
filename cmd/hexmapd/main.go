package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawnchairsociety/openhexmap/internal/config"
	"github.com/lawnchairsociety/openhexmap/internal/database"
	"github.com/lawnchairsociety/openhexmap/internal/logger"
	"github.com/lawnchairsociety/openhexmap/internal/server"
	"github.com/lawnchairsociety/openhexmap/internal/terrain"
)

func main() {
	serverConfigFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	terrainsFile := flag.String("terrains", "", "Path to terrains YAML file (overrides the config)")
	dbFile := flag.String("db", "", "Path to SQLite database file (overrides the config)")
	addr := flag.String("addr", "", "Listen address (overrides the config)")
	noDB := flag.Bool("no-db", false, "Run without map storage")
	makeKey := flag.String("make-key", "", "Create an API key with this name, print it and exit")
	revokeKey := flag.String("revoke-key", "", "Revoke the API key with this name and exit")
	seedTerrains := flag.Bool("seed-terrains", false, "Store the file or built-in terrains in the database and exit")
	flag.Parse()

	logConfig, err := logger.LoadConfig(*loggingConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using default logging\n", err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	cfg, err := config.LoadConfig(*serverConfigFile)
	if err != nil {
		logger.Warning("Failed to load server config, using defaults", "path", *serverConfigFile, "error", err)
	}
	if *terrainsFile != "" {
		cfg.Generation.TerrainFile = *terrainsFile
	}
	if *dbFile != "" {
		cfg.Database.Driver = string(database.DialectSQLite)
		cfg.Database.SQLitePath = *dbFile
	}
	if *addr != "" {
		cfg.HTTP.Address = *addr
	}

	if *makeKey != "" || *revokeKey != "" || *seedTerrains {
		db := openDatabase(cfg.Database)
		defer db.Close()

		switch {
		case *makeKey != "":
			handleMakeKey(db, *makeKey)
		case *revokeKey != "":
			handleRevokeKey(db, *revokeKey)
		default:
			handleSeedTerrains(db, cfg.Generation.TerrainFile)
		}
		return
	}

	logger.Always("Starting hex map server")

	var store server.Store
	var db *database.Database
	if !*noDB {
		db = openDatabase(cfg.Database)
		defer db.Close()
		store = db
	} else {
		logger.Info("Map storage disabled")
	}

	palette, source := loadPalette(db, cfg.Generation.TerrainFile)
	logger.Info("Terrains loaded", "source", source, "count", palette.Len(), "terrains", palette.Terrains())

	if len(cfg.WebSocket.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(cfg.WebSocket.AllowedOrigins) == 1 && cfg.WebSocket.AllowedOrigins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.WebSocket.AllowedOrigins)
	}

	srv := server.NewServer(cfg, palette, source, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.HTTP.Address); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

// openDatabase opens the configured store or exits.
func openDatabase(cfg config.DatabaseConfig) *database.Database {
	dbCfg := database.DefaultConfig(cfg.SQLitePath)
	if cfg.Driver != "" {
		dbCfg.Driver = cfg.Driver
	}
	dbCfg.Postgres = database.PostgresConfig{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		Database:        cfg.Postgres.Database,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute,
	}

	db, err := database.OpenWithConfig(dbCfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	logger.Info("Database initialized", "driver", dbCfg.Driver)
	return db
}

// loadPalette picks the terrain set: stored terrains first, then the YAML
// file, then the built-in set.
func loadPalette(db *database.Database, terrainFile string) (*terrain.Palette, string) {
	if db != nil {
		p, err := db.LoadPalette(database.StandardCategory)
		if err == nil {
			return p, server.SourceDatabase
		}
		if !errors.Is(err, database.ErrNoTerrainTypes) {
			logger.Warning("Failed to load terrains from database", "error", err)
		}
	}

	if terrainFile != "" {
		p, err := terrain.LoadPalette(terrainFile)
		if err == nil {
			return p, server.SourceFile
		}
		logger.Warning("Failed to load terrains file, using built-in terrains", "path", terrainFile, "error", err)
	}

	return terrain.DefaultPalette(), server.SourceDefault
}

func handleMakeKey(db *database.Database, name string) {
	key, plaintext, err := db.CreateAPIKey(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created API key '%s' (prefix %s).\n", key.Name, key.Prefix)
	fmt.Printf("Key: %s\n", plaintext)
	fmt.Println("Store it now; it cannot be shown again.")
}

func handleRevokeKey(db *database.Database, name string) {
	if err := db.RevokeAPIKey(name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to revoke API key '%s': %v\n", name, err)
		os.Exit(1)
	}
	fmt.Printf("API key '%s' has been revoked.\n", name)
}

func handleSeedTerrains(db *database.Database, terrainFile string) {
	palette := terrain.DefaultPalette()
	if terrainFile != "" {
		p, err := terrain.LoadPalette(terrainFile)
		if err != nil {
			logger.Warning("Failed to load terrains file, seeding built-in terrains", "path", terrainFile, "error", err)
		} else {
			palette = p
		}
	}

	if err := db.SavePalette(palette, database.StandardCategory); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to store terrains: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Stored %d terrains in category '%s'.\n", palette.Len(), database.StandardCategory)
}

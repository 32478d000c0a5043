package main

import (
	"log"

	"yt-chatbot-be/internal/config"
	"yt-chatbot-be/internal/pkg/logger"
	"yt-chatbot-be/pkg/database"
	"yt-chatbot-be/pkg/vectorstore/pgvector"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, sysLogger)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Creating vector extension and pgvector tables...")
	if err := pgvector.Migrate(db); err != nil {
		log.Fatal("Error: Migration failed:", err)
	}
	log.Println("Migration complete")
}

package main

import (
	"log"

	"leaf-research-be/internal/config"
	"leaf-research-be/internal/model"
	"leaf-research-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Verbose)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Extensions & tables
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Fatalf("Error: pgcrypto: %v", err)
	}
	if err := database.Migrate(db,
		&model.Thread{},
		&model.Message{},
		&model.DocumentChunk{},
	); err != nil {
		log.Fatalf("Error: Migration failed: %v", err)
	}

	// 4. Post-Migration: indexes AutoMigrate does not create
	postSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_messages_thread_created ON research_messages (thread_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_threads_user_created ON research_threads (user_id, created_at DESC);`,
	}
	for _, sql := range postSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	log.Println("Migration completed!")
}

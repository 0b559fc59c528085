package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"chatrelay/internal/config"
	"chatrelay/internal/repository/postgres"

	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop chat tables before creating them (fresh start)")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: never drop production tables from this tool
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	// One statement per Exec: the extended protocol pgx uses by default
	// rejects multi-statement strings.
	if *dropTables {
		drops := []string{
			fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, tables.Messages),
			fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, tables.Chats),
		}
		for _, stmt := range drops {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				log.Fatalf("Failed to drop tables: %v", err)
			}
		}
		log.Printf("Tables dropped (prefix: %s)", cfg.TablePrefix)
	}

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         VARCHAR(255) PRIMARY KEY,
				user_id    VARCHAR(255) NOT NULL,
				title      TEXT         NOT NULL,
				visibility VARCHAR(32)  NOT NULL DEFAULT 'private',
				created_at TIMESTAMPTZ  NOT NULL DEFAULT now()
			)`, tables.Chats),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         VARCHAR(255) PRIMARY KEY,
				chat_id    VARCHAR(255) NOT NULL REFERENCES %s (id),
				role       VARCHAR(32)  NOT NULL,
				content    TEXT         NOT NULL,
				created_at TIMESTAMPTZ  NOT NULL DEFAULT now()
			)`, tables.Messages, tables.Chats),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_chat_id_created_at_idx
			ON %s (chat_id, created_at)`, tables.Messages, tables.Messages),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_user_id_created_at_idx
			ON %s (user_id, created_at DESC)`, tables.Chats, tables.Chats),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("Failed to create schema: %v", err)
		}
	}

	log.Printf("Schema ready (prefix: %s)", cfg.TablePrefix)
}

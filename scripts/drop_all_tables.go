package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Read environment to determine table prefix
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	prefix := os.Getenv("TABLE_PREFIX")
	if prefix == "" {
		prefix = env + "_"
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	// Drop in dependency order so foreign keys don't block
	dropSQL := fmt.Sprintf(`
		DROP TABLE IF EXISTS %sadmin_reset_requests CASCADE;
		DROP TABLE IF EXISTS %spassword_resets CASCADE;
		DROP TABLE IF EXISTS %schat_messages CASCADE;
		DROP TABLE IF EXISTS %snodes CASCADE;
		DROP TABLE IF EXISTS %sprojects CASCADE;
		DROP TABLE IF EXISTS %sservices CASCADE;
		DROP TABLE IF EXISTS %susers CASCADE;
	`, prefix, prefix, prefix, prefix, prefix, prefix, prefix)

	if _, err := db.Exec(dropSQL); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	fmt.Printf("All tables dropped successfully (prefix: %s)\n", prefix)
}

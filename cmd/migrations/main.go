// Command migrations applies the postgres schema files in lexical order.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db, err := sql.Open("postgres", dbConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	basePath := filepath.Join(".", "internal", "adapters", "repository", "postgres", "migrations")
	applied, err := applyMigrations(db, basePath)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Applied %d migration file(s).\n", applied)
}

func applyMigrations(db *sql.DB, basePath string) (int, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(basePath, name))
		if err != nil {
			return 0, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return 0, fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		log.Printf("applied %s", name)
	}
	return len(names), nil
}

func dbConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_HOST"), os.Getenv("POSTGRES_PORT"), os.Getenv("POSTGRES_DB"))
}

package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"bookshop/db"
)

func loadEnvFiles() {
	// Do not override environment provided by the runtime (e.g. Docker).
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// migrationsDir is where 'create' writes new files for dialect.
func migrationsDir(dialect string) (string, error) {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v, nil
	}
	dir, err := db.Dir(dialect)
	if err != nil {
		return "", err
	}
	return filepath.Join("db", filepath.FromSlash(dir)), nil
}

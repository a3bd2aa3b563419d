package database

import (
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the collection database and creates the schema if it does not exist.
// For sqlite3 an empty dsn means dataDir/collection.db.
func Connect(driver, dsn, dataDir string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite3":
		if dsn == "" {
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
			dsn = filepath.Join(dataDir, "collection.db")
		}
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres requires a dsn")
		}
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers; one connection also keeps :memory: databases shared
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// builder returns a statement builder using the driver's placeholder format
func builder(db *sqlx.DB) sq.StatementBuilderType {
	if db.DriverName() == "postgres" {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS note_models (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			fields TEXT NOT NULL,
			templates TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create note_models table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS decks (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			default_model_id BIGINT REFERENCES note_models(id),
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create decks table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id BIGINT PRIMARY KEY,
			guid TEXT NOT NULL UNIQUE,
			model_id BIGINT NOT NULL REFERENCES note_models(id),
			deck_id BIGINT NOT NULL REFERENCES decks(id),
			fields TEXT NOT NULL,
			sort_field TEXT NOT NULL,
			tags TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create notes table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_notes_model_id ON notes(model_id)`)
	if err != nil {
		return fmt.Errorf("failed to create notes index: %w", err)
	}

	return nil
}

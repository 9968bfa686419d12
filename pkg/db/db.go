package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultDBName is the run log file created beside the binary when no path
// is configured.
const DefaultDBName = "inbox-digest.db"

// schemaVersion is stored in PRAGMA user_version once the schema is applied.
const schemaVersion = 1

const memoryPath = ":memory:"

// DB is the run log. It holds cycle and run metadata only.
type DB struct {
	*sql.DB
	path string
}

// DefaultPath returns DefaultDBName in the directory of the running binary.
func DefaultPath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultDBName), nil
}

func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" would get a database of its own.
	if dbPath == memoryPath {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	return sqlDB, nil
}

// Open opens the run log at dbPath, creating the file and schema as needed.
// "" resolves to DefaultPath and ":memory:" keeps everything in process.
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}
	if dbPath != memoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}
	db := &DB{DB: sqlDB, path: dbPath}
	if err := db.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}
	if err := db.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to store schema version: %w", err)
	}
	return nil
}

func (db *DB) Path() string {
	return db.path
}

// InitSchema creates the tables. It is safe to run on an existing database.
func (db *DB) InitSchema() error {
	_, err := db.Exec(schema)
	return err
}

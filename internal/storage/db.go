// Package storage is the SQLite-backed persistence collaborator: it creates
// profiles atomically and answers name-availability lookups.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (and creates if missing) the SQLite database at path and applies
// the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers; one connection keeps transactions simple.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// WithTx runs fn inside a SQL transaction.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			tag TEXT,
			tag_key TEXT UNIQUE,
			profile_created_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS attributes (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL COLLATE NOCASE,
			position INTEGER NOT NULL,
			PRIMARY KEY (user_id, name),
			UNIQUE (user_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS quests (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL COLLATE NOCASE,
			experience_share INTEGER NOT NULL CHECK (experience_share BETWEEN 0 AND 100),
			position INTEGER NOT NULL,
			PRIMARY KEY (user_id, name),
			UNIQUE (user_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS quest_attributes (
			user_id TEXT NOT NULL,
			quest_name TEXT NOT NULL COLLATE NOCASE,
			attribute_name TEXT NOT NULL COLLATE NOCASE,
			attribute_power INTEGER NOT NULL CHECK (attribute_power BETWEEN 1 AND 3),
			PRIMARY KEY (user_id, quest_name, attribute_name),
			FOREIGN KEY (user_id, quest_name) REFERENCES quests(user_id, name) ON DELETE CASCADE,
			FOREIGN KEY (user_id, attribute_name) REFERENCES attributes(user_id, name) ON DELETE CASCADE
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

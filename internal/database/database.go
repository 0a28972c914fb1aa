// Package database provides the Postgres connection, schema setup, and
// the Repository used as session, settings, and leaderboard store.
package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and ensures the schema exists.
func New(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := db.migrateSchema(); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// createTables creates the necessary tables
func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS voice_time (
			user_id TEXT NOT NULL,
			guild_id TEXT NOT NULL,
			total_seconds BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, guild_id)
		)`,
		`CREATE TABLE IF NOT EXISTS vcping_settings (
			guild_id TEXT PRIMARY KEY,
			channel_id TEXT NOT NULL,
			role_id TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS leaderboard_posts (
			guild_id TEXT PRIMARY KEY,
			channel_id TEXT NOT NULL,
			message_id TEXT NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// migrateSchema handles schema migrations from older deployments
func (db *DB) migrateSchema() error {
	migrations := []string{
		// Early deployments tracked whole minutes; convert once.
		`ALTER TABLE voice_time ADD COLUMN IF NOT EXISTS total_seconds BIGINT NOT NULL DEFAULT 0`,
		`UPDATE voice_time SET total_seconds = total_minutes * 60 WHERE total_seconds = 0 AND EXISTS (
			SELECT 1 FROM information_schema.columns WHERE table_name='voice_time' AND column_name='total_minutes'
		)`,
		`ALTER TABLE voice_time DROP COLUMN IF EXISTS total_minutes`,

		// Single-guild deployments stored rows without a guild id.
		`ALTER TABLE voice_time ADD COLUMN IF NOT EXISTS guild_id TEXT`,
		`UPDATE voice_time SET guild_id = COALESCE(guild_id, '')`,
		`ALTER TABLE voice_time ALTER COLUMN guild_id SET NOT NULL`,
	}

	for _, migration := range migrations {
		if _, err := db.conn.Exec(migration); err != nil {
			slog.Warn("schema migration step failed (may be expected)", slog.Any("err", err))
		}
	}

	return nil
}

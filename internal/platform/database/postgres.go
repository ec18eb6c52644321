package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// NewPostgresDB ouvre la connexion PostgreSQL et vérifie qu'elle répond.
func NewPostgresDB(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate crée le schéma s'il n'existe pas encore.
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'USER',
		login_attempts INT NOT NULL DEFAULT 0,
		is_locked BOOLEAN NOT NULL DEFAULT FALSE,
		locked_at TIMESTAMPTZ,
		is_online BOOLEAN NOT NULL DEFAULT FALSE,
		last_login TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		refresh_token TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		refresh_expires_at TIMESTAMPTZ NOT NULL,
		is_valid BOOLEAN NOT NULL DEFAULT TRUE,
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS signalements (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		h3_index TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'NEW',
		progress INT NOT NULL DEFAULT 0,
		surface_area DOUBLE PRECISION,
		level INT NOT NULL DEFAULT 1,
		budget DOUBLE PRECISION NOT NULL DEFAULT 0,
		company TEXT NOT NULL DEFAULT '',
		start_date TIMESTAMPTZ,
		expected_end_date TIMESTAMPTZ,
		actual_end_date TIMESTAMPTZ,
		date_new TIMESTAMPTZ,
		date_in_progress TIMESTAMPTZ,
		date_done TIMESTAMPTZ,
		priority TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		sync_id TEXT NOT NULL UNIQUE,
		is_synced BOOLEAN NOT NULL DEFAULT FALSE,
		local_updated_at TIMESTAMPTZ,
		created_by BIGINT REFERENCES users(id),
		updated_by BIGINT REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signalements_sync_id ON signalements(sync_id)`,
	`CREATE INDEX IF NOT EXISTS idx_signalements_status ON signalements(status) WHERE is_active`,
	`CREATE INDEX IF NOT EXISTS idx_signalements_updated_at ON signalements(updated_at)`,
	`CREATE TABLE IF NOT EXISTS configurations (
		id BIGSERIAL PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		value TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		actor_id BIGINT,
		actor_email TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		target_id TEXT NOT NULL DEFAULT '',
		details TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createAccountsTable,
		createSeatsTable,
		createSessionsTable,
		createSeatsOccupantIndex,
		createSessionsAccountIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts (
    account_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    display_name VARCHAR(100) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'member',
    balance BIGINT NOT NULL DEFAULT 0,
    activity_status VARCHAR(20) NOT NULL DEFAULT 'OFFLINE',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (balance >= 0),
    CHECK (role IN ('member', 'operator')),
    CHECK (activity_status IN ('OFFLINE', 'ONLINE', 'PLAYING'))
);`

const createSeatsTable = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
CREATE TABLE IF NOT EXISTS seats (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    name VARCHAR(100) UNIQUE NOT NULL,
    grid_x INTEGER NOT NULL DEFAULT 0,
    grid_y INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'FREE',
    occupant_id INTEGER REFERENCES accounts(account_id),
    session_start TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('FREE', 'RESERVED', 'OCCUPIED', 'MAINTENANCE', 'LOCKED')),
    CHECK ((occupant_id IS NOT NULL) = (status IN ('RESERVED', 'OCCUPIED')))
);`

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
    id SERIAL PRIMARY KEY,
    seat_id UUID NOT NULL,
    seat_name VARCHAR(100) NOT NULL,
    account_id INTEGER NOT NULL REFERENCES accounts(account_id),
    started_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP NOT NULL,
    elapsed_minutes DOUBLE PRECISION NOT NULL,
    cost BIGINT NOT NULL,
    ended_by VARCHAR(20) NOT NULL
);`

const createSeatsOccupantIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS seats_occupant_active_idx
ON seats (occupant_id)
WHERE status IN ('RESERVED', 'OCCUPIED');`

const createSessionsAccountIndex = `
CREATE INDEX IF NOT EXISTS sessions_account_idx
ON sessions (account_id, ended_at);`

package sqlite

import (
	"context"
	"fmt"
)

// schemaStatements is the full schema, applied idempotently. The slots
// table is the allocation table: occupant is NULL while free, and the
// unique index on (room_id, computer_id, day, timeslot) pins each grid
// cell to exactly one row.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		building_code TEXT NOT NULL,
		room_number INTEGER NOT NULL CHECK (room_number > 0),
		operating_system TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (building_code, room_number)
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL REFERENCES rooms(id),
		computer_id TEXT NOT NULL,
		day TEXT NOT NULL,
		timeslot TEXT NOT NULL,
		occupant TEXT,
		UNIQUE (room_id, computer_id, day, timeslot)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_room_day ON slots (room_id, day)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_occupant ON slots (occupant) WHERE occupant IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		user_name TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		revoked_at TEXT
	)`,
}

// Migrate creates any missing tables and indexes.
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS device_locations (
		id          BIGSERIAL PRIMARY KEY,
		device_id   TEXT NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL,
		received_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS device_locations_latest_idx ON device_locations (device_id, received_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS safe_zones (
		id         TEXT NOT NULL,
		device_id  TEXT NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		latitude   DOUBLE PRECISION NOT NULL,
		longitude  DOUBLE PRECISION NOT NULL,
		radius_m   DOUBLE PRECISION NOT NULL CHECK (radius_m > 0),
		is_active  BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (device_id, id)
	)`,
}

// Migrate creates the location and zone tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

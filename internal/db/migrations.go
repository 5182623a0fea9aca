package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS clients (
		client_id UUID PRIMARY KEY,
		client_alias TEXT NOT NULL,
		no_users INT NOT NULL DEFAULT 0,
		no_complexes INT NOT NULL DEFAULT 0,
		no_parkings INT NOT NULL DEFAULT 0,
		no_floors INT NOT NULL DEFAULT 0,
		no_sensors INT NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS parking (
		parking_id UUID PRIMARY KEY,
		client_id UUID NOT NULL REFERENCES clients (client_id),
		complex TEXT NOT NULL,
		parking_alias TEXT NOT NULL,
		installation_date DATE,
		maintenance_date DATE,
		timezone TEXT NOT NULL DEFAULT 'UTC',
		horario_cierre TIME[]
	);`,
	`CREATE TABLE IF NOT EXISTS levels (
		parking_id UUID NOT NULL REFERENCES parking (parking_id),
		floor INT NOT NULL,
		floor_alias TEXT,
		stage_info JSONB,
		layout_info JSONB,
		PRIMARY KEY (parking_id, floor)
	);`,
	`CREATE TABLE IF NOT EXISTS sensor_info (
		sensor_id UUID PRIMARY KEY,
		parking_id UUID NOT NULL,
		floor INT NOT NULL,
		sensor_alias TEXT NOT NULL,
		konva_id TEXT,
		type TEXT NOT NULL DEFAULT 'parking',
		current_state BOOLEAN NOT NULL DEFAULT FALSE,
		low_battery BOOLEAN NOT NULL DEFAULT FALSE,
		connection_error BOOLEAN NOT NULL DEFAULT FALSE,
		error BOOLEAN NOT NULL DEFAULT FALSE,
		FOREIGN KEY (parking_id, floor) REFERENCES levels (parking_id, floor)
	);`,
	`CREATE TABLE IF NOT EXISTS measurements (
		id BIGSERIAL PRIMARY KEY,
		sensor_id UUID NOT NULL REFERENCES sensor_info (sensor_id),
		timestamp TIMESTAMPTZ NOT NULL,
		state BOOLEAN NOT NULL,
		previous_state_time INTERVAL NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id UUID PRIMARY KEY,
		client_id UUID NOT NULL REFERENCES clients (client_id),
		username TEXT NOT NULL,
		administrator BOOLEAN NOT NULL DEFAULT FALSE
	);`,
	`CREATE TABLE IF NOT EXISTS permissions (
		user_id UUID NOT NULL REFERENCES users (user_id),
		parking_id UUID NOT NULL REFERENCES parking (parking_id),
		PRIMARY KEY (user_id, parking_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_measurements_sensor_ts ON measurements (sensor_id, timestamp);`,
	`CREATE INDEX IF NOT EXISTS idx_measurements_ts ON measurements (timestamp);`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_info_parking_floor ON sensor_info (parking_id, floor);`,
	`CREATE INDEX IF NOT EXISTS idx_permissions_user ON permissions (user_id);`,
	// NOTIFY payload feeds the live websocket hub.
	`CREATE OR REPLACE FUNCTION notify_sensor_status() RETURNS trigger AS $$
	DECLARE
		info RECORD;
	BEGIN
		SELECT parking_id, floor INTO info FROM sensor_info WHERE sensor_id = NEW.sensor_id;
		PERFORM pg_notify('sensor_status', json_build_object(
			'sensor_id', NEW.sensor_id,
			'parking_id', info.parking_id,
			'floor', info.floor,
			'state', NEW.state,
			'timestamp', NEW.timestamp
		)::text);
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_measurements_notify') THEN
			CREATE TRIGGER trg_measurements_notify
			AFTER INSERT ON measurements
			FOR EACH ROW EXECUTE FUNCTION notify_sensor_status();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

package db

import (
	"fmt"

	"gorm.io/gorm"
)

// The tables are owned by the administration side of the platform; these
// statements only make a fresh database usable by the tracker.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS buses (
		id BIGSERIAL PRIMARY KEY,
		bus_id VARCHAR(20) NOT NULL UNIQUE,
		title VARCHAR(100) NOT NULL,
		number VARCHAR(20) NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'active'
	);`,
	`CREATE TABLE IF NOT EXISTS students (
		id BIGSERIAL PRIMARY KEY,
		fname VARCHAR(30) NOT NULL DEFAULT '',
		lname VARCHAR(30) NOT NULL DEFAULT '',
		registration_code VARCHAR(50) NOT NULL DEFAULT '',
		latitude NUMERIC(10,8),
		longitude NUMERIC(11,8)
	);`,
	`CREATE TABLE IF NOT EXISTS bus_routes (
		id BIGSERIAL PRIMARY KEY,
		bus_id BIGINT NOT NULL REFERENCES buses(id) ON DELETE CASCADE,
		route_name VARCHAR(100) NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_bus_routes_bus_id ON bus_routes (bus_id);`,
	`CREATE TABLE IF NOT EXISTS bus_route_points (
		id BIGSERIAL PRIMARY KEY,
		route_id BIGINT NOT NULL REFERENCES bus_routes(id) ON DELETE CASCADE,
		location_name VARCHAR(100) NOT NULL,
		latitude NUMERIC(10,8),
		longitude NUMERIC(11,8),
		"order" INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_bus_route_points_route_order ON bus_route_points (route_id, "order");`,
	`CREATE TABLE IF NOT EXISTS trips (
		id BIGSERIAL PRIMARY KEY,
		bus_id BIGINT NOT NULL REFERENCES buses(id) ON DELETE CASCADE,
		route_id BIGINT NOT NULL REFERENCES bus_routes(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		start_time TIME NOT NULL,
		end_time TIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_bus_date ON trips (bus_id, date, start_time);`,
	`CREATE TABLE IF NOT EXISTS trip_students (
		id BIGSERIAL PRIMARY KEY,
		trip_id BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_trip_students_trip_id ON trip_students (trip_id);`,
	`CREATE TABLE IF NOT EXISTS bus_assignments (
		id BIGSERIAL PRIMARY KEY,
		bus_id BIGINT NOT NULL REFERENCES buses(id) ON DELETE CASCADE,
		student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		assigned_date DATE NOT NULL DEFAULT CURRENT_DATE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_bus_assignments_bus_id ON bus_assignments (bus_id);`,
	`CREATE TABLE IF NOT EXISTS gps_tracking (
		id BIGSERIAL PRIMARY KEY,
		bus_id BIGINT NOT NULL REFERENCES buses(id) ON DELETE CASCADE,
		latitude NUMERIC(10,8) NOT NULL,
		longitude NUMERIC(11,8) NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_gps_tracking_bus_ts ON gps_tracking (bus_id, timestamp DESC, id DESC);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

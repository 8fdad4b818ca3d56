package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the CREATE TABLE statements in dependency order.  Prices are
// stored in integer cents.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		description TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'upcoming',
		expected_attendance INT UNSIGNED NOT NULL DEFAULT 0,
		KEY idx_events_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event_id BIGINT UNSIGNED NOT NULL,
		customer_name VARCHAR(200) NOT NULL,
		ticket_code VARCHAR(100) NOT NULL,
		is_validated TINYINT(1) NOT NULL DEFAULT 0,
		entry_time DATETIME NULL,
		fraud_score DOUBLE NOT NULL DEFAULT 0,
		seat_number VARCHAR(20) NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL DEFAULT 0,
		UNIQUE KEY uq_tickets_code (ticket_code),
		CONSTRAINT fk_tickets_event FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS crowd_zones (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		capacity INT UNSIGNED NOT NULL,
		current_count INT UNSIGNED NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'green',
		last_updated DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS energy_meters (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		location VARCHAR(100) NOT NULL,
		current_usage_kw DOUBLE NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'optimal',
		last_reading_time DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS merchandise_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		category VARCHAR(50) NOT NULL,
		price_cents BIGINT NOT NULL DEFAULT 0,
		stock_quantity INT UNSIGNED NOT NULL DEFAULT 0,
		sold_count INT UNSIGNED NOT NULL DEFAULT 0
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS system_logs (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		created_at DATETIME(6) NOT NULL,
		module VARCHAR(50) NOT NULL,
		level VARCHAR(10) NOT NULL,
		message TEXT NOT NULL,
		KEY idx_system_logs_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(150) NOT NULL,
		email VARCHAR(254) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		UNIQUE KEY uq_sessions_token (token_hash),
		CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

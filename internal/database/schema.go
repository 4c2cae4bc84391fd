package database

import (
	"context"
	"database/sql"
	"fmt"
)

// statements create the three record collections. Each is idempotent
// so EnsureSchema can run on every startup.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id        VARCHAR(64)  NOT NULL PRIMARY KEY,
		password_hash  VARCHAR(100) NOT NULL,
		is_admin       TINYINT(1)   NOT NULL DEFAULT 0,
		is_active      TINYINT(1)   NOT NULL DEFAULT 1,
		assigned_stage VARCHAR(16)  NOT NULL DEFAULT '',
		created_at     DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reports (
		id           VARCHAR(32)  NOT NULL PRIMARY KEY,
		submitted_at DATETIME(3)  NOT NULL,
		stage        VARCHAR(16)  NOT NULL,
		user_id      VARCHAR(64)  NOT NULL,
		device_id    VARCHAR(64)  NOT NULL,
		checkpoints  JSON         NOT NULL,
		INDEX idx_reports_submitted_at (submitted_at),
		INDEX idx_reports_device (device_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS device_statuses (
		device_id        VARCHAR(64) NOT NULL PRIMARY KEY,
		fqc_status       VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		packaging_status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		last_updated     DATETIME(3) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

// SeedAdmin inserts the built-in admin account if no user with id
// "admin" exists yet. The admin is active, stage-exempt and cannot be
// disabled or deleted through the admin directory.
func SeedAdmin(ctx context.Context, db *sql.DB, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`INSERT IGNORE INTO users (user_id, password_hash, is_admin, is_active, assigned_stage)
		 VALUES ('admin', ?, 1, 1, 'FQC')`,
		passwordHash)
	if err != nil {
		return fmt.Errorf("seeding admin user: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: files, payments, invoices, line items",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS files (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					uploaded_at DATETIME NOT NULL,
					status TEXT NOT NULL DEFAULT 'processing',
					posted_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_files_status ON files(status)`,

				`CREATE TABLE IF NOT EXISTS payments (
					id TEXT PRIMARY KEY,
					file_id TEXT NOT NULL,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					reference TEXT,
					counterparty TEXT,
					bank_account_id TEXT,
					amount TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'needs_review',
					applied_rule_id TEXT,
					rule_explanation TEXT,
					issues TEXT,
					expanded INTEGER DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (file_id) REFERENCES files(id)
				)`,
				`CREATE INDEX idx_payments_file ON payments(file_id)`,
				`CREATE INDEX idx_payments_status ON payments(status)`,
				`CREATE INDEX idx_payments_hash ON payments(hash)`,

				`CREATE TABLE IF NOT EXISTS invoices (
					id TEXT PRIMARY KEY,
					payment_id TEXT NOT NULL,
					number TEXT NOT NULL,
					customer_id TEXT,
					customer_name TEXT,
					proposed_amount TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'proposed',
					expanded INTEGER DEFAULT 0,
					position INTEGER NOT NULL DEFAULT 0,
					FOREIGN KEY (payment_id) REFERENCES payments(id)
				)`,
				`CREATE INDEX idx_invoices_payment ON invoices(payment_id)`,

				`CREATE TABLE IF NOT EXISTS line_items (
					id TEXT PRIMARY KEY,
					invoice_id TEXT NOT NULL,
					description TEXT,
					amount TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'proposed',
					match_description TEXT,
					position INTEGER NOT NULL DEFAULT 0,
					FOREIGN KEY (invoice_id) REFERENCES invoices(id)
				)`,
				`CREATE INDEX idx_line_items_invoice ON line_items(invoice_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Rule catalog and open invoice reference data",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS rules (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					description TEXT,
					match_logic TEXT,
					confidence TEXT NOT NULL DEFAULT 'medium',
					matched_count INTEGER DEFAULT 0,
					limitations TEXT
				)`,

				`CREATE TABLE IF NOT EXISTS open_invoices (
					id TEXT PRIMARY KEY,
					number TEXT UNIQUE NOT NULL,
					customer_id TEXT,
					customer_name TEXT,
					outstanding TEXT NOT NULL
				)`,
				`CREATE INDEX idx_open_invoices_number ON open_invoices(number)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Local preference store",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS preferences (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`)
			if err != nil {
				return fmt.Errorf("failed to create preferences table: %w", err)
			}
			return nil
		},
	},
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	var current int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}

		// PRAGMA doesn't support placeholders.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("Applied migration",
			"version", m.Version,
			"description", m.Description)
	}

	return nil
}

package storage

import (
	"context"
	"fmt"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/shopspring/decimal"
)

// SaveOpenInvoices upserts the open receivables the allocation engine
// matches against.
func (s *SQLiteStorage) SaveOpenInvoices(ctx context.Context, invoices []model.OpenInvoice) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO open_invoices (
			id, number, customer_id, customer_name, outstanding
		) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, inv := range invoices {
		if inv.ID == "" || inv.Number == "" {
			return fmt.Errorf("open invoice missing id or number")
		}
		if _, err := stmt.ExecContext(ctx, inv.ID, inv.Number,
			inv.CustomerID, inv.CustomerName, inv.Outstanding.String()); err != nil {
			return fmt.Errorf("failed to save open invoice %s: %w", inv.ID, err)
		}
	}

	return tx.Commit()
}

// GetOpenInvoices returns all open receivables with a positive
// outstanding balance, ordered by invoice number.
func (s *SQLiteStorage) GetOpenInvoices(ctx context.Context) ([]model.OpenInvoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, customer_id, customer_name, outstanding
		FROM open_invoices ORDER BY number
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query open invoices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var invoices []model.OpenInvoice
	for rows.Next() {
		var inv model.OpenInvoice
		var outstanding string
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.CustomerID,
			&inv.CustomerName, &outstanding); err != nil {
			return nil, fmt.Errorf("failed to scan open invoice: %w", err)
		}
		inv.Outstanding, err = decimal.NewFromString(outstanding)
		if err != nil {
			return nil, fmt.Errorf("invalid outstanding on invoice %s: %w", inv.ID, err)
		}
		if inv.Outstanding.IsPositive() {
			invoices = append(invoices, inv)
		}
	}

	return invoices, rows.Err()
}

// ReduceOpenInvoice lowers an open invoice's outstanding balance after
// an allocation is proposed against it.
func (s *SQLiteStorage) ReduceOpenInvoice(ctx context.Context, id string, by decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if by.IsNegative() {
		return fmt.Errorf("reduction cannot be negative")
	}

	row := s.db.QueryRowContext(ctx, `SELECT outstanding FROM open_invoices WHERE id = ?`, id)
	var current string
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("failed to load open invoice %s: %w", id, err)
	}

	outstanding, err := decimal.NewFromString(current)
	if err != nil {
		return fmt.Errorf("invalid outstanding on invoice %s: %w", id, err)
	}

	remaining := outstanding.Sub(by)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE open_invoices SET outstanding = ? WHERE id = ?
	`, remaining.String(), id); err != nil {
		return fmt.Errorf("failed to update open invoice %s: %w", id, err)
	}
	return nil
}

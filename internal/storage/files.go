package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/shopspring/decimal"
)

// SaveFile persists a lockbox file along with its full payment tree in
// a single transaction. Payments already present (same hash) are
// left untouched so re-importing a file is safe.
func (s *SQLiteStorage) SaveFile(ctx context.Context, file *model.File) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFile(file); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO files (id, name, uploaded_at, status)
		VALUES (?, ?, ?, ?)
	`, file.ID, file.Name, file.UploadedAt, string(file.Status))
	if err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}

	for i := range file.Payments {
		if err := savePaymentTx(ctx, tx, file.ID, &file.Payments[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func savePaymentTx(ctx context.Context, tx *sql.Tx, fileID string, p *model.Payment) error {
	if p.ID == "" {
		return fmt.Errorf("payment in file %s has no id", fileID)
	}

	hash := p.GenerateHash()

	issuesJSON := ""
	if len(p.Issues) > 0 {
		b, err := json.Marshal(p.Issues)
		if err != nil {
			return fmt.Errorf("failed to marshal issues for %s: %w", p.ID, err)
		}
		issuesJSON = string(b)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO payments (
			id, file_id, hash, date, reference, counterparty,
			bank_account_id, amount, status, applied_rule_id,
			rule_explanation, issues, expanded
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, fileID, hash, p.Date, p.Reference, p.Counterparty,
		p.BankAccountID, p.Amount.String(), string(p.Status), p.AppliedRuleID,
		p.RuleExplanation, issuesJSON, boolToInt(p.Expanded))
	if err != nil {
		return fmt.Errorf("failed to save payment %s: %w", p.ID, err)
	}

	for pos, inv := range p.Invoices {
		if err := saveInvoiceTx(ctx, tx, p.ID, pos, &inv); err != nil {
			return err
		}
	}
	return nil
}

func saveInvoiceTx(ctx context.Context, tx *sql.Tx, paymentID string, position int, inv *model.Invoice) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO invoices (
			id, payment_id, number, customer_id, customer_name,
			proposed_amount, status, expanded, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.ID, paymentID, inv.Number, inv.CustomerID, inv.CustomerName,
		inv.ProposedAmount.String(), string(inv.Status), boolToInt(inv.Expanded), position)
	if err != nil {
		return fmt.Errorf("failed to save invoice %s: %w", inv.ID, err)
	}

	for pos, line := range inv.LineItems {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO line_items (
				id, invoice_id, description, amount, status,
				match_description, position
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, line.ID, inv.ID, line.Description, line.Amount.String(),
			string(line.Status), line.MatchDescription, pos)
		if err != nil {
			return fmt.Errorf("failed to save line item %s: %w", line.ID, err)
		}
	}
	return nil
}

// GetFile loads a single file with its full payment tree.
func (s *SQLiteStorage) GetFile(ctx context.Context, id string) (*model.File, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, uploaded_at, status, posted_at FROM files WHERE id = ?
	`, id)

	var f model.File
	var status string
	var postedAt sql.NullTime
	if err := row.Scan(&f.ID, &f.Name, &f.UploadedAt, &status, &postedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("file %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load file %s: %w", id, err)
	}
	f.Status = model.FileStatus(status)
	if postedAt.Valid {
		f.PostedAt = &postedAt.Time
	}

	payments, err := s.loadPayments(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	f.Payments = payments

	return &f, nil
}

// GetFiles lists files matching the filter, newest first, each with its
// full payment tree.
func (s *SQLiteStorage) GetFiles(ctx context.Context, filter service.FileFilter) ([]model.File, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, name, uploaded_at, status, posted_at FROM files`
	args := []any{}
	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY uploaded_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []model.File
	for rows.Next() {
		var f model.File
		var status string
		var postedAt sql.NullTime
		if err := rows.Scan(&f.ID, &f.Name, &f.UploadedAt, &status, &postedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		f.Status = model.FileStatus(status)
		if postedAt.Valid {
			f.PostedAt = &postedAt.Time
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate files: %w", err)
	}

	for i := range files {
		payments, err := s.loadPayments(ctx, files[i].ID)
		if err != nil {
			return nil, err
		}
		files[i].Payments = payments
	}

	return files, nil
}

// MarkFilePosted records a successful posting run for the file.
func (s *SQLiteStorage) MarkFilePosted(ctx context.Context, id string, postedAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE files SET status = ?, posted_at = ? WHERE id = ?
	`, string(model.FileStatusPosted), postedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark file posted: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("file %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) loadPayments(ctx context.Context, fileID string) ([]model.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, reference, counterparty, bank_account_id,
		       amount, status, applied_rule_id, rule_explanation,
		       issues, expanded
		FROM payments WHERE file_id = ? ORDER BY id
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	for i := range payments {
		invoices, err := s.loadInvoices(ctx, payments[i].ID)
		if err != nil {
			return nil, err
		}
		payments[i].Invoices = invoices
	}

	return payments, nil
}

func (s *SQLiteStorage) loadInvoices(ctx context.Context, paymentID string) ([]model.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, customer_id, customer_name, proposed_amount,
		       status, expanded
		FROM invoices WHERE payment_id = ? ORDER BY position
	`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var invoices []model.Invoice
	for rows.Next() {
		var inv model.Invoice
		var amount, status string
		var expanded int
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.CustomerID,
			&inv.CustomerName, &amount, &status, &expanded); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv.ProposedAmount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount on invoice %s: %w", inv.ID, err)
		}
		inv.Status = model.AllocationStatus(status)
		inv.Expanded = expanded != 0
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}

	for i := range invoices {
		lines, err := s.loadLineItems(ctx, invoices[i].ID)
		if err != nil {
			return nil, err
		}
		invoices[i].LineItems = lines
	}

	return invoices, nil
}

func (s *SQLiteStorage) loadLineItems(ctx context.Context, invoiceID string) ([]model.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount, status, match_description
		FROM line_items WHERE invoice_id = ? ORDER BY position
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lines []model.LineItem
	for rows.Next() {
		var line model.LineItem
		var amount, status string
		if err := rows.Scan(&line.ID, &line.Description, &amount,
			&status, &line.MatchDescription); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		line.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount on line item %s: %w", line.ID, err)
		}
		line.Status = model.AllocationStatus(status)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line items: %w", err)
	}

	return lines, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

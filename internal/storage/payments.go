package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/shopspring/decimal"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	var p model.Payment
	var amount, status string
	var appliedRuleID, explanation, issuesJSON sql.NullString
	var expanded int

	err := row.Scan(&p.ID, &p.Date, &p.Reference, &p.Counterparty,
		&p.BankAccountID, &amount, &status, &appliedRuleID,
		&explanation, &issuesJSON, &expanded)
	if err != nil {
		return nil, err
	}

	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount on payment %s: %w", p.ID, err)
	}
	p.Status = model.PaymentStatus(status)
	p.AppliedRuleID = appliedRuleID.String
	p.RuleExplanation = explanation.String
	p.Expanded = expanded != 0

	if issuesJSON.Valid && issuesJSON.String != "" {
		if err := json.Unmarshal([]byte(issuesJSON.String), &p.Issues); err != nil {
			return nil, fmt.Errorf("invalid issues on payment %s: %w", p.ID, err)
		}
	}

	return &p, nil
}

// GetPayment loads a single payment with its invoice allocations.
func (s *SQLiteStorage) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, date, reference, counterparty, bank_account_id,
		       amount, status, applied_rule_id, rule_explanation,
		       issues, expanded
		FROM payments WHERE id = ?
	`, id)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load payment %s: %w", id, err)
	}

	invoices, err := s.loadInvoices(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Invoices = invoices

	return p, nil
}

// ExistingPaymentHashes reports which of the given payment hashes are
// already stored. The importer filters against this before matching:
// a re-imported statement mints fresh payment ids, so the hash is the
// only identity that survives across runs.
func (s *SQLiteStorage) ExistingPaymentHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return existing, nil
	}

	query := `SELECT hash FROM payments WHERE hash IN (?` +
		strings.Repeat(",?", len(hashes)-1) + `)`
	args := make([]any, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment hashes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan payment hash: %w", err)
		}
		existing[hash] = true
	}
	return existing, rows.Err()
}

// UpdatePaymentStatus transitions a payment's reconciliation status.
// Approval passes clearIssues to wipe outstanding issue tags in the
// same statement.
func (s *SQLiteStorage) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus, clearIssues bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	query := `UPDATE payments SET status = ? WHERE id = ?`
	if clearIssues {
		query = `UPDATE payments SET status = ?, issues = '' WHERE id = ?`
	}

	result, err := s.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("payment %s: %w", id, common.ErrNotFound)
	}

	if status == model.StatusValid {
		_, err = s.db.ExecContext(ctx, `
			UPDATE invoices SET status = ? WHERE payment_id = ?
		`, string(model.AllocationValid), id)
		if err != nil {
			return fmt.Errorf("failed to validate allocations: %w", err)
		}
	}

	return nil
}

// SavePaymentAllocations replaces a payment's proposed allocations and
// records which rule produced them.
func (s *SQLiteStorage) SavePaymentAllocations(ctx context.Context, paymentID string, invoices []model.Invoice, ruleID, explanation string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(paymentID, "paymentID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Replace existing allocations wholesale.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM line_items WHERE invoice_id IN
			(SELECT id FROM invoices WHERE payment_id = ?)
	`, paymentID); err != nil {
		return fmt.Errorf("failed to clear line items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE payment_id = ?`, paymentID); err != nil {
		return fmt.Errorf("failed to clear invoices: %w", err)
	}

	for pos, inv := range invoices {
		if err := saveInvoiceTx(ctx, tx, paymentID, pos, &inv); err != nil {
			return err
		}
	}

	status := model.StatusProposed
	if len(invoices) == 0 {
		status = model.StatusNeedsReview
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE payments SET status = ?, applied_rule_id = ?, rule_explanation = ?
		WHERE id = ?
	`, string(status), ruleID, explanation, paymentID); err != nil {
		return fmt.Errorf("failed to record applied rule: %w", err)
	}

	return tx.Commit()
}

// AddPaymentIssue appends an issue tag to a payment, ignoring
// duplicates.
func (s *SQLiteStorage) AddPaymentIssue(ctx context.Context, paymentID string, issue model.IssueCode) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	p, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	for _, existing := range p.Issues {
		if existing == issue {
			return nil
		}
	}
	p.Issues = append(p.Issues, issue)

	issuesJSON, err := json.Marshal(p.Issues)
	if err != nil {
		return fmt.Errorf("failed to marshal issues: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE payments SET issues = ? WHERE id = ?
	`, string(issuesJSON), paymentID); err != nil {
		return fmt.Errorf("failed to save issues: %w", err)
	}

	return nil
}

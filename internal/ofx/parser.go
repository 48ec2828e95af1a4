// Package ofx converts bank OFX/QFX statements into lockbox files.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/shopspring/decimal"
)

// Parser implements OFX/QFX lockbox file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, func(match string) string {
		return strings.ToUpper(match)
	})

	// Fix missing closing angle brackets in SGML-style OFX files
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX statement and returns a lockbox file
// containing one payment per credit transaction. Debits are ignored:
// a lockbox only receives money.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader, fileName string) (*model.File, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	processedContent := p.preprocessOFX(string(content))

	resp, err := ofxgo.ParseResponse(strings.NewReader(processedContent))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidImport, err)
	}

	file := &model.File{
		ID:         uuid.NewString(),
		Name:       fileName,
		UploadedAt: time.Now().UTC(),
		Status:     model.FileStatusProcessing,
	}

	var statements, skippedDebits int
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		statements++
		accountID := string(stmt.BankAcctFrom.AcctID)

		for _, ofxTx := range stmt.BankTranList.Transactions {
			payment, credit := p.convertPayment(ofxTx, accountID)
			if !credit {
				skippedDebits++
				continue
			}
			file.Payments = append(file.Payments, payment)
		}
	}

	if statements == 0 {
		return nil, fmt.Errorf("%w: no bank statements", common.ErrInvalidImport)
	}
	if len(file.Payments) == 0 {
		return nil, common.ErrNoPayments
	}

	slog.Info("Parsed lockbox file",
		"file", fileName,
		"payments", len(file.Payments),
		"statements", statements,
		"skipped_debits", skippedDebits)

	return file, nil
}

// convertPayment converts an OFX credit transaction to a payment.
// Returns false when the transaction is a debit.
func (p *Parser) convertPayment(ofxTx ofxgo.Transaction, accountID string) (model.Payment, bool) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.String())
	if err != nil {
		amountFloat, _ := ofxTx.TrnAmt.Float64()
		amount = decimal.NewFromFloat(amountFloat)
	}
	if !amount.IsPositive() {
		return model.Payment{}, false
	}

	payment := model.Payment{
		ID:            string(ofxTx.FiTID),
		Date:          ofxTx.DtPosted.Time,
		Amount:        amount,
		Reference:     p.extractReference(ofxTx),
		Counterparty:  p.extractCounterparty(ofxTx),
		BankAccountID: accountID,
		// The allocation engine decides proposed vs needs_review.
		Status: model.StatusNeedsReview,
	}
	return payment, true
}

// extractReference picks the best remittance reference text.
func (p *Parser) extractReference(tx ofxgo.Transaction) string {
	if tx.Memo != "" {
		return strings.TrimSpace(string(tx.Memo))
	}
	return strings.TrimSpace(string(tx.Name))
}

// extractCounterparty tries to get a clean payer name from OFX data.
func (p *Parser) extractCounterparty(tx ofxgo.Transaction) string {
	// Prefer PAYEE if available (cleaner name)
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := strings.TrimSpace(string(tx.Name))
	if name == "" || isGenericDescription(name) {
		if tx.Memo != "" {
			name = strings.TrimSpace(string(tx.Memo))
		}
	}

	// Remove common inbound-transfer prefixes
	prefixes := []string{
		"ACH CREDIT ",
		"WIRE TRANSFER ",
		"INCOMING WIRE ",
		"DEPOSIT ",
		"LOCKBOX ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	return strings.TrimSpace(name)
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"DEPOSIT",
		"TRANSFER",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}

package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))

	t.Cleanup(func() { _ = s.Close() })
	return s
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedRules(t *testing.T, s *storage.SQLiteStorage) {
	t.Helper()
	ctx := context.Background()

	rules := []model.Rule{
		{
			ID:          "rule-reference",
			Name:        "Remittance reference",
			Description: "invoice number quoted in remittance text",
			MatchLogic:  "reference_exact",
			Confidence:  model.ConfidenceHigh,
		},
		{
			ID:          "rule-amount",
			Name:        "Exact amount",
			Description: "payment equals a single outstanding balance",
			MatchLogic:  "amount_exact",
			Confidence:  model.ConfidenceMedium,
		},
		{
			ID:          "rule-customer",
			Name:        "Single open invoice",
			Description: "payer has exactly one open invoice",
			MatchLogic:  "customer_single_open",
			Confidence:  model.ConfidenceLow,
		},
	}
	for i := range rules {
		require.NoError(t, s.SaveRule(ctx, &rules[i]))
	}
}

func seedOpenInvoices(t *testing.T, s *storage.SQLiteStorage) {
	t.Helper()

	invoices := []model.OpenInvoice{
		{ID: "open-1", Number: "INV-4481", CustomerID: "cust-acme", CustomerName: "ACME INDUSTRIES", Outstanding: dec("1200.00")},
		{ID: "open-2", Number: "INV-4482", CustomerID: "cust-acme", CustomerName: "ACME INDUSTRIES", Outstanding: dec("500.00")},
		{ID: "open-3", Number: "INV-9001", CustomerID: "cust-globex", CustomerName: "GLOBEX CORP", Outstanding: dec("350.25")},
	}
	require.NoError(t, s.SaveOpenInvoices(context.Background(), invoices))
}

func unmatchedPayment(id, amount, reference, counterparty string) model.Payment {
	return model.Payment{
		ID:            id,
		Date:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:        dec(amount),
		Reference:     reference,
		Counterparty:  counterparty,
		BankAccountID: "9988776655",
		Status:        model.StatusNeedsReview,
	}
}

func saveFileWith(t *testing.T, s *storage.SQLiteStorage, payments ...model.Payment) *model.File {
	t.Helper()

	file := &model.File{
		ID:         "file-" + payments[0].ID,
		Name:       "lockbox.ofx",
		UploadedAt: time.Now().UTC(),
		Status:     model.FileStatusProcessing,
		Payments:   payments,
	}
	require.NoError(t, s.SaveFile(context.Background(), file))
	return file
}

func TestProposeByReference(t *testing.T) {
	s := newTestStorage(t)
	seedRules(t, s)
	seedOpenInvoices(t, s)
	ctx := context.Background()

	file := saveFileWith(t, s, unmatchedPayment("pay-1", "1200.00", "INV-4481", "ACME INDUSTRIES"))

	matcher := NewMatcher(s)
	require.NoError(t, matcher.ProposeAllocations(ctx, file))

	saved, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProposed, saved.Status)
	assert.Equal(t, "rule-reference", saved.AppliedRuleID)
	assert.Empty(t, saved.Issues)
	require.Len(t, saved.Invoices, 1)
	assert.Equal(t, "INV-4481", saved.Invoices[0].Number)
	assert.True(t, saved.Invoices[0].ProposedAmount.Equal(dec("1200.00")))
	assert.True(t, saved.UnallocatedAmount().IsZero())

	rule, err := s.GetRuleByID(ctx, "rule-reference")
	require.NoError(t, err)
	assert.Equal(t, 1, rule.MatchedCount)
}

func TestProposeSplitsAcrossReferencedInvoices(t *testing.T) {
	s := newTestStorage(t)
	seedRules(t, s)
	seedOpenInvoices(t, s)
	ctx := context.Background()

	file := saveFileWith(t, s, unmatchedPayment("pay-1", "1700.00", "INV-4481 INV-4482", "ACME INDUSTRIES"))

	matcher := NewMatcher(s)
	require.NoError(t, matcher.ProposeAllocations(ctx, file))

	saved, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	require.Len(t, saved.Invoices, 2)
	assert.True(t, saved.UnallocatedAmount().IsZero())
	assert.Empty(t, saved.Issues)
}

func TestProposeAmountMismatch(t *testing.T) {
	s := newTestStorage(t)
	seedRules(t, s)
	seedOpenInvoices(t, s)
	ctx := context.Background()

	// References an invoice whose outstanding is smaller than the payment.
	file := saveFileWith(t, s, unmatchedPayment("pay-1", "800.00", "INV-4482", "ACME INDUSTRIES"))

	matcher := NewMatcher(s)
	require.NoError(t, matcher.ProposeAllocations(ctx, file))

	saved, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProposed, saved.Status)
	assert.Contains(t, saved.Issues, model.IssueAmountMismatch)
	assert.True(t, saved.UnallocatedAmount().Equal(dec("300.00")))
}

func TestProposeByExactAmount(t *testing.T) {
	s := newTestStorage(t)
	seedRules(t, s)
	seedOpenInvoices(t, s)
	ctx := context.Background()

	// No usable reference; 350.25 matches exactly one outstanding balance.
	file := saveFileWith(t, s, unmatchedPayment("pay-1", "350.25", "WIRE REF XX", "GLOBEX CORP"))

	matcher := NewMatcher(s)
	require.NoError(t, matcher.ProposeAllocations(ctx, file))

	saved, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProposed, saved.Status)
	assert.Equal(t, "rule-amount", saved.AppliedRuleID)
	require.Len(t, saved.Invoices, 1)
	assert.Equal(t, "INV-9001", saved.Invoices[0].Number)
}

func TestNoMatchKnownCustomer(t *testing.T) {
	s := newTestStorage(t)
	seedRules(t, s)
	seedOpenInvoices(t, s)
	ctx := context.Background()

	// ACME has open invoices but nothing matches this payment.
	file := saveFileWith(t, s, unmatchedPayment("pay-1", "75.00", "THANK YOU", "ACME INDUSTRIES"))

	matcher := NewMatcher(s)
	require.NoError(t, matcher.ProposeAllocations(ctx, file))

	saved, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusNeedsReview, saved.Status)
	assert.Contains(t, saved.Issues, model.IssueNoMatchFound)
	assert.Empty(t, saved.Invoices)
}

func TestUnknownCustomer(t *testing.T) {
	s := newTestStorage(t)
	seedRules(t, s)
	seedOpenInvoices(t, s)
	ctx := context.Background()

	file := saveFileWith(t, s, unmatchedPayment("pay-1", "75.00", "THANK YOU", "MYSTERY PAYER"))

	matcher := NewMatcher(s)
	require.NoError(t, matcher.ProposeAllocations(ctx, file))

	saved, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Contains(t, saved.Issues, model.IssueCustomerUnknown)
}

func TestDuplicateReference(t *testing.T) {
	s := newTestStorage(t)
	seedRules(t, s)
	seedOpenInvoices(t, s)
	ctx := context.Background()

	// Two payments both claim INV-4481.
	file := saveFileWith(t, s,
		unmatchedPayment("pay-1", "1200.00", "INV-4481", "ACME INDUSTRIES"),
		unmatchedPayment("pay-2", "600.00", "payment for INV-4481", "ACME INDUSTRIES"))

	matcher := NewMatcher(s)
	require.NoError(t, matcher.ProposeAllocations(ctx, file))

	for _, id := range []string{"pay-1", "pay-2"} {
		saved, err := s.GetPayment(ctx, id)
		require.NoError(t, err)
		assert.Contains(t, saved.Issues, model.IssueDuplicateReference, "payment %s", id)
	}
}

func TestUnknownMatchLogicSkipped(t *testing.T) {
	s := newTestStorage(t)
	seedOpenInvoices(t, s)
	ctx := context.Background()

	rule := model.Rule{
		ID:         "rule-bogus",
		Name:       "Experimental",
		MatchLogic: "not_a_strategy",
		Confidence: model.ConfidenceHigh,
	}
	require.NoError(t, s.SaveRule(ctx, &rule))

	file := saveFileWith(t, s, unmatchedPayment("pay-1", "1200.00", "INV-4481", "ACME INDUSTRIES"))

	matcher := NewMatcher(s)
	require.NoError(t, matcher.ProposeAllocations(ctx, file))

	saved, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusNeedsReview, saved.Status)
}

func TestNormalizeInvoiceNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"INV-4481", "4481"},
		{"inv4481", "4481"},
		{"INV#4481", "4481"},
		{"4481", "4481"},
		{"  INV-4481  ", "4481"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeInvoiceNumber(tt.input), "input %q", tt.input)
	}
}

func TestReferenceTokens(t *testing.T) {
	tokens := referenceTokens("INV-4481 and also 9001, ignore 42")
	assert.True(t, tokens["4481"])
	assert.True(t, tokens["9001"])
	assert.False(t, tokens["42"]) // too short to be an invoice number
}

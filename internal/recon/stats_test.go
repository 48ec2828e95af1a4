package recon

import (
	"fmt"
	"testing"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconciledPayment(id, amount string) model.Payment {
	p := testPayment(id, amount, model.StatusValid)
	p.Invoices = []model.Invoice{
		{ID: "inv-" + id, ProposedAmount: dec(amount), Status: model.AllocationValid},
	}
	return p
}

func TestStats_AggregateCounts(t *testing.T) {
	// Three files, one payment of 100.00 each: two reconciled, one
	// flagged with no_match_found.
	flagged := testPayment("pay-003", "100.00", model.StatusNeedsReview)
	flagged.Issues = []model.IssueCode{model.IssueNoMatchFound}

	a := NewArena([]model.File{
		{ID: "file-001", Payments: []model.Payment{reconciledPayment("pay-001", "100.00")}},
		{ID: "file-002", Payments: []model.Payment{reconciledPayment("pay-002", "100.00")}},
		{ID: "file-003", Payments: []model.Payment{flagged}},
	})

	stats := a.Stats()

	assert.Equal(t, 3, stats.FileCount)
	assert.Equal(t, 3, stats.PaymentCount)
	assert.Equal(t, 2, stats.Reconciled)
	assert.Equal(t, 1, stats.NeedsReview)
	assert.True(t, stats.TotalAmount.Equal(dec("300.00")),
		"total should be 300.00, got %s", stats.TotalAmount)
	assert.Equal(t, "66.67", fmt.Sprintf("%.2f", stats.AllocationRate()))
	assert.False(t, stats.Postable)
}

func TestStats_AllocationRateZeroPayments(t *testing.T) {
	a := NewArena([]model.File{{ID: "file-001"}})

	stats := a.Stats()
	assert.Equal(t, float64(0), stats.AllocationRate(), "empty workspace must report 0, not NaN")
}

func TestStats_PostableGate(t *testing.T) {
	clean := reconciledPayment("pay-001", "250.00")

	// One payment with a remainder of exactly 0.01.
	short := testPayment("pay-002", "100.00", model.StatusValid)
	short.Invoices = []model.Invoice{
		{ID: "inv-pay-002", ProposedAmount: dec("99.99"), Status: model.AllocationValid},
	}

	a := NewArena([]model.File{
		{ID: "file-001", Payments: []model.Payment{clean}},
		{ID: "file-002", Payments: []model.Payment{short}},
	})

	assert.False(t, a.Postable(), "a single 0.01 remainder anywhere blocks posting globally")

	// Fixing the remainder to exactly zero flips the gate.
	fixed := short
	fixed.Invoices = []model.Invoice{
		{ID: "inv-pay-002", ProposedAmount: dec("100.00"), Status: model.AllocationValid},
	}
	b := NewArena([]model.File{
		{ID: "file-001", Payments: []model.Payment{clean}},
		{ID: "file-002", Payments: []model.Payment{fixed}},
	})
	assert.True(t, b.Postable())
}

func TestStats_ProposedPaymentsBlockPosting(t *testing.T) {
	p := testPayment("pay-001", "100.00", model.StatusProposed)
	p.Invoices = []model.Invoice{
		{ID: "inv-001", ProposedAmount: dec("100.00"), Status: model.AllocationProposed},
	}

	a := NewArena([]model.File{{ID: "file-001", Payments: []model.Payment{p}}})

	assert.False(t, a.Postable(),
		"the gate requires strictly valid; proposed renders the same but does not count")
}

func TestStatsForFile(t *testing.T) {
	flagged := testPayment("pay-002", "50.00", model.StatusNeedsReview)
	flagged.Issues = []model.IssueCode{model.IssueCustomerUnknown}

	a := NewArena([]model.File{
		{ID: "file-001", Payments: []model.Payment{reconciledPayment("pay-001", "150.00"), flagged}},
	})

	fs := a.StatsForFile("file-001")
	require.Equal(t, 2, fs.PaymentCount)
	assert.Equal(t, 1, fs.Reconciled)
	assert.Equal(t, 1, fs.NeedsReview)
	assert.True(t, fs.TotalAmount.Equal(dec("200.00")))
}

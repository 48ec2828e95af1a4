package recon

import (
	"testing"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRow_NominalStatuses(t *testing.T) {
	tests := []struct {
		name      string
		status    model.PaymentStatus
		wantClass DisplayClass
		wantLabel string
	}{
		{name: "valid renders allocated", status: model.StatusValid, wantClass: DisplayAllocated, wantLabel: "Allocated"},
		{name: "proposed renders like valid", status: model.StatusProposed, wantClass: DisplayAllocated, wantLabel: "Allocated"},
		{name: "needs_review renders partial", status: model.StatusNeedsReview, wantClass: DisplayNeedsReview, wantLabel: "Partially allocated"},
		{name: "error renders error", status: model.StatusError, wantClass: DisplayError, wantLabel: "Error"},
		{name: "unknown falls back to proposed treatment", status: model.PaymentStatus("archived"), wantClass: DisplayAllocated, wantLabel: "Allocated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPayment("pay-001", "100.00", tt.status)
			a := NewArena([]model.File{{ID: "file-001", Payments: []model.Payment{p}}})

			rows := a.Rows()
			require.Len(t, rows, 1)

			status := a.ClassifyRow(rows[0])
			assert.Equal(t, tt.wantClass, status.Class)
			assert.Equal(t, tt.wantLabel, status.Label)
		})
	}
}

func TestClassifyRow_IssuesOverrideNominalStatus(t *testing.T) {
	// A payment stored as valid but carrying issue tags must still
	// display as needing review; the override beats the status field.
	p := testPayment("pay-001", "100.00", model.StatusValid)
	p.Issues = []model.IssueCode{model.IssueNoMatchFound}

	a := NewArena([]model.File{{ID: "file-001", Payments: []model.Payment{p}}})
	rows := a.Rows()
	require.Len(t, rows, 2) // payment + unallocated remainder

	status := a.ClassifyRow(rows[0])
	assert.Equal(t, DisplayNeedsReview, status.Class)
	assert.Equal(t, "Needs review", status.Label)
}

func TestClassifyRow_IssueOverrideAppliesToChildRows(t *testing.T) {
	p := testPayment("pay-001", "100.00", model.StatusProposed)
	p.Expanded = true
	p.Issues = []model.IssueCode{model.IssueAmountMismatch}
	p.Invoices = []model.Invoice{
		{ID: "inv-001", ProposedAmount: dec("100.00"), Status: model.AllocationProposed},
	}

	a := NewArena([]model.File{{ID: "file-001", Payments: []model.Payment{p}}})
	rows := a.Rows()
	require.Len(t, rows, 2)

	assert.Equal(t, DisplayNeedsReview, a.ClassifyRow(rows[1]).Class,
		"invoice rows under a flagged payment inherit the review class")
}

func TestClassifyRow_UnallocatedRow(t *testing.T) {
	p := testPayment("pay-001", "100.00", model.StatusProposed)
	p.Expanded = true
	p.Invoices = []model.Invoice{
		{ID: "inv-001", ProposedAmount: dec("40.00"), Status: model.AllocationProposed},
	}

	a := NewArena([]model.File{{ID: "file-001", Payments: []model.Payment{p}}})
	rows := a.Rows()
	require.Len(t, rows, 3)

	status := a.ClassifyRow(rows[2])
	assert.Equal(t, DisplayNeedsReview, status.Class)
	assert.Equal(t, "Unallocated", status.Label)
}

func TestFullyAllocated_RequiresAllThreeConditions(t *testing.T) {
	base := func() model.Payment {
		p := testPayment("pay-001", "100.00", model.StatusValid)
		p.Invoices = []model.Invoice{
			{ID: "inv-001", ProposedAmount: dec("100.00"), Status: model.AllocationValid},
		}
		return p
	}

	t.Run("reconciled", func(t *testing.T) {
		p := base()
		assert.True(t, p.FullyAllocated())
	})

	t.Run("proposed does not count", func(t *testing.T) {
		p := base()
		p.Status = model.StatusProposed
		assert.False(t, p.FullyAllocated())
	})

	t.Run("issues disqualify", func(t *testing.T) {
		p := base()
		p.Issues = []model.IssueCode{model.IssueDuplicateReference}
		assert.False(t, p.FullyAllocated())
	})

	t.Run("nonzero remainder disqualifies", func(t *testing.T) {
		p := base()
		p.Invoices[0].ProposedAmount = dec("99.99")
		assert.False(t, p.FullyAllocated())
	})
}

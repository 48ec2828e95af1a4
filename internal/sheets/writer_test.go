package sheets

import (
	"log/slog"
	"testing"
	"time"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testSummary() *service.ReportSummary {
	return &service.ReportSummary{
		GeneratedAt:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		TotalAmount:  dec("1550.25"),
		FileCount:    1,
		PaymentCount: 2,
		Reconciled:   1,
		NeedsReview:  1,
		Postable:     false,
	}
}

func testReportFiles() []model.File {
	return []model.File{
		{
			ID:     "file-1",
			Name:   "lockbox-2026-01.ofx",
			Status: model.FileStatusReady,
			Payments: []model.Payment{
				{
					ID:           "pay-1",
					Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
					Amount:       dec("1200.00"),
					Reference:    "INV-4481",
					Counterparty: "ACME INDUSTRIES",
					Status:       model.StatusValid,
					Invoices: []model.Invoice{
						{ID: "a1", Number: "INV-4481", Status: model.AllocationValid, ProposedAmount: dec("1200.00")},
					},
				},
				{
					ID:           "pay-2",
					Date:         time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
					Amount:       dec("350.25"),
					Reference:    "GLOBEX",
					Counterparty: "GLOBEX CORP",
					Status:       model.StatusProposed,
					Invoices: []model.Invoice{
						{ID: "a2", Number: "INV-9001", Status: model.AllocationProposed, ProposedAmount: dec("200.00")},
					},
				},
			},
		},
	}
}

func TestPrepareReportData(t *testing.T) {
	w := &Writer{config: DefaultConfig(), logger: slog.Default()}

	values := w.prepareReportData(testReportFiles(), testSummary())

	// Title row carries the generation timestamp.
	assert.Equal(t, "Lockbox Reconciliation", values[0][0])

	// Summary block.
	assert.Equal(t, []any{"Total Amount", "1550.25"}, values[3])
	assert.Equal(t, []any{"Postable", "No"}, values[8])

	// Header row for the payment table sits at the fixed offset the
	// formatting request targets.
	assert.Equal(t, "File", values[11][0])

	// One row for the fully allocated payment.
	assert.Equal(t, []any{
		"lockbox-2026-01.ofx", "2026-01-15", "ACME INDUSTRIES", "INV-4481",
		"1200.00", "valid", "INV-4481", "1200.00",
	}, values[12])

	// The partially allocated payment gets an allocation row plus a
	// synthetic UNALLOCATED row for the remainder.
	assert.Equal(t, "INV-9001", values[13][6])
	assert.Equal(t, "UNALLOCATED", values[14][6])
	assert.Equal(t, "150.25", values[14][7])

	require.Len(t, values, 15)
}

func TestPrepareReportDataPaymentWithoutAllocations(t *testing.T) {
	w := &Writer{config: DefaultConfig(), logger: slog.Default()}

	files := []model.File{
		{
			ID:   "file-1",
			Name: "lockbox.ofx",
			Payments: []model.Payment{
				{
					ID:           "pay-1",
					Date:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
					Amount:       dec("75.00"),
					Counterparty: "MYSTERY",
					Status:       model.StatusNeedsReview,
				},
			},
		},
	}
	summary := testSummary()

	values := w.prepareReportData(files, summary)
	last := values[len(values)-1]
	assert.Equal(t, "needs_review", last[5])
	assert.Equal(t, "", last[6])
}

func TestPreparePostableSummary(t *testing.T) {
	w := &Writer{config: DefaultConfig(), logger: slog.Default()}

	summary := testSummary()
	summary.Postable = true

	values := w.prepareReportData(nil, summary)
	assert.Equal(t, []any{"Postable", "Yes"}, values[8])
}

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/ledgerline/lockbox-lens/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reconciledFile saves a file whose single payment is fully allocated
// and approved.
func reconciledFile(t *testing.T, s *storage.SQLiteStorage, fileID, paymentID string) {
	t.Helper()
	ctx := context.Background()

	file := &model.File{
		ID:         fileID,
		Name:       fileID + ".ofx",
		UploadedAt: time.Now().UTC(),
		Status:     model.FileStatusReady,
		Payments: []model.Payment{
			{
				ID:            paymentID,
				Date:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
				Amount:        dec("1200.00"),
				Reference:     "INV-4481",
				Counterparty:  "ACME INDUSTRIES",
				BankAccountID: "9988776655",
				Status:        model.StatusProposed,
				Invoices: []model.Invoice{
					{
						ID:             paymentID + "-alloc",
						Number:         "INV-4481",
						CustomerID:     "cust-acme",
						CustomerName:   "ACME INDUSTRIES",
						Status:         model.AllocationProposed,
						ProposedAmount: dec("1200.00"),
					},
				},
			},
		},
	}
	require.NoError(t, s.SaveFile(ctx, file))
	require.NoError(t, s.UpdatePaymentStatus(ctx, paymentID, model.StatusValid, true))
}

func TestApprove(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	file := saveFileWith(t, s, model.Payment{
		ID:            "pay-1",
		Date:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:        dec("1200.00"),
		Reference:     "INV-4481",
		BankAccountID: "9988776655",
		Status:        model.StatusProposed,
		Issues:        []model.IssueCode{model.IssueAmountMismatch},
		Invoices: []model.Invoice{
			{
				ID:             "alloc-1",
				Number:         "INV-4481",
				Status:         model.AllocationProposed,
				ProposedAmount: dec("1200.00"),
			},
		},
	})
	_ = file

	poster := NewPoster(s)
	require.NoError(t, poster.Approve(ctx, "pay-1"))

	saved, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusValid, saved.Status)
	assert.Empty(t, saved.Issues)
	require.Len(t, saved.Invoices, 1)
	assert.Equal(t, model.AllocationValid, saved.Invoices[0].Status)
}

func TestApproveRefusesOpenRemainder(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveFileWith(t, s, model.Payment{
		ID:            "pay-1",
		Date:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:        dec("1200.00"),
		Reference:     "INV-4481",
		BankAccountID: "9988776655",
		Status:        model.StatusProposed,
		Invoices: []model.Invoice{
			{
				ID:             "alloc-1",
				Number:         "INV-4481",
				Status:         model.AllocationProposed,
				ProposedAmount: dec("500.00"),
			},
		},
	})

	poster := NewPoster(s)
	err := poster.Approve(ctx, "pay-1")
	require.Error(t, err)

	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)

	saved, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProposed, saved.Status)
}

func TestApproveUnknownPayment(t *testing.T) {
	s := newTestStorage(t)

	poster := NewPoster(s)
	err := poster.Approve(context.Background(), "no-such-payment")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReopen(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	reconciledFile(t, s, "file-1", "pay-1")

	poster := NewPoster(s)
	require.NoError(t, poster.Reopen(ctx, "pay-1"))

	saved, err := s.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusNeedsReview, saved.Status)
}

func TestPostAllOrNothing(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	reconciledFile(t, s, "file-1", "pay-1")
	// Second file has an unreconciled payment.
	saveFileWith(t, s, unmatchedPayment("pay-2", "75.00", "THANK YOU", "MYSTERY"))

	poster := NewPoster(s)
	_, err := poster.Post(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotPostable)

	// Nothing was posted.
	files, err := s.GetFiles(ctx, service.FileFilter{})
	require.NoError(t, err)
	for _, f := range files {
		assert.NotEqual(t, model.FileStatusPosted, f.Status)
	}
}

func TestPostSucceedsWhenFullyReconciled(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveOpenInvoices(ctx, []model.OpenInvoice{
		{ID: "open-1", Number: "INV-4481", CustomerID: "cust-acme", CustomerName: "ACME INDUSTRIES", Outstanding: dec("1500.00")},
	}))
	reconciledFile(t, s, "file-1", "pay-1")

	poster := NewPoster(s)
	result, err := poster.Post(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesPosted)
	assert.Equal(t, 1, result.PaymentsPosted)
	assert.True(t, result.Amount.Equal(dec("1200.00")))

	file, err := s.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, model.FileStatusPosted, file.Status)
	assert.NotNil(t, file.PostedAt)

	// Outstanding balance drained by the allocation.
	open, err := s.GetOpenInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.True(t, open[0].Outstanding.Equal(dec("300.00")))

	// A second run has nothing left to post.
	_, err = poster.Post(ctx)
	assert.ErrorIs(t, err, common.ErrNoPayments)
}

func TestSummary(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	reconciledFile(t, s, "file-1", "pay-1")
	saveFileWith(t, s, unmatchedPayment("pay-2", "75.00", "THANK YOU", "MYSTERY"))

	poster := NewPoster(s)
	summary, err := poster.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.FileCount)
	assert.Equal(t, 2, summary.PaymentCount)
	assert.Equal(t, 1, summary.Reconciled)
	assert.Equal(t, 1, summary.NeedsReview)
	assert.False(t, summary.Postable)
	assert.True(t, summary.TotalAmount.Equal(dec("1275.00")))
}

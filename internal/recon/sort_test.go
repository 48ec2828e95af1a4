package recon

import (
	"testing"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortPayments_PriorityClassOrdering(t *testing.T) {
	payments := []model.Payment{
		testPayment("pay-b", "10.00", model.StatusValid),
		testPayment("pay-a", "10.00", model.StatusProposed),
		testPayment("pay-c", "10.00", model.StatusNeedsReview),
	}

	SortPayments(payments)

	require.Len(t, payments, 3)
	assert.Equal(t, "pay-c", payments[0].ID, "needs_review sorts first")
	assert.Equal(t, "pay-a", payments[1].ID, "proposed sorts second")
	assert.Equal(t, "pay-b", payments[2].ID, "valid sorts last")
}

func TestSortPayments_IssuesForceReviewClass(t *testing.T) {
	flagged := testPayment("pay-z", "10.00", model.StatusValid)
	flagged.Issues = []model.IssueCode{model.IssueAmountMismatch}

	payments := []model.Payment{
		testPayment("pay-a", "10.00", model.StatusProposed),
		flagged,
	}

	SortPayments(payments)

	assert.Equal(t, "pay-z", payments[0].ID,
		"a valid payment with issues outranks a clean proposed one")
}

func TestSortPayments_LexicographicTiebreak(t *testing.T) {
	payments := []model.Payment{
		testPayment("pay-3", "10.00", model.StatusValid),
		testPayment("pay-1", "10.00", model.StatusValid),
		testPayment("pay-2", "10.00", model.StatusValid),
	}

	SortPayments(payments)

	assert.Equal(t, "pay-1", payments[0].ID)
	assert.Equal(t, "pay-2", payments[1].ID)
	assert.Equal(t, "pay-3", payments[2].ID)

	// Re-sorting must not reorder equal-class entries.
	SortPayments(payments)
	assert.Equal(t, "pay-1", payments[0].ID)
	assert.Equal(t, "pay-2", payments[1].ID)
	assert.Equal(t, "pay-3", payments[2].ID)
}

func TestSortPayments_ErrorStatusSortsWithDefaultClass(t *testing.T) {
	payments := []model.Payment{
		testPayment("pay-c", "10.00", model.PaymentStatus("pending_upload")),
		testPayment("pay-b", "10.00", model.StatusError),
		testPayment("pay-a", "10.00", model.StatusValid),
	}

	SortPayments(payments)

	assert.Equal(t, "pay-a", payments[0].ID)
	assert.Equal(t, "pay-b", payments[1].ID,
		"error is a recognized status and shares the default class with valid")
	assert.Equal(t, "pay-c", payments[2].ID,
		"only unrecognized statuses sort behind every known class")
}

func TestSortPayments_UnrecognizedStatusSortsLast(t *testing.T) {
	odd := testPayment("pay-a", "10.00", model.PaymentStatus("pending_upload"))

	payments := []model.Payment{
		odd,
		testPayment("pay-z", "10.00", model.StatusValid),
	}

	SortPayments(payments)

	assert.Equal(t, "pay-z", payments[0].ID)
	assert.Equal(t, "pay-a", payments[1].ID,
		"unknown status sorts after every known class despite the lower id")
}

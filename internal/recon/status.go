package recon

import (
	"github.com/ledgerline/lockbox-lens/internal/model"
)

// DisplayClass is the severity tier a row renders with.
type DisplayClass int

// Display classes.
const (
	// DisplayAllocated covers valid and proposed rows; the two are
	// deliberately rendered the same.
	DisplayAllocated DisplayClass = iota
	// DisplayNeedsReview covers partially allocated rows and anything
	// carrying issue tags.
	DisplayNeedsReview
	// DisplayError covers payments the importer could not decode.
	DisplayError
)

// DisplayStatus is the label and severity tier a row renders with.
type DisplayStatus struct {
	Label string
	Class DisplayClass
}

// Display statuses.
var (
	statusAllocated   = DisplayStatus{Label: "Allocated", Class: DisplayAllocated}
	statusPartial     = DisplayStatus{Label: "Partially allocated", Class: DisplayNeedsReview}
	statusNeedsReview = DisplayStatus{Label: "Needs review", Class: DisplayNeedsReview}
	statusError       = DisplayStatus{Label: "Error", Class: DisplayError}
	statusUnallocated = DisplayStatus{Label: "Unallocated", Class: DisplayNeedsReview}
)

// ClassifyRow derives the display status for a flattened row without
// mutating anything. Issue tags on the owning payment override the
// nominal status; otherwise the row's own status field governs.
func (a *Arena) ClassifyRow(row Row) DisplayStatus {
	if owner, ok := a.payments[row.PaymentID]; ok && len(owner.Issues) > 0 {
		return statusNeedsReview
	}

	switch row.Kind {
	case RowPayment:
		return classifyPaymentStatus(row.Payment.Status)
	case RowInvoice:
		return classifyAllocationStatus(row.Invoice.Status)
	case RowLineItem:
		return classifyAllocationStatus(row.Line.Status)
	case RowUnallocated:
		return statusUnallocated
	default:
		return statusPartial
	}
}

func classifyPaymentStatus(status model.PaymentStatus) DisplayStatus {
	switch status {
	case model.StatusValid:
		return statusAllocated
	case model.StatusProposed:
		// Proposed is treated like valid for display purposes.
		return statusAllocated
	case model.StatusNeedsReview:
		return statusPartial
	case model.StatusError:
		return statusError
	default:
		return statusAllocated
	}
}

func classifyAllocationStatus(status model.AllocationStatus) DisplayStatus {
	switch status {
	case model.AllocationValid, model.AllocationProposed:
		return statusAllocated
	default:
		return statusAllocated
	}
}

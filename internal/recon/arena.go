// Package recon implements the reconciliation table view-model: an
// entity arena over the lockbox file tree, a hierarchical flattener
// producing display rows, per-row status classification, selection and
// skip bookkeeping, and aggregate statistics. It holds no rendering
// concerns; the TUI layer consumes its output.
package recon

import (
	"github.com/ledgerline/lockbox-lens/internal/model"
)

// Arena indexes the file tree by entity id so that expand flags and
// status updates are O(1) keyed operations instead of full-tree
// rewrites. Expand state lives beside the entities, never inside them,
// so toggling a node does not mutate domain data.
type Arena struct {
	files     map[string]model.File
	payments  map[string]model.Payment
	fileOrder []string

	// Parent/child references.
	filePayments map[string][]string
	paymentFile  map[string]string

	expanded map[string]bool
}

// NewArena builds an arena from an ordered list of files. Initial
// expand flags are taken from the entities themselves; afterwards the
// arena's flags are authoritative.
func NewArena(files []model.File) *Arena {
	a := &Arena{
		files:        make(map[string]model.File, len(files)),
		payments:     make(map[string]model.Payment),
		fileOrder:    make([]string, 0, len(files)),
		filePayments: make(map[string][]string, len(files)),
		paymentFile:  make(map[string]string),
		expanded:     make(map[string]bool),
	}

	for _, f := range files {
		a.fileOrder = append(a.fileOrder, f.ID)
		a.expanded[f.ID] = true // files are always drilled into

		paymentIDs := make([]string, 0, len(f.Payments))
		for _, p := range f.Payments {
			paymentIDs = append(paymentIDs, p.ID)
			a.paymentFile[p.ID] = f.ID
			a.expanded[p.ID] = p.Expanded
			for _, inv := range p.Invoices {
				a.expanded[inv.ID] = inv.Expanded
			}
			a.payments[p.ID] = p
		}
		a.filePayments[f.ID] = paymentIDs

		// Store the file without its payment slice; the index maps
		// carry the relationship.
		f.Payments = nil
		a.files[f.ID] = f
	}

	return a
}

// File returns the file with the given id.
func (a *Arena) File(id string) (model.File, bool) {
	f, ok := a.files[id]
	return f, ok
}

// Payment returns the payment with the given id.
func (a *Arena) Payment(id string) (model.Payment, bool) {
	p, ok := a.payments[id]
	return p, ok
}

// FileIDs returns the file ids in display order.
func (a *Arena) FileIDs() []string {
	ids := make([]string, len(a.fileOrder))
	copy(ids, a.fileOrder)
	return ids
}

// PaymentIDs returns every payment id across all files, in file order
// then within-file order. This is the selection universe for
// select-all, independent of what is currently expanded.
func (a *Arena) PaymentIDs() []string {
	var ids []string
	for _, fileID := range a.fileOrder {
		ids = append(ids, a.filePayments[fileID]...)
	}
	return ids
}

// FilePaymentIDs returns the payment ids belonging to a file, in
// stored order (unsorted; the flattener applies the sort policy).
func (a *Arena) FilePaymentIDs(fileID string) []string {
	src := a.filePayments[fileID]
	ids := make([]string, len(src))
	copy(ids, src)
	return ids
}

// OwningFile returns the id of the file containing the payment.
func (a *Arena) OwningFile(paymentID string) (string, bool) {
	id, ok := a.paymentFile[paymentID]
	return id, ok
}

// Expanded reports the expand flag for a node id.
func (a *Arena) Expanded(id string) bool {
	return a.expanded[id]
}

// ToggleExpand flips the expand flag for a node id.
func (a *Arena) ToggleExpand(id string) {
	a.expanded[id] = !a.expanded[id]
}

// ApprovePayment transitions a payment from review into the valid
// state. Approval clears outstanding issues and marks the proposed
// allocations valid. The stored value is replaced wholesale so callers
// holding earlier copies are unaffected.
func (a *Arena) ApprovePayment(id string) bool {
	p, ok := a.payments[id]
	if !ok {
		return false
	}

	p.Status = model.StatusValid
	p.Issues = nil
	invoices := make([]model.Invoice, len(p.Invoices))
	copy(invoices, p.Invoices)
	for i := range invoices {
		invoices[i].Status = model.AllocationValid
	}
	p.Invoices = invoices

	a.payments[id] = p
	return true
}

// ReopenPayment sends a valid payment back for review.
func (a *Arena) ReopenPayment(id string) bool {
	p, ok := a.payments[id]
	if !ok || p.Status != model.StatusValid {
		return false
	}
	p.Status = model.StatusNeedsReview
	a.payments[id] = p
	return true
}

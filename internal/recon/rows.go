package recon

import (
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/shopspring/decimal"
)

// RowKind discriminates the variants of a flattened table row.
type RowKind int

// Row kinds.
const (
	RowPayment RowKind = iota
	RowInvoice
	RowLineItem
	RowUnallocated
)

// Row is one entry in the flattened reconciliation table. Exactly one
// of Payment/Invoice/Line is populated according to Kind; Unallocated
// rows carry only an amount. The id back-references identify the
// owning entities for event handling.
type Row struct {
	Payment   *model.Payment
	Invoice   *model.Invoice
	Line      *model.LineItem
	FileID    string
	PaymentID string
	InvoiceID string
	Amount    decimal.Decimal
	Kind      RowKind
	Level     int
}

// Rows flattens the file tree into an ordered list of display rows,
// honoring the arena's expand flags. Payments within a file are
// ordered by the sort policy. The result is freshly allocated on every
// call; the arena is not mutated.
func (a *Arena) Rows() []Row {
	var rows []Row

	for _, fileID := range a.fileOrder {
		payments := make([]model.Payment, 0, len(a.filePayments[fileID]))
		for _, pid := range a.filePayments[fileID] {
			payments = append(payments, a.payments[pid])
		}
		SortPayments(payments)

		for i := range payments {
			rows = append(rows, a.paymentRows(fileID, &payments[i])...)
		}
	}

	return rows
}

// FileRows flattens a single file's subtree.
func (a *Arena) FileRows(fileID string) []Row {
	payments := make([]model.Payment, 0, len(a.filePayments[fileID]))
	for _, pid := range a.filePayments[fileID] {
		payments = append(payments, a.payments[pid])
	}
	SortPayments(payments)

	var rows []Row
	for i := range payments {
		rows = append(rows, a.paymentRows(fileID, &payments[i])...)
	}
	return rows
}

func (a *Arena) paymentRows(fileID string, p *model.Payment) []Row {
	payment := *p
	rows := []Row{{
		Kind:      RowPayment,
		Level:     0,
		FileID:    fileID,
		PaymentID: payment.ID,
		Payment:   &payment,
		Amount:    payment.Amount,
	}}

	if !a.expanded[payment.ID] {
		return rows
	}

	for i := range payment.Invoices {
		inv := payment.Invoices[i]
		rows = append(rows, Row{
			Kind:      RowInvoice,
			Level:     1,
			FileID:    fileID,
			PaymentID: payment.ID,
			InvoiceID: inv.ID,
			Invoice:   &inv,
			Amount:    inv.ProposedAmount,
		})

		if !a.expanded[inv.ID] {
			continue
		}
		for j := range inv.LineItems {
			line := inv.LineItems[j]
			rows = append(rows, Row{
				Kind:      RowLineItem,
				Level:     2,
				FileID:    fileID,
				PaymentID: payment.ID,
				InvoiceID: inv.ID,
				Line:      &line,
				Amount:    line.Amount,
			})
		}
	}

	if remainder := payment.UnallocatedAmount(); remainder.IsPositive() {
		rows = append(rows, Row{
			Kind:      RowUnallocated,
			Level:     1,
			FileID:    fileID,
			PaymentID: payment.ID,
			Amount:    remainder,
		})
	}

	return rows
}

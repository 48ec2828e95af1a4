package model

import "github.com/shopspring/decimal"

// AllocationStatus represents the state of a proposed invoice allocation.
type AllocationStatus string

// Allocation statuses.
const (
	AllocationProposed AllocationStatus = "proposed"
	AllocationValid    AllocationStatus = "valid"
)

// Invoice is an allocation target within a payment: (part of) the
// payment's amount applied against a customer invoice.
type Invoice struct {
	ID             string
	Number         string
	CustomerID     string
	CustomerName   string
	Status         AllocationStatus
	LineItems      []LineItem
	ProposedAmount decimal.Decimal
	Expanded       bool
}

// LineItem is a single line within an invoice allocation.
type LineItem struct {
	ID          string
	Description string
	Status      AllocationStatus
	// MatchDescription explains why the allocation engine proposed this
	// line, when it did.
	MatchDescription string
	Amount           decimal.Decimal
}

// OpenInvoice is an unpaid receivable the allocation engine matches
// payments against. Reference data maintained outside the review flow.
type OpenInvoice struct {
	ID           string
	Number       string
	CustomerID   string
	CustomerName string
	Outstanding  decimal.Decimal
}

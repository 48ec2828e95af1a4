package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the reconciliation state of a payment.
type PaymentStatus string

// Payment statuses. A payment enters as proposed (rule matcher found
// allocations) or needs_review (it did not); an operator approval moves
// it to valid. Error is reserved for payments the importer could not
// fully decode.
const (
	StatusNeedsReview PaymentStatus = "needs_review"
	StatusProposed    PaymentStatus = "proposed"
	StatusValid       PaymentStatus = "valid"
	StatusError       PaymentStatus = "error"
)

// IssueCode tags a problem the allocation engine found with a payment.
type IssueCode string

// Issue codes.
const (
	IssueNoMatchFound       IssueCode = "no_match_found"
	IssueAmountMismatch     IssueCode = "amount_mismatch"
	IssueDuplicateReference IssueCode = "duplicate_reference"
	IssueCustomerUnknown    IssueCode = "customer_unknown"
)

// Payment is a single monetary inflow within a lockbox file.
type Payment struct {
	Date            time.Time
	ID              string
	Reference       string // Free-text remittance reference from the bank
	Counterparty    string
	BankAccountID   string
	Status          PaymentStatus
	AppliedRuleID   string
	RuleExplanation string
	Issues          []IssueCode
	Invoices        []Invoice
	Amount          decimal.Decimal
	Expanded        bool
}

// UnallocatedAmount returns the portion of the payment not yet assigned
// to any invoice: amount minus the sum of proposed allocations, clamped
// at zero.
func (p *Payment) UnallocatedAmount() decimal.Decimal {
	allocated := decimal.Zero
	for i := range p.Invoices {
		allocated = allocated.Add(p.Invoices[i].ProposedAmount)
	}
	remainder := p.Amount.Sub(allocated)
	if remainder.IsNegative() {
		return decimal.Zero
	}
	return remainder
}

// NeedsReview reports whether the payment requires operator attention.
// Any issue tag forces review regardless of the nominal status.
func (p *Payment) NeedsReview() bool {
	return p.Status == StatusNeedsReview || len(p.Issues) > 0
}

// FullyAllocated reports whether the payment is reconciled: valid, no
// outstanding issues, and a remainder of exactly zero. All three
// conditions are required.
func (p *Payment) FullyAllocated() bool {
	return p.Status == StatusValid && len(p.Issues) == 0 && p.UnallocatedAmount().IsZero()
}

// GenerateHash creates a unique hash for duplicate detection on import.
func (p *Payment) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		p.Date.Format("2006-01-02"),
		p.Amount.StringFixed(2),
		p.Reference,
		p.BankAccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Package engine implements the allocation engine that matches lockbox
// payments against open invoices and moves them through the review
// state machine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/shopspring/decimal"
)

// Matcher proposes invoice allocations for newly imported payments.
type Matcher struct {
	storage service.Storage
}

// NewMatcher creates an allocation matcher backed by the given storage.
func NewMatcher(storage service.Storage) *Matcher {
	return &Matcher{storage: storage}
}

// invoiceRefPattern recognizes invoice numbers inside free-text
// remittance references, e.g. "INV-4481" or "4481".
var invoiceRefPattern = regexp.MustCompile(`(?i)\b(?:INV[-#]?)?(\d{3,})\b`)

// matchStrategy tries to produce allocations for one payment. A nil
// result means the strategy does not apply.
type matchStrategy func(p *model.Payment, open []model.OpenInvoice) []model.Invoice

// strategies maps rule MatchLogic values to their implementations.
// Rules whose MatchLogic names no strategy are skipped.
var strategies = map[string]matchStrategy{
	"reference_exact":      matchByReference,
	"amount_exact":         matchByAmount,
	"customer_single_open": matchByCustomer,
}

// tierOrder sorts rules high-confidence first.
var tierOrder = map[model.ConfidenceTier]int{
	model.ConfidenceHigh:   0,
	model.ConfidenceMedium: 1,
	model.ConfidenceLow:    2,
}

// ProposeAllocations runs every needs_review payment in the file
// through the rule catalog and stores whatever allocations the first
// matching rule produces. Payments nothing matches are tagged with an
// issue and stay in needs_review.
func (m *Matcher) ProposeAllocations(ctx context.Context, file *model.File) error {
	open, err := m.storage.GetOpenInvoices(ctx)
	if err != nil {
		return fmt.Errorf("failed to load open invoices: %w", err)
	}

	rules, err := m.storage.GetRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return tierOrder[rules[i].Confidence] < tierOrder[rules[j].Confidence]
	})

	referencedInvoices := countReferencedInvoices(file.Payments, open)

	var proposed, unmatched int
	for i := range file.Payments {
		p := &file.Payments[i]
		if p.Status != model.StatusNeedsReview {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		matched, err := m.matchPayment(ctx, p, open, rules)
		if err != nil {
			return err
		}
		if matched {
			proposed++
		} else {
			unmatched++
		}

		if err := m.tagIssues(ctx, p, open, referencedInvoices); err != nil {
			return err
		}
	}

	slog.Info("Allocation proposals complete",
		"file", file.ID,
		"proposed", proposed,
		"unmatched", unmatched)
	return nil
}

// matchPayment tries rules in confidence order; the first one that
// yields allocations wins.
func (m *Matcher) matchPayment(ctx context.Context, p *model.Payment, open []model.OpenInvoice, rules []model.Rule) (bool, error) {
	for _, rule := range rules {
		strategy, ok := strategies[rule.MatchLogic]
		if !ok {
			slog.Debug("Skipping rule with unknown match logic",
				"rule", rule.ID, "match_logic", rule.MatchLogic)
			continue
		}

		allocations := strategy(p, open)
		if len(allocations) == 0 {
			continue
		}

		explanation := fmt.Sprintf("%s: %s", rule.Name, rule.Description)
		if err := m.storage.SavePaymentAllocations(ctx, p.ID, allocations, rule.ID, explanation); err != nil {
			return false, fmt.Errorf("failed to save allocations for payment %s: %w", p.ID, err)
		}
		if err := m.storage.IncrementRuleMatchCount(ctx, rule.ID); err != nil {
			// A missing rule row is tolerable; the allocation stands.
			if !errors.Is(err, common.ErrNotFound) {
				return false, err
			}
		}

		p.Invoices = allocations
		p.Status = model.StatusProposed
		p.AppliedRuleID = rule.ID
		p.RuleExplanation = explanation
		return true, nil
	}
	return false, nil
}

// tagIssues records why a payment still needs attention.
func (m *Matcher) tagIssues(ctx context.Context, p *model.Payment, open []model.OpenInvoice, referenced map[string]int) error {
	var issues []model.IssueCode

	if len(p.Invoices) == 0 {
		if knownCustomer(p.Counterparty, open) {
			issues = append(issues, model.IssueNoMatchFound)
		} else {
			issues = append(issues, model.IssueCustomerUnknown)
		}
	} else {
		if !p.UnallocatedAmount().IsZero() {
			issues = append(issues, model.IssueAmountMismatch)
		}
		for _, inv := range p.Invoices {
			if referenced[inv.Number] > 1 {
				issues = append(issues, model.IssueDuplicateReference)
				break
			}
		}
	}

	for _, issue := range issues {
		if err := m.storage.AddPaymentIssue(ctx, p.ID, issue); err != nil {
			return fmt.Errorf("failed to record issue for payment %s: %w", p.ID, err)
		}
		p.Issues = append(p.Issues, issue)
	}
	return nil
}

// matchByReference allocates against every open invoice whose number
// appears in the payment's remittance reference. Allocations are capped
// by the remaining payment amount.
func matchByReference(p *model.Payment, open []model.OpenInvoice) []model.Invoice {
	tokens := referenceTokens(p.Reference)
	if len(tokens) == 0 {
		return nil
	}

	remaining := p.Amount
	var allocations []model.Invoice
	for _, inv := range open {
		if !tokens[normalizeInvoiceNumber(inv.Number)] {
			continue
		}
		amount := inv.Outstanding
		if amount.GreaterThan(remaining) {
			amount = remaining
		}
		allocations = append(allocations, proposedAllocation(inv, amount,
			fmt.Sprintf("invoice %s referenced in remittance text", inv.Number)))
		remaining = remaining.Sub(amount)
		if !remaining.IsPositive() {
			break
		}
	}
	return allocations
}

// matchByAmount allocates when exactly one open invoice's outstanding
// balance equals the payment amount.
func matchByAmount(p *model.Payment, open []model.OpenInvoice) []model.Invoice {
	var match *model.OpenInvoice
	for i := range open {
		if open[i].Outstanding.Equal(p.Amount) {
			if match != nil {
				return nil // ambiguous
			}
			match = &open[i]
		}
	}
	if match == nil {
		return nil
	}
	return []model.Invoice{proposedAllocation(*match, p.Amount,
		fmt.Sprintf("payment amount equals outstanding balance of %s", match.Number))}
}

// matchByCustomer allocates when the payer has exactly one open invoice
// and it covers the payment.
func matchByCustomer(p *model.Payment, open []model.OpenInvoice) []model.Invoice {
	if p.Counterparty == "" {
		return nil
	}
	var match *model.OpenInvoice
	for i := range open {
		if !strings.EqualFold(open[i].CustomerName, p.Counterparty) {
			continue
		}
		if match != nil {
			return nil // multiple open invoices, ambiguous
		}
		match = &open[i]
	}
	if match == nil || match.Outstanding.LessThan(p.Amount) {
		return nil
	}
	return []model.Invoice{proposedAllocation(*match, p.Amount,
		fmt.Sprintf("single open invoice for customer %s", match.CustomerName))}
}

// proposedAllocation builds a proposed invoice allocation with a single
// line item carrying the match explanation.
func proposedAllocation(inv model.OpenInvoice, amount decimal.Decimal, why string) model.Invoice {
	return model.Invoice{
		ID:             uuid.NewString(),
		Number:         inv.Number,
		CustomerID:     inv.CustomerID,
		CustomerName:   inv.CustomerName,
		Status:         model.AllocationProposed,
		ProposedAmount: amount,
		LineItems: []model.LineItem{
			{
				ID:               uuid.NewString(),
				Description:      fmt.Sprintf("Apply to %s", inv.Number),
				Status:           model.AllocationProposed,
				MatchDescription: why,
				Amount:           amount,
			},
		},
	}
}

// referenceTokens extracts normalized invoice-number candidates from
// free-text remittance data.
func referenceTokens(reference string) map[string]bool {
	tokens := make(map[string]bool)
	for _, m := range invoiceRefPattern.FindAllStringSubmatch(reference, -1) {
		tokens[m[1]] = true
	}
	return tokens
}

// normalizeInvoiceNumber strips the INV prefix so "INV-4481", "INV4481"
// and "4481" all compare equal.
func normalizeInvoiceNumber(number string) string {
	n := strings.ToUpper(strings.TrimSpace(number))
	n = strings.TrimPrefix(n, "INV")
	n = strings.TrimLeft(n, "-#")
	return n
}

// knownCustomer reports whether the counterparty matches any customer
// with open invoices.
func knownCustomer(counterparty string, open []model.OpenInvoice) bool {
	if counterparty == "" {
		return false
	}
	for _, inv := range open {
		if strings.EqualFold(inv.CustomerName, counterparty) {
			return true
		}
	}
	return false
}

// countReferencedInvoices counts how many payments in the file
// reference each open invoice number, to flag duplicate claims.
func countReferencedInvoices(payments []model.Payment, open []model.OpenInvoice) map[string]int {
	counts := make(map[string]int)
	for i := range payments {
		tokens := referenceTokens(payments[i].Reference)
		for _, inv := range open {
			if tokens[normalizeInvoiceNumber(inv.Number)] {
				counts[inv.Number]++
			}
		}
	}
	return counts
}

package recon

import (
	"sort"

	"github.com/ledgerline/lockbox-lens/internal/model"
)

// Priority classes for review ordering. Lower sorts first.
const (
	classNeedsReview = 0
	classProposed    = 1
	classValid       = 2
	classUnknown     = 99
)

// priorityClass buckets a payment by how urgently it needs attention.
// Any issue tag forces the needs-review class regardless of status.
// Recognized statuses other than needs_review/proposed fall into the
// default valid class; only values outside the status enum sort to the
// back.
func priorityClass(p *model.Payment) int {
	if p.Status == model.StatusNeedsReview || len(p.Issues) > 0 {
		return classNeedsReview
	}
	switch p.Status {
	case model.StatusProposed:
		return classProposed
	case model.StatusValid, model.StatusError:
		return classValid
	default:
		return classUnknown
	}
}

// SortPayments orders payments in place: review-priority class first,
// then payment id lexicographically. The id tiebreak yields a total
// order, so positions are stable across re-renders.
func SortPayments(payments []model.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		ci, cj := priorityClass(&payments[i]), priorityClass(&payments[j])
		if ci != cj {
			return ci < cj
		}
		return payments[i].ID < payments[j].ID
	})
}

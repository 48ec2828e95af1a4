package recon

import (
	"github.com/shopspring/decimal"
)

// FileStats aggregates per-file reconciliation counts.
type FileStats struct {
	TotalAmount  decimal.Decimal
	PaymentCount int
	Reconciled   int
	NeedsReview  int
}

// GlobalStats aggregates counts across every file in the arena.
type GlobalStats struct {
	TotalAmount  decimal.Decimal
	FileCount    int
	PaymentCount int
	Reconciled   int
	NeedsReview  int
	// Postable is true only when every payment in every file is
	// strictly valid with no issues and a zero remainder. One
	// disqualifying payment anywhere blocks posting globally.
	Postable bool
}

// AllocationRate returns the reconciled share as a percentage.
// Zero payments yields 0, never NaN.
func (g GlobalStats) AllocationRate() float64 {
	if g.PaymentCount == 0 {
		return 0
	}
	return float64(g.Reconciled) / float64(g.PaymentCount) * 100
}

// Stats computes global statistics over the full file tree.
func (a *Arena) Stats() GlobalStats {
	stats := GlobalStats{
		TotalAmount: decimal.Zero,
		FileCount:   len(a.fileOrder),
		Postable:    true,
	}

	for _, fileID := range a.fileOrder {
		fs := a.StatsForFile(fileID)
		stats.PaymentCount += fs.PaymentCount
		stats.Reconciled += fs.Reconciled
		stats.NeedsReview += fs.NeedsReview
		stats.TotalAmount = stats.TotalAmount.Add(fs.TotalAmount)
	}

	if stats.Reconciled != stats.PaymentCount {
		stats.Postable = false
	}
	return stats
}

// StatsForFile computes statistics for a single file.
func (a *Arena) StatsForFile(fileID string) FileStats {
	fs := FileStats{TotalAmount: decimal.Zero}
	for _, pid := range a.filePayments[fileID] {
		p := a.payments[pid]
		fs.PaymentCount++
		fs.TotalAmount = fs.TotalAmount.Add(p.Amount)
		if p.FullyAllocated() {
			fs.Reconciled++
		}
		if p.NeedsReview() {
			fs.NeedsReview++
		}
	}
	return fs
}

// Postable reports whether the whole workspace is ready to post:
// every payment valid, issue-free, and fully allocated. Proposed
// payments do not count even though they render like valid ones.
func (a *Arena) Postable() bool {
	for _, p := range a.payments {
		if !p.FullyAllocated() {
			return false
		}
	}
	return true
}

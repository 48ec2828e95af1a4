package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/recon"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/shopspring/decimal"
)

// Poster moves approved payments through the posting flow. Posting is
// all-or-nothing: a single unreconciled payment anywhere blocks every
// file.
type Poster struct {
	storage service.Storage
}

// NewPoster creates a poster backed by the given storage.
func NewPoster(storage service.Storage) *Poster {
	return &Poster{storage: storage}
}

// Approve transitions a payment to valid and clears its issues. The
// payment must be fully allocated first; approving a payment with an
// open remainder would silently lose money.
func (p *Poster) Approve(ctx context.Context, paymentID string) error {
	payment, err := p.storage.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	if !payment.UnallocatedAmount().IsZero() {
		return common.NewUserError(
			"This payment still has unallocated money. Allocate the full amount before approving.",
			fmt.Errorf("payment %s has an unallocated remainder of %s", paymentID, payment.UnallocatedAmount().StringFixed(2)))
	}

	if err := p.storage.UpdatePaymentStatus(ctx, paymentID, model.StatusValid, true); err != nil {
		return fmt.Errorf("failed to approve payment %s: %w", paymentID, err)
	}

	slog.Info("Approved payment", "payment", paymentID, "amount", payment.Amount.StringFixed(2))
	return nil
}

// Reopen sends a payment back to needs_review.
func (p *Poster) Reopen(ctx context.Context, paymentID string) error {
	return p.storage.UpdatePaymentStatus(ctx, paymentID, model.StatusNeedsReview, false)
}

// Post posts every unposted file. The gate is global: if any payment in
// any unposted file is not strictly valid, issue-free, and fully
// allocated, nothing posts and ErrNotPostable is returned.
func (p *Poster) Post(ctx context.Context) (*service.PostResult, error) {
	files, err := p.unpostedFiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, common.ErrNoPayments
	}

	arena := recon.NewArena(files)
	if !arena.Postable() {
		stats := arena.Stats()
		return nil, fmt.Errorf("%w: %d of %d payments not reconciled",
			common.ErrNotPostable, stats.PaymentCount-stats.Reconciled, stats.PaymentCount)
	}

	// Allocations reference invoices by number; resolve back to the
	// open invoice rows they drain.
	open, err := p.storage.GetOpenInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load open invoices: %w", err)
	}
	openByNumber := make(map[string]string, len(open))
	for _, inv := range open {
		openByNumber[inv.Number] = inv.ID
	}

	result := &service.PostResult{Amount: decimal.Zero}
	now := time.Now().UTC()
	for i := range files {
		file := &files[i]
		for j := range file.Payments {
			payment := &file.Payments[j]
			for _, inv := range payment.Invoices {
				openID, ok := openByNumber[inv.Number]
				if !ok {
					// Already drained to zero by an earlier posting run.
					result.Skipped++
					continue
				}
				if err := p.storage.ReduceOpenInvoice(ctx, openID, inv.ProposedAmount); err != nil {
					return nil, fmt.Errorf("failed to reduce invoice %s: %w", inv.Number, err)
				}
			}
			result.PaymentsPosted++
			result.Amount = result.Amount.Add(payment.Amount)
		}

		if err := p.storage.MarkFilePosted(ctx, file.ID, now); err != nil {
			return nil, fmt.Errorf("failed to mark file %s posted: %w", file.ID, err)
		}
		result.FilesPosted++
	}

	slog.Info("Posted lockbox files",
		"files", result.FilesPosted,
		"payments", result.PaymentsPosted,
		"amount", result.Amount.StringFixed(2))
	return result, nil
}

// Summary builds an aggregate report over every unposted file.
func (p *Poster) Summary(ctx context.Context) (*service.ReportSummary, error) {
	files, err := p.unpostedFiles(ctx)
	if err != nil {
		return nil, err
	}

	arena := recon.NewArena(files)
	stats := arena.Stats()
	return &service.ReportSummary{
		GeneratedAt:  time.Now().UTC(),
		TotalAmount:  stats.TotalAmount,
		FileCount:    stats.FileCount,
		PaymentCount: stats.PaymentCount,
		Reconciled:   stats.Reconciled,
		NeedsReview:  stats.NeedsReview,
		Postable:     stats.Postable,
	}, nil
}

func (p *Poster) unpostedFiles(ctx context.Context) ([]model.File, error) {
	files, err := p.storage.GetFiles(ctx, service.FileFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}
	unposted := files[:0]
	for _, f := range files {
		if f.Status != model.FileStatusPosted {
			unposted = append(unposted, f)
		}
	}
	return unposted, nil
}

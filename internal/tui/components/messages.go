package components

import "github.com/ledgerline/lockbox-lens/internal/recon"

// RowActivatedMsg is sent when the user activates the row under the
// cursor (expand/collapse or drill into detail).
type RowActivatedMsg struct {
	Row recon.Row
}

// ApproveRequestedMsg asks the root model to approve a payment.
type ApproveRequestedMsg struct {
	PaymentID string
}

// ReopenRequestedMsg asks the root model to send a payment back for
// review.
type ReopenRequestedMsg struct {
	PaymentID string
}

// SessionClosedMsg is sent when the multi-edit session ends.
type SessionClosedMsg struct{}

// StatsUpdatedMsg refreshes the stats panel.
type StatsUpdatedMsg struct {
	Stats recon.GlobalStats
}

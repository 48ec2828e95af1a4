package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/recon"
	"github.com/ledgerline/lockbox-lens/internal/tui/themes"
)

// SessionModel drives a multi-edit session: a cursor over the selected
// payments, reviewed one at a time. Movement saturates at both ends;
// closing the session clears the selection.
type SessionModel struct {
	theme     themes.Theme
	arena     *recon.Arena
	selection *recon.Selection
	width     int
	height    int
}

// NewSession creates a session view over an open selection session.
func NewSession(arena *recon.Arena, selection *recon.Selection, theme themes.Theme) SessionModel {
	return SessionModel{
		arena:     arena,
		selection: selection,
		theme:     theme,
		width:     80,
		height:    24,
	}
}

// Update handles messages.
func (m SessionModel) Update(msg tea.Msg) (SessionModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "n", "right", "tab", "j":
			m.selection.Next()

		case "p", "left", "shift+tab", "k":
			m.selection.Prev()

		case "a":
			if id, ok := m.selection.Current(); ok {
				return m, func() tea.Msg { return ApproveRequestedMsg{PaymentID: id} }
			}

		case "r":
			if id, ok := m.selection.Current(); ok {
				return m, func() tea.Msg { return ReopenRequestedMsg{PaymentID: id} }
			}

		case "s":
			if id, ok := m.selection.Current(); ok {
				m.selection.ToggleSkip(id)
				m.selection.Next()
			}

		case "esc", "q":
			m.selection.CloseSession()
			return m, func() tea.Msg { return SessionClosedMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the session.
func (m SessionModel) View() string {
	id, ok := m.selection.Current()
	if !ok {
		return m.theme.Box.Render("No payments in session")
	}

	payment, found := m.arena.Payment(id)
	if !found {
		return m.theme.Box.Render("Payment no longer available")
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderPayment(payment),
		m.renderFooter(),
	)

	box := m.theme.RoundedBox.Width(min(m.width-4, 70)).Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderHeader renders the session position.
func (m SessionModel) renderHeader() string {
	index, size := m.selection.CursorPosition()
	title := m.theme.Title.Render("Review Session")
	position := m.theme.Subtitle.Render(fmt.Sprintf("Payment %d of %d", index+1, size))
	return lipgloss.JoinVertical(lipgloss.Left, title, position)
}

// renderPayment renders the payment under the session cursor.
func (m SessionModel) renderPayment(payment model.Payment) string {
	row := recon.Row{Kind: recon.RowPayment, PaymentID: payment.ID, Payment: &payment}
	ds := m.arena.ClassifyRow(row)

	var statusStyle lipgloss.Style
	switch ds.Class {
	case recon.DisplayError:
		statusStyle = m.theme.StatusError
	case recon.DisplayNeedsReview:
		statusStyle = m.theme.StatusWarning
	default:
		statusStyle = m.theme.StatusSuccess
	}

	fields := []string{
		fmt.Sprintf("%-14s %s", "Counterparty:", m.theme.Bold.Render(payment.Counterparty)),
		fmt.Sprintf("%-14s %s", "Date:", payment.Date.Format("2006-01-02")),
		fmt.Sprintf("%-14s $%s", "Amount:", payment.Amount.StringFixed(2)),
		fmt.Sprintf("%-14s %s", "Reference:", truncate(payment.Reference, 40)),
		fmt.Sprintf("%-14s %s %s", "Status:", themes.GetStatusIcon(ds.Label), statusStyle.Render(ds.Label)),
	}

	if len(payment.Invoices) > 0 {
		fields = append(fields, "", m.theme.Subtitle.Render("Allocations"))
		for _, inv := range payment.Invoices {
			fields = append(fields, fmt.Sprintf("  %-16s %-20s $%s",
				inv.Number,
				truncate(inv.CustomerName, 20),
				inv.ProposedAmount.StringFixed(2),
			))
		}
	}

	if remainder := payment.UnallocatedAmount(); remainder.IsPositive() {
		fields = append(fields,
			m.theme.StatusWarning.Render(fmt.Sprintf("  Unallocated      $%s", remainder.StringFixed(2))))
	}

	if m.selection.Skipped(payment.ID) {
		fields = append(fields, "", m.theme.StatusPending.Render("⏭ Marked to skip at posting"))
	}

	return strings.Join(fields, "\n")
}

// renderFooter renders the key hints.
func (m SessionModel) renderFooter() string {
	hints := []string{
		"[a] Approve",
		"[r] Reopen",
		"[s] Skip",
		"[n/p] Next/Prev",
		"[Esc] Done",
	}
	return lipgloss.NewStyle().
		Foreground(m.theme.Muted).
		MarginTop(1).
		Render(strings.Join(hints, "  "))
}

// Resize updates the component size.
func (m *SessionModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

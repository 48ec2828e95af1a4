package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/tui/themes"
)

// PaymentDetailModel renders a single payment with its proposed
// allocations, issue tags, rule explanation, and reviewer comments.
type PaymentDetailModel struct {
	theme        themes.Theme
	payment      model.Payment
	comments     []model.Comment
	commentInput textinput.Model
	width        int
	height       int
	composing    bool
}

// CommentSubmittedMsg asks the root model to persist a new comment on
// the displayed payment.
type CommentSubmittedMsg struct {
	PaymentID string
	Text      string
}

// DetailClosedMsg is sent when the detail view is dismissed.
type DetailClosedMsg struct{}

// issueLabels maps issue codes to operator-facing text.
var issueLabels = map[model.IssueCode]string{
	model.IssueNoMatchFound:       "No open invoice matched this payment",
	model.IssueAmountMismatch:     "Allocated amount does not cover the payment",
	model.IssueDuplicateReference: "Another payment references the same invoice",
	model.IssueCustomerUnknown:    "Counterparty has no open invoices on file",
}

// NewPaymentDetail creates a detail view for a payment.
func NewPaymentDetail(payment model.Payment, theme themes.Theme) PaymentDetailModel {
	input := textinput.New()
	input.Placeholder = "Add a comment..."
	input.CharLimit = 200

	return PaymentDetailModel{
		payment:      payment,
		commentInput: input,
		theme:        theme,
		width:        80,
		height:       24,
	}
}

// Update handles messages.
func (m PaymentDetailModel) Update(msg tea.Msg) (PaymentDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.composing {
			return m.updateComposing(msg)
		}

		switch msg.String() {
		case "c":
			m.composing = true
			m.commentInput.Focus()
			return m, textinput.Blink

		case "esc", "q":
			return m, func() tea.Msg { return DetailClosedMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// updateComposing handles keys while the comment input is focused.
func (m PaymentDetailModel) updateComposing(msg tea.KeyMsg) (PaymentDetailModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.commentInput.Value())
		m.composing = false
		m.commentInput.Blur()
		m.commentInput.SetValue("")
		if text == "" {
			return m, nil
		}
		paymentID := m.payment.ID
		return m, func() tea.Msg {
			return CommentSubmittedMsg{PaymentID: paymentID, Text: text}
		}

	case "esc":
		m.composing = false
		m.commentInput.Blur()
		m.commentInput.SetValue("")
		return m, nil

	default:
		var cmd tea.Cmd
		m.commentInput, cmd = m.commentInput.Update(msg)
		return m, cmd
	}
}

// View renders the payment detail.
func (m PaymentDetailModel) View() string {
	sections := []string{
		m.renderSummary(),
		m.renderAllocations(),
	}

	if len(m.payment.Issues) > 0 {
		sections = append(sections, m.renderIssues())
	}
	if m.payment.RuleExplanation != "" {
		sections = append(sections, m.renderRule())
	}

	sections = append(sections, m.renderComments(), m.renderFooter())

	return m.theme.Box.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderSummary renders the payment header fields.
func (m PaymentDetailModel) renderSummary() string {
	title := m.theme.Title.Render(m.payment.Counterparty)

	fields := []string{
		fmt.Sprintf("%-12s %s", "Date:", m.payment.Date.Format("2006-01-02")),
		fmt.Sprintf("%-12s %s", "Amount:", m.theme.Bold.Render("$"+m.payment.Amount.StringFixed(2))),
		fmt.Sprintf("%-12s %s", "Reference:", m.payment.Reference),
		fmt.Sprintf("%-12s %s", "Status:", m.renderStatusBadge()),
	}

	if remainder := m.payment.UnallocatedAmount(); remainder.IsPositive() {
		fields = append(fields,
			fmt.Sprintf("%-12s %s", "Unallocated:",
				m.theme.StatusWarning.Render("$"+remainder.StringFixed(2))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(fields, "\n"))
}

// renderStatusBadge renders the payment status.
func (m PaymentDetailModel) renderStatusBadge() string {
	switch m.payment.Status {
	case model.StatusValid:
		return m.theme.StatusSuccess.Render("✓ Valid")
	case model.StatusProposed:
		return m.theme.StatusInfo.Render("◌ Proposed")
	case model.StatusError:
		return m.theme.StatusError.Render("✗ Error")
	default:
		return m.theme.StatusWarning.Render("! Needs review")
	}
}

// renderAllocations renders the proposed invoice allocations.
func (m PaymentDetailModel) renderAllocations() string {
	title := m.theme.Subtitle.Render("Allocations")

	if len(m.payment.Invoices) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render("No invoices allocated"))
	}

	var lines []string
	for _, inv := range m.payment.Invoices {
		lines = append(lines, fmt.Sprintf("%-18s %-24s %s",
			inv.Number,
			truncate(inv.CustomerName, 24),
			"$"+inv.ProposedAmount.StringFixed(2),
		))
		for _, line := range inv.LineItems {
			detail := line.Description
			if line.MatchDescription != "" {
				detail += "  (" + line.MatchDescription + ")"
			}
			lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.Muted).
				Render("  · "+truncate(detail, 56)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
}

// renderIssues renders the issue tags.
func (m PaymentDetailModel) renderIssues() string {
	title := m.theme.Subtitle.Render("Issues")

	var lines []string
	for _, code := range m.payment.Issues {
		label, ok := issueLabels[code]
		if !ok {
			label = string(code)
		}
		lines = append(lines, m.theme.StatusWarning.Render("! "+label))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
}

// renderRule renders the matching-rule explanation.
func (m PaymentDetailModel) renderRule() string {
	title := m.theme.Subtitle.Render("Matched by")
	return lipgloss.JoinVertical(lipgloss.Left, title,
		m.theme.Italic.Render(m.payment.RuleExplanation))
}

// renderComments renders reviewer comments and the compose input.
func (m PaymentDetailModel) renderComments() string {
	title := m.theme.Subtitle.Render(fmt.Sprintf("Comments (%d)", len(m.comments)))

	var lines []string
	for _, c := range m.comments {
		lines = append(lines, fmt.Sprintf("%s %s",
			m.theme.Bold.Render(c.Author+":"),
			c.Text,
		))
	}
	if len(lines) == 0 {
		lines = append(lines,
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render("No comments yet"))
	}

	parts := []string{title, strings.Join(lines, "\n")}
	if m.composing {
		parts = append(parts, m.commentInput.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderFooter renders the key hints.
func (m PaymentDetailModel) renderFooter() string {
	var hints []string
	if m.composing {
		hints = []string{"[Enter] Save comment", "[Esc] Cancel"}
	} else {
		hints = []string{"[c] Comment", "[a] Approve", "[r] Reopen", "[Esc] Back"}
	}
	return lipgloss.NewStyle().Foreground(m.theme.Muted).Render(strings.Join(hints, "  "))
}

// SetPayment replaces the displayed payment.
func (m *PaymentDetailModel) SetPayment(payment model.Payment) {
	m.payment = payment
}

// SetComments replaces the displayed comments.
func (m *PaymentDetailModel) SetComments(comments []model.Comment) {
	m.comments = comments
}

// Composing reports whether the comment input is focused.
func (m PaymentDetailModel) Composing() bool {
	return m.composing
}

// Resize updates the component size.
func (m *PaymentDetailModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

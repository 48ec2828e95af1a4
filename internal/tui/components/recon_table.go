package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ledgerline/lockbox-lens/internal/recon"
	"github.com/ledgerline/lockbox-lens/internal/tui/themes"
)

// ReconTableModel renders the hierarchical reconciliation table:
// file headers, payments, proposed invoice allocations, line items,
// and unallocated remainders, flattened in display order.
type ReconTableModel struct {
	theme     themes.Theme
	arena     *recon.Arena
	selection *recon.Selection
	flat      []flatRow
	table     table.Model
	width     int
	height    int
}

// flatRow is one visible line: either a file header or an arena row.
type flatRow struct {
	fileHeader bool
	fileID     string
	row        recon.Row
}

// NewReconTable creates the reconciliation table over an arena.
func NewReconTable(arena *recon.Arena, selection *recon.Selection, theme themes.Theme) ReconTableModel {
	columns := []table.Column{
		{Title: "Item", Width: 34},
		{Title: "Date", Width: 10},
		{Title: "Reference", Width: 20},
		{Title: "Amount", Width: 12},
		{Title: "Status", Width: 20},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = theme.Selected
	t.SetStyles(s)

	m := ReconTableModel{
		arena:     arena,
		selection: selection,
		table:     t,
		theme:     theme,
		width:     80,
		height:    24,
	}
	m.Refresh()

	return m
}

// Update handles messages.
func (m ReconTableModel) Update(msg tea.Msg) (ReconTableModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.Resize(msg.Width, msg.Height)
	}

	newTable, cmd := m.table.Update(msg)
	m.table = newTable
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey handles the action keys; navigation is delegated to the
// embedded table.
func (m *ReconTableModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "l", "h":
		m.toggleExpand()
		m.Refresh()

	case "x":
		if id, ok := m.cursorPaymentID(); ok {
			m.selection.ToggleSelect(id)
			m.Refresh()
		}

	case "s":
		if id, ok := m.cursorPaymentID(); ok {
			m.selection.ToggleSkip(id)
			m.Refresh()
		}

	case "ctrl+a":
		m.selection.ToggleAll(m.arena.PaymentIDs())
		m.Refresh()
	}

	return nil
}

// toggleExpand flips the expand flag of the node under the cursor.
// File headers are always drilled into, so they have no flag to flip;
// line item and unallocated rows are leaves.
func (m *ReconTableModel) toggleExpand() {
	fr, ok := m.cursorFlatRow()
	if !ok || fr.fileHeader {
		return
	}

	switch fr.row.Kind {
	case recon.RowPayment:
		m.arena.ToggleExpand(fr.row.PaymentID)
	case recon.RowInvoice:
		m.arena.ToggleExpand(fr.row.InvoiceID)
	case recon.RowLineItem, recon.RowUnallocated:
	}
}

// SetCursor moves the cursor to the given flat row index.
func (m *ReconTableModel) SetCursor(idx int) {
	m.table.SetCursor(idx)
}

// cursorFlatRow returns the flat row under the table cursor.
func (m *ReconTableModel) cursorFlatRow() (flatRow, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.flat) {
		return flatRow{}, false
	}
	return m.flat[idx], true
}

// CursorRow returns the arena row under the cursor, if the cursor is
// not on a file header.
func (m *ReconTableModel) CursorRow() (recon.Row, bool) {
	fr, ok := m.cursorFlatRow()
	if !ok || fr.fileHeader {
		return recon.Row{}, false
	}
	return fr.row, true
}

// cursorPaymentID resolves the payment owning the row under the
// cursor. Child rows resolve to their parent payment.
func (m *ReconTableModel) cursorPaymentID() (string, bool) {
	fr, ok := m.cursorFlatRow()
	if !ok || fr.fileHeader {
		return "", false
	}
	return fr.row.PaymentID, true
}

// Refresh rebuilds the flattened row list from the arena. Call after
// any arena or selection mutation.
func (m *ReconTableModel) Refresh() {
	cursor := m.table.Cursor()

	m.flat = m.flat[:0]
	for _, fileID := range m.arena.FileIDs() {
		m.flat = append(m.flat, flatRow{fileHeader: true, fileID: fileID})
		for _, row := range m.arena.FileRows(fileID) {
			m.flat = append(m.flat, flatRow{fileID: fileID, row: row})
		}
	}

	m.table.SetRows(m.buildTableRows())
	if cursor >= len(m.flat) {
		cursor = max(0, len(m.flat)-1)
	}
	m.table.SetCursor(cursor)
}

// View renders the reconciliation table.
func (m ReconTableModel) View() string {
	if m.height < 10 {
		return "Terminal too small"
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.table.View(),
		m.renderFooter(),
	)
}

// renderHeader renders the table header.
func (m ReconTableModel) renderHeader() string {
	title := m.theme.Title.Render("Reconciliation")

	stats := m.arena.Stats()
	status := fmt.Sprintf("%d files · %d payments", stats.FileCount, stats.PaymentCount)
	if n := m.selection.SelectedCount(); n > 0 {
		status += fmt.Sprintf(" (%d selected)", n)
	}
	if n := m.selection.SkippedCount(); n > 0 {
		status += fmt.Sprintf(" (%d skipped)", n)
	}

	subtitle := m.theme.Subtitle.Render(status)

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
}

// renderFooter renders the key hints.
func (m ReconTableModel) renderFooter() string {
	hints := []string{
		"[↑↓] Navigate",
		"[Enter] Expand",
		"[x] Select",
		"[s] Skip",
		"[a] Approve",
		"[?] Help",
	}
	return lipgloss.NewStyle().Foreground(m.theme.Muted).Render(strings.Join(hints, "  "))
}

// buildTableRows builds display rows for the embedded table.
func (m ReconTableModel) buildTableRows() []table.Row {
	rows := make([]table.Row, 0, len(m.flat))

	for _, fr := range m.flat {
		if fr.fileHeader {
			rows = append(rows, m.fileHeaderRow(fr.fileID))
			continue
		}
		rows = append(rows, m.arenaRow(fr.row))
	}

	return rows
}

// fileHeaderRow renders a file's summary line.
func (m ReconTableModel) fileHeaderRow(fileID string) table.Row {
	file, ok := m.arena.File(fileID)
	if !ok {
		return table.Row{"", "", "", "", ""}
	}

	fs := m.arena.StatsForFile(fileID)
	item := m.theme.Bold.Render(fmt.Sprintf("🏦 %s", file.Name))
	date := file.UploadedAt.Format("2006-01-02")
	ref := fmt.Sprintf("%d payments", fs.PaymentCount)
	amount := formatAmountCell(fs.TotalAmount.StringFixed(2))
	status := string(file.Status)
	if fs.NeedsReview > 0 {
		status = m.theme.StatusWarning.Render(fmt.Sprintf("%d to review", fs.NeedsReview))
	}

	return table.Row{item, date, ref, amount, status}
}

// arenaRow renders a payment, invoice, line item, or unallocated row.
func (m ReconTableModel) arenaRow(row recon.Row) table.Row {
	var item, date, ref string
	amount := formatAmountCell(row.Amount.StringFixed(2))

	switch row.Kind {
	case recon.RowPayment:
		expander := " "
		if len(row.Payment.Invoices) > 0 || row.Payment.UnallocatedAmount().IsPositive() {
			expander = "▸"
			if m.arena.Expanded(row.PaymentID) {
				expander = "▾"
			}
		}
		item = fmt.Sprintf(" %s %s", expander, truncate(row.Payment.Counterparty, 28))
		date = row.Payment.Date.Format("2006-01-02")
		ref = truncate(row.Payment.Reference, 20)

	case recon.RowInvoice:
		item = fmt.Sprintf("   └ %s", truncate(row.Invoice.Number, 26))
		ref = truncate(row.Invoice.CustomerName, 20)

	case recon.RowLineItem:
		item = fmt.Sprintf("      · %s", truncate(row.Line.Description, 24))
		ref = truncate(row.Line.MatchDescription, 20)

	case recon.RowUnallocated:
		item = "   └ Unallocated"
	}

	status := m.renderStatus(row)

	if m.selection.Skipped(row.PaymentID) {
		item = m.theme.StatusPending.Render("⏭" + item)
	}
	if m.selection.Selected(row.PaymentID) {
		item = m.theme.Highlighted.Render(item)
		date = m.theme.Highlighted.Render(date)
		ref = m.theme.Highlighted.Render(ref)
		amount = m.theme.Highlighted.Render(amount)
	}

	return table.Row{item, date, ref, amount, status}
}

// renderStatus renders the classified status cell with its glyph.
func (m ReconTableModel) renderStatus(row recon.Row) string {
	ds := m.arena.ClassifyRow(row)
	text := fmt.Sprintf("%s %s", themes.GetStatusIcon(ds.Label), ds.Label)

	switch ds.Class {
	case recon.DisplayError:
		return m.theme.StatusError.Render(text)
	case recon.DisplayNeedsReview:
		return m.theme.StatusWarning.Render(text)
	default:
		return m.theme.StatusSuccess.Render(text)
	}
}

// Resize updates the component size.
func (m *ReconTableModel) Resize(width, height int) {
	m.width = width
	m.height = height

	// Chrome: title, subtitle, column headers, footer.
	m.table.SetHeight(max(1, height-5))
	m.updateColumnWidths()
}

// updateColumnWidths adjusts column widths to the available space.
func (m *ReconTableModel) updateColumnWidths() {
	availableWidth := m.width - 4
	if availableWidth < 70 {
		availableWidth = 70
	}

	columns := []table.Column{
		{Title: "Item", Width: max(20, int(float64(availableWidth)*0.34))},
		{Title: "Date", Width: 10},
		{Title: "Reference", Width: max(12, int(float64(availableWidth)*0.20))},
		{Title: "Amount", Width: max(10, int(float64(availableWidth)*0.13))},
		{Title: "Status", Width: max(14, int(float64(availableWidth)*0.20))},
	}

	m.table.SetColumns(columns)
}

func formatAmountCell(fixed string) string {
	return "$" + fixed
}

// Helper to truncate strings.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ledgerline/lockbox-lens/internal/recon"
	"github.com/ledgerline/lockbox-lens/internal/tui/themes"
)

// StatsPanelModel displays workspace reconciliation statistics.
type StatsPanelModel struct {
	theme       themes.Theme
	stats       recon.GlobalStats
	progressBar progress.Model
	width       int
	height      int
	compact     bool
}

// NewStatsPanelModel creates a new stats panel.
func NewStatsPanelModel(theme themes.Theme) StatsPanelModel {
	prog := progress.New(progress.WithDefaultGradient())
	prog.ShowPercentage = false

	return StatsPanelModel{
		progressBar: prog,
		theme:       theme,
	}
}

// Update handles messages.
func (m StatsPanelModel) Update(msg tea.Msg) (StatsPanelModel, tea.Cmd) {
	switch msg := msg.(type) {
	case StatsUpdatedMsg:
		m.stats = msg.Stats

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(m.width-4, 40)
	}

	return m, nil
}

// View renders the stats panel.
func (m StatsPanelModel) View() string {
	if m.compact {
		return m.renderCompact()
	}
	return m.renderFull()
}

// renderFull renders the full stats view.
func (m StatsPanelModel) renderFull() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderProgress(),
		m.renderBreakdown(),
		m.renderPostable(),
	)
}

// renderCompact renders a one-line stats view.
func (m StatsPanelModel) renderCompact() string {
	stats := fmt.Sprintf(
		"Reconciled: %d/%d (%.0f%%) | Total: $%s | Postable: %s",
		m.stats.Reconciled,
		m.stats.PaymentCount,
		m.stats.AllocationRate(),
		m.stats.TotalAmount.StringFixed(2),
		yesNo(m.stats.Postable),
	)

	return m.theme.Box.Render(stats)
}

// renderProgress renders the allocation progress section.
func (m StatsPanelModel) renderProgress() string {
	title := m.theme.Subtitle.Render("Allocation")

	m.progressBar.SetPercent(m.stats.AllocationRate() / 100)
	bar := m.progressBar.View()

	stats := fmt.Sprintf("%d/%d payments (%.0f%%)",
		m.stats.Reconciled,
		m.stats.PaymentCount,
		m.stats.AllocationRate(),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		bar,
		m.theme.Normal.Render(stats),
	)
}

// renderBreakdown renders the workspace totals.
func (m StatsPanelModel) renderBreakdown() string {
	title := m.theme.Subtitle.Render("Workspace")

	items := []struct {
		style lipgloss.Style
		label string
		value string
	}{
		{style: m.theme.Normal, label: "Files", value: fmt.Sprintf("%d", m.stats.FileCount)},
		{style: m.theme.Normal, label: "Payments", value: fmt.Sprintf("%d", m.stats.PaymentCount)},
		{style: m.theme.Bold, label: "Total", value: "$" + m.stats.TotalAmount.StringFixed(2)},
		{style: m.theme.StatusWarning, label: "Needs review", value: fmt.Sprintf("%d", m.stats.NeedsReview)},
	}

	var lines []string
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%-14s %s",
			item.label+":",
			item.style.Render(item.value),
		))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		strings.Join(lines, "\n"),
	)
}

// renderPostable renders the posting-gate badge. One unreconciled
// payment anywhere blocks the whole workspace.
func (m StatsPanelModel) renderPostable() string {
	title := m.theme.Subtitle.Render("Posting")

	var badge string
	if m.stats.Postable {
		badge = m.theme.StatusSuccess.Render("✓ Ready to post")
	} else {
		remaining := m.stats.PaymentCount - m.stats.Reconciled
		badge = m.theme.StatusWarning.Render(fmt.Sprintf("✗ Blocked (%d remaining)", remaining))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, badge)
}

// SetStats replaces the displayed statistics.
func (m *StatsPanelModel) SetStats(stats recon.GlobalStats) {
	m.stats = stats
}

// SetCompact sets compact mode.
func (m *StatsPanelModel) SetCompact(compact bool) {
	m.compact = compact
}

// Resize updates the component size.
func (m *StatsPanelModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.progressBar.Width = min(width-4, 40)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

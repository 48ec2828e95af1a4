package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return m.renderLoading()
	}

	switch m.state {
	case StateSession:
		return m.session.View()
	case StateDetail:
		return m.wrapWithStatusBar(m.detail.View())
	case StateHelp:
		return m.renderHelp()
	}

	if m.width > 110 && m.config.ShowStats {
		return m.renderWideView()
	}
	return m.renderCompactView()
}

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	if m.lastError != nil {
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			m.theme.StatusError.Render("Failed to load workspace: "+m.lastError.Error()),
		)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render("Lockbox Lens"),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Loading lockbox files..."),
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// renderCompactView renders the single-column layout: table on top,
// compact stats below.
func (m Model) renderCompactView() string {
	content := m.reconTable.View()

	if m.config.ShowStats {
		m.statsPanel.SetCompact(true)
		content = lipgloss.JoinVertical(
			lipgloss.Left,
			content,
			m.statsPanel.View(),
		)
	}

	return m.wrapWithStatusBar(content)
}

// renderWideView renders the two-column layout: table left, stats
// panel right.
func (m Model) renderWideView() string {
	m.statsPanel.SetCompact(false)

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.reconTable.View(),
		m.theme.Normal.Render(" │ "),
		m.statsPanel.View(),
	)

	return m.wrapWithStatusBar(content)
}

// renderHelp renders the help screen.
func (m Model) renderHelp() string {
	title := m.theme.Title.Render("Lockbox Lens - Help")

	sections := []struct {
		title string
		items []string
	}{
		{
			"Navigation",
			[]string{
				"↑/k, ↓/j    Move up/down",
				"PgUp/PgDn   Page up/down",
				"g/G         Go to start/end",
			},
		},
		{
			"Reconciliation",
			[]string{
				"Enter       Expand/collapse row",
				"a           Approve payment",
				"r           Reopen payment",
				"s           Toggle skip at posting",
				"d           Payment detail",
			},
		},
		{
			"Selection",
			[]string{
				"x           Toggle selection",
				"Ctrl+A      Select all payments",
				"e           Review selected payments",
			},
		},
		{
			"Application",
			[]string{
				"c           Comment (in detail view)",
				"Ctrl+R      Reload from storage",
				"q/Esc       Quit",
				"Ctrl+C      Force quit",
			},
		},
	}

	var content []string
	for _, section := range sections {
		content = append(content, m.theme.Subtitle.Render(section.title))
		for _, item := range section.items {
			parts := strings.SplitN(item, "  ", 2)
			if len(parts) == 2 {
				line := fmt.Sprintf("  %-12s %s",
					lipgloss.NewStyle().Foreground(m.theme.Primary).Render(parts[0]),
					m.theme.Normal.Render(strings.TrimSpace(parts[1])),
				)
				content = append(content, line)
			}
		}
		content = append(content, "")
	}

	helpText := lipgloss.JoinVertical(lipgloss.Left, content...)
	footer := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press ? or Esc to close help")

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		m.theme.BorderedBox.
			Width(56).
			MaxHeight(m.height-4).
			Render(lipgloss.JoinVertical(lipgloss.Left, title, "", helpText, footer)),
	)
}

// wrapWithStatusBar appends the bottom status bar.
func (m Model) wrapWithStatusBar(content string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		m.renderStatusBar(),
	)
}

// renderStatusBar renders the bottom status bar: mode on the left,
// transient status center, help hint right.
func (m Model) renderStatusBar() string {
	var mode string
	switch m.state {
	case StateTable:
		mode = "Review"
	case StateSession:
		mode = "Session"
	case StateDetail:
		mode = "Detail"
	case StateHelp:
		mode = "Help"
	}

	center := m.status
	right := "? Help"

	totalWidth := m.width - 2
	spacing := totalWidth - len(mode) - len(center) - len(right)
	if spacing < 2 {
		spacing = 2
	}
	leftPad := spacing / 2
	rightPad := spacing - leftPad

	status := fmt.Sprintf("%s%s%s%s%s",
		m.theme.StatusInfo.Render(mode),
		strings.Repeat(" ", leftPad),
		m.theme.Normal.Render(center),
		strings.Repeat(" ", rightPad),
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render(right),
	)

	return m.theme.Normal.
		Background(m.theme.Border).
		Width(m.width).
		MaxWidth(m.width).
		Render(status)
}

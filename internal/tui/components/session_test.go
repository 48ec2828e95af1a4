package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/lockbox-lens/internal/recon"
	"github.com/ledgerline/lockbox-lens/internal/tui/themes"
)

func newTestSession(t *testing.T) SessionModel {
	t.Helper()
	arena := recon.NewArena(testFiles(t))
	selection := recon.NewSelection()
	selection.ToggleSelect("pay-1")
	selection.ToggleSelect("pay-2")
	require.True(t, selection.OpenSession())

	return NewSession(arena, selection, themes.Default)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestSession_Navigation(t *testing.T) {
	m := newTestSession(t)

	id, ok := m.selection.Current()
	require.True(t, ok)
	assert.Equal(t, "pay-1", id)

	m, _ = m.Update(keyRune('n'))
	id, _ = m.selection.Current()
	assert.Equal(t, "pay-2", id)

	// Saturates at the end.
	m, _ = m.Update(keyRune('n'))
	id, _ = m.selection.Current()
	assert.Equal(t, "pay-2", id)

	m, _ = m.Update(keyRune('p'))
	id, _ = m.selection.Current()
	assert.Equal(t, "pay-1", id)
}

func TestSession_ApproveEmitsRequest(t *testing.T) {
	m := newTestSession(t)

	_, cmd := m.Update(keyRune('a'))
	require.NotNil(t, cmd)

	msg, ok := cmd().(ApproveRequestedMsg)
	require.True(t, ok)
	assert.Equal(t, "pay-1", msg.PaymentID)
}

func TestSession_ReopenEmitsRequest(t *testing.T) {
	m := newTestSession(t)

	_, cmd := m.Update(keyRune('r'))
	require.NotNil(t, cmd)

	msg, ok := cmd().(ReopenRequestedMsg)
	require.True(t, ok)
	assert.Equal(t, "pay-1", msg.PaymentID)
}

func TestSession_SkipAdvances(t *testing.T) {
	m := newTestSession(t)

	m, _ = m.Update(keyRune('s'))

	assert.True(t, m.selection.Skipped("pay-1"))
	id, _ := m.selection.Current()
	assert.Equal(t, "pay-2", id)
}

func TestSession_EscClosesAndClearsSelection(t *testing.T) {
	m := newTestSession(t)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	_, ok := cmd().(SessionClosedMsg)
	assert.True(t, ok)
	assert.False(t, updated.selection.SessionActive())
	assert.Equal(t, 0, updated.selection.SelectedCount())
}

func TestSession_View(t *testing.T) {
	m := newTestSession(t)
	m.Resize(100, 30)

	view := m.View()

	assert.Contains(t, view, "Review Session")
	assert.Contains(t, view, "Payment 1 of 2")
	assert.Contains(t, view, "ACME Corp")
	assert.Contains(t, view, "$1200.00")
	assert.Contains(t, view, "INV-4481")
	assert.Contains(t, view, "[a] Approve")
}

func TestSession_ViewShowsSkipMarker(t *testing.T) {
	m := newTestSession(t)
	m.Resize(100, 30)
	m.selection.ToggleSkip("pay-1")

	view := m.View()
	assert.Contains(t, view, "Marked to skip at posting")
}

func TestSession_ViewEmptySession(t *testing.T) {
	arena := recon.NewArena(testFiles(t))
	selection := recon.NewSelection()
	m := NewSession(arena, selection, themes.Default)

	assert.Contains(t, m.View(), "No payments in session")
}

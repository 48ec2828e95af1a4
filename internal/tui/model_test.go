package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/tui/components"
	"github.com/ledgerline/lockbox-lens/internal/tui/themes"
)

func testWorkspaceFiles(t *testing.T) []model.File {
	t.Helper()

	amount, err := decimal.NewFromString("450.00")
	require.NoError(t, err)

	return []model.File{
		{
			ID:         "file-1",
			Name:       "lockbox-0811.ofx",
			Status:     model.FileStatusReady,
			UploadedAt: time.Date(2025, 8, 11, 9, 0, 0, 0, time.UTC),
			Payments: []model.Payment{
				{
					ID:           "pay-1",
					Date:         time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC),
					Counterparty: "ACME Corp",
					Reference:    "INV-9001",
					Amount:       amount,
					Status:       model.StatusNeedsReview,
				},
			},
		},
	}
}

func newReadyModel(t *testing.T) Model {
	t.Helper()

	cfg := defaultConfig()
	cfg.Width = 100
	cfg.Height = 30
	m := newModel(cfg)
	m.width = cfg.Width
	m.height = cfg.Height

	m.buildWorkspace(testWorkspaceFiles(t))
	m.ready = true
	return m
}

func TestNewModel(t *testing.T) {
	m := newModel(defaultConfig())

	assert.Equal(t, StateTable, m.state)
	assert.False(t, m.ready)
	assert.NotNil(t, m.poster)
}

func TestModel_FilesLoaded(t *testing.T) {
	m := newModel(defaultConfig())
	m.width = 100
	m.height = 30

	updated, _ := m.Update(filesLoadedMsg{files: testWorkspaceFiles(t)})
	result, ok := updated.(Model)
	require.True(t, ok)

	assert.True(t, result.ready)
	assert.NotNil(t, result.arena)
	assert.NotNil(t, result.selection)
	_, found := result.arena.Payment("pay-1")
	assert.True(t, found)
}

func TestModel_HelpToggle(t *testing.T) {
	m := newReadyModel(t)

	updated, _, handled := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.True(t, handled)
	assert.Equal(t, StateHelp, updated.state)

	updated, _, handled = updated.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.True(t, handled)
	assert.Equal(t, StateTable, updated.state)
}

func TestModel_QuitFromTable(t *testing.T) {
	m := newReadyModel(t)

	updated, cmd, handled := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, handled)
	assert.True(t, updated.quitting)
	assert.NotNil(t, cmd)
}

func TestModel_SessionRequiresSelection(t *testing.T) {
	m := newReadyModel(t)

	// No selection: stays in the table with a hint.
	updated, cmd, handled := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	assert.True(t, handled)
	assert.Equal(t, StateTable, updated.state)
	require.NotNil(t, cmd)

	// With a selection the session opens.
	m.selection.ToggleSelect("pay-1")
	updated, _, handled = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	assert.True(t, handled)
	assert.Equal(t, StateSession, updated.state)
	assert.True(t, updated.selection.SessionActive())
}

func TestModel_SessionClosedReturnsToTable(t *testing.T) {
	m := newReadyModel(t)
	m.state = StateSession

	updated, _ := m.Update(components.SessionClosedMsg{})
	result, ok := updated.(Model)
	require.True(t, ok)

	assert.Equal(t, StateTable, result.state)
}

func TestModel_OpenDetail(t *testing.T) {
	m := newReadyModel(t)

	// Row 0 is the file header; the payment is below it.
	m.reconTable.SetCursor(1)

	updated, _, handled := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	assert.True(t, handled)
	assert.Equal(t, StateDetail, updated.state)
	assert.Equal(t, "pay-1", updated.detailID)
}

func TestModel_ApprovalUpdatesArena(t *testing.T) {
	m := newReadyModel(t)

	updated, _ := m.Update(paymentApprovedMsg{paymentID: "pay-1"})
	result, ok := updated.(Model)
	require.True(t, ok)

	payment, found := result.arena.Payment("pay-1")
	require.True(t, found)
	assert.Equal(t, model.StatusValid, payment.Status)
}

func TestModel_PaymentComments(t *testing.T) {
	m := newReadyModel(t)
	m.commentCache = []model.Comment{
		{ID: "c1", Tab: "pay-1", Text: "hold for AR"},
		{ID: "c2", Tab: "pay-9", Text: "other payment"},
	}

	comments := m.paymentComments("pay-1")
	require.Len(t, comments, 1)
	assert.Equal(t, "hold for AR", comments[0].Text)
}

func TestModel_StatusBarFlash(t *testing.T) {
	m := newReadyModel(t)

	updated, _ := m.Update(statusMsg{text: "Payment approved"})
	result := updated.(Model)
	assert.Equal(t, "Payment approved", result.status)

	updated, _ = result.Update(clearStatusMsg{})
	result = updated.(Model)
	assert.Equal(t, "", result.status)
}

func TestModel_View(t *testing.T) {
	m := newReadyModel(t)
	m.handleResize()

	view := m.View()
	assert.Contains(t, view, "ACME Corp")
	assert.Contains(t, view, "Review")

	m.state = StateHelp
	view = m.View()
	assert.Contains(t, view, "Lockbox Lens - Help")
}

func TestModel_LoadingView(t *testing.T) {
	m := newModel(defaultConfig())
	m.width = 80
	m.height = 24

	assert.Contains(t, m.View(), "Loading lockbox files...")
}

func TestDefaultKeyMap(t *testing.T) {
	k := DefaultKeyMap()

	assert.NotEmpty(t, k.ShortHelp())
	assert.Len(t, k.FullHelp(), 4)
}

func TestGetTheme(t *testing.T) {
	assert.Equal(t, themes.CatppuccinMocha.Primary, themes.GetTheme("catppuccin-mocha").Primary)
	assert.Equal(t, themes.Default.Primary, themes.GetTheme("unknown").Primary)
}

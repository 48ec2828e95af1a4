package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ledgerline/lockbox-lens/internal/engine"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/recon"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/ledgerline/lockbox-lens/internal/tui/components"
	"github.com/ledgerline/lockbox-lens/internal/tui/themes"
)

// State represents the current state of the TUI.
type State int

const (
	StateTable State = iota
	StateSession
	StateDetail
	StateHelp
)

// Model holds the main TUI state.
type Model struct {
	theme        themes.Theme
	lastError    error
	storage      service.Storage
	comments     service.CommentStore
	poster       *engine.Poster
	arena        *recon.Arena
	selection    *recon.Selection
	reconTable   components.ReconTableModel
	statsPanel   components.StatsPanelModel
	session      components.SessionModel
	detail       components.PaymentDetailModel
	config       Config
	keymap       KeyMap
	commentCache []model.Comment
	status       string
	detailID     string
	height       int
	width        int
	state        State
	quitting     bool
	ready        bool
}

// newModel creates a new model with the given configuration.
func newModel(cfg Config) Model {
	return Model{
		state:    StateTable,
		config:   cfg,
		keymap:   DefaultKeyMap(),
		theme:    cfg.Theme,
		storage:  cfg.Storage,
		comments: cfg.Comments,
		poster:   engine.NewPoster(cfg.Storage),
		width:    cfg.Width,
		height:   cfg.Height,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.loadFiles(),
		m.loadComments(),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		updated, cmd, handled := m.handleKey(msg)
		if handled {
			return updated, cmd
		}
		m = updated

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()

	case filesLoadedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			cmds = append(cmds, flashStatus("Load failed: "+msg.err.Error()))
			break
		}
		m.buildWorkspace(msg.files)
		m.ready = true

	case commentsLoadedMsg:
		if msg.err == nil {
			m.commentCache = msg.comments
			m.refreshDetailComments()
		}

	case paymentApprovedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			cmds = append(cmds, flashStatus(msg.err.Error()))
			break
		}
		m.arena.ApprovePayment(msg.paymentID)
		m.refresh()
		cmds = append(cmds, flashStatus("Payment approved"))

	case paymentReopenedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			cmds = append(cmds, flashStatus(msg.err.Error()))
			break
		}
		m.arena.ReopenPayment(msg.paymentID)
		m.refresh()
		cmds = append(cmds, flashStatus("Payment reopened"))

	case commentSavedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			cmds = append(cmds, flashStatus("Comment failed: "+msg.err.Error()))
			break
		}
		m.commentCache = append(m.commentCache, *msg.comment)
		m.refreshDetailComments()
		cmds = append(cmds, flashStatus("Comment saved"))

	case components.ApproveRequestedMsg:
		cmds = append(cmds, m.approvePayment(msg.PaymentID))

	case components.ReopenRequestedMsg:
		cmds = append(cmds, m.reopenPayment(msg.PaymentID))

	case components.CommentSubmittedMsg:
		cmds = append(cmds, m.addComment(msg.PaymentID, msg.Text))

	case components.SessionClosedMsg:
		m.state = StateTable
		m.refresh()

	case components.DetailClosedMsg:
		m.state = StateTable

	case statusMsg:
		m.status = msg.text

	case clearStatusMsg:
		m.status = ""

	case errorMsg:
		m.lastError = msg.err
	}

	// Delegate to the active component.
	if m.ready {
		switch m.state {
		case StateTable:
			newTable, cmd := m.reconTable.Update(msg)
			m.reconTable = newTable
			cmds = append(cmds, cmd)

		case StateSession:
			newSession, cmd := m.session.Update(msg)
			m.session = newSession
			cmds = append(cmds, cmd)

		case StateDetail:
			newDetail, cmd := m.detail.Update(msg)
			m.detail = newDetail
			cmds = append(cmds, cmd)
		}

		if m.config.ShowStats {
			newStats, cmd := m.statsPanel.Update(msg)
			m.statsPanel = newStats
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// handleKey handles global and state-transition keys. The returned
// bool reports whether the key was consumed.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	// Never steal keys from a focused text input.
	if m.state == StateDetail && m.detail.Composing() {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keymap.ForceQuit):
		m.quitting = true
		return m, tea.Quit, true

	case key.Matches(msg, m.keymap.Quit):
		switch m.state {
		case StateTable:
			m.quitting = true
			return m, tea.Quit, true
		case StateHelp:
			m.state = StateTable
			return m, nil, true
		}
		return m, nil, false

	case key.Matches(msg, m.keymap.Help):
		if m.state == StateHelp {
			m.state = StateTable
		} else {
			m.state = StateHelp
		}
		return m, nil, true

	case key.Matches(msg, m.keymap.ClearScreen):
		return m, tea.ClearScreen, true

	case key.Matches(msg, m.keymap.Refresh):
		return m, tea.Batch(m.loadFiles(), m.loadComments()), true
	}

	if !m.ready || m.state != StateTable {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keymap.Approve):
		if row, ok := m.reconTable.CursorRow(); ok {
			return m, m.approvePayment(row.PaymentID), true
		}

	case key.Matches(msg, m.keymap.Reopen):
		if row, ok := m.reconTable.CursorRow(); ok {
			return m, m.reopenPayment(row.PaymentID), true
		}

	case key.Matches(msg, m.keymap.Detail):
		if row, ok := m.reconTable.CursorRow(); ok {
			return m.openDetail(row.PaymentID), nil, true
		}

	case key.Matches(msg, m.keymap.Session):
		if m.selection.OpenSession() {
			m.session = components.NewSession(m.arena, m.selection, m.theme)
			m.session.Resize(m.width, m.height)
			m.state = StateSession
			return m, nil, true
		}
		return m, flashStatus("Nothing selected — mark payments with x first"), true
	}

	return m, nil, false
}

// buildWorkspace rebuilds the arena and components from loaded files.
func (m *Model) buildWorkspace(files []model.File) {
	m.arena = recon.NewArena(files)
	m.selection = recon.NewSelection()
	m.reconTable = components.NewReconTable(m.arena, m.selection, m.theme)
	m.statsPanel = components.NewStatsPanelModel(m.theme)
	m.statsPanel.SetStats(m.arena.Stats())
	m.state = StateTable
	m.handleResize()
}

// refresh re-renders derived state after an arena mutation.
func (m *Model) refresh() {
	if m.arena == nil {
		return
	}
	m.reconTable.Refresh()
	m.statsPanel.SetStats(m.arena.Stats())
	if m.state == StateDetail {
		if payment, ok := m.arena.Payment(m.detailID); ok {
			m.detail.SetPayment(payment)
		}
	}
}

// openDetail switches to the detail view for a payment.
func (m Model) openDetail(paymentID string) Model {
	payment, ok := m.arena.Payment(paymentID)
	if !ok {
		return m
	}
	m.detailID = paymentID
	m.detail = components.NewPaymentDetail(payment, m.theme)
	m.detail.Resize(m.width, m.height)
	m.detail.SetComments(m.paymentComments(paymentID))
	m.state = StateDetail
	return m
}

// paymentComments filters the workspace comments down to one payment.
func (m Model) paymentComments(paymentID string) []model.Comment {
	var out []model.Comment
	for _, c := range m.commentCache {
		if c.Tab == paymentID {
			out = append(out, c)
		}
	}
	return out
}

// refreshDetailComments pushes the comment cache into an open detail
// view.
func (m *Model) refreshDetailComments() {
	if m.state == StateDetail || m.detailID != "" {
		m.detail.SetComments(m.paymentComments(m.detailID))
	}
}

// handleResize adjusts component sizes when the terminal resizes.
func (m *Model) handleResize() {
	if !m.ready && m.arena == nil {
		return
	}

	if m.width > 110 && m.config.ShowStats {
		statsWidth := m.width / 4
		m.reconTable.Resize(m.width-statsWidth-5, m.height-3)
		m.statsPanel.SetCompact(false)
		m.statsPanel.Resize(statsWidth, m.height-3)
	} else {
		m.reconTable.Resize(m.width-2, m.height-6)
		m.statsPanel.SetCompact(true)
		m.statsPanel.Resize(m.width-2, 3)
	}

	m.session.Resize(m.width, m.height)
	m.detail.Resize(m.width, m.height)
}

package tui

import (
	"github.com/ledgerline/lockbox-lens/internal/model"
)

// Data loading messages.
type filesLoadedMsg struct {
	err   error
	files []model.File
}

type commentsLoadedMsg struct {
	err      error
	comments []model.Comment
}

// Async operation messages.
type paymentApprovedMsg struct {
	err       error
	paymentID string
}

type paymentReopenedMsg struct {
	err       error
	paymentID string
}

type commentSavedMsg struct {
	err     error
	comment *model.Comment
}

// Transient status line messages.
type statusMsg struct {
	text string
}

type clearStatusMsg struct{}

// Error handling.
type errorMsg struct {
	err     error
	context string
}

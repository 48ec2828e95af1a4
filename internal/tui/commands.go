package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/service"
)

// loadFiles loads the unposted lockbox files from storage.
func (m Model) loadFiles() tea.Cmd {
	return func() tea.Msg {
		if m.storage == nil {
			return filesLoadedMsg{err: fmt.Errorf("storage not configured")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		all, err := m.storage.GetFiles(ctx, service.FileFilter{})
		if err != nil {
			return filesLoadedMsg{err: err}
		}

		files := make([]model.File, 0, len(all))
		for _, f := range all {
			if f.Status != model.FileStatusPosted {
				files = append(files, f)
			}
		}

		return filesLoadedMsg{files: files}
	}
}

// loadComments loads reviewer comments for the workspace key. A nil
// comment store silently yields no comments.
func (m Model) loadComments() tea.Cmd {
	return func() tea.Msg {
		if m.comments == nil {
			return commentsLoadedMsg{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		comments, err := m.comments.List(ctx, m.config.PrototypeKey)
		if err != nil {
			return commentsLoadedMsg{err: err}
		}

		return commentsLoadedMsg{comments: comments}
	}
}

// approvePayment persists an approval through the poster.
func (m Model) approvePayment(paymentID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.poster.Approve(ctx, paymentID); err != nil {
			return paymentApprovedMsg{paymentID: paymentID, err: err}
		}
		return paymentApprovedMsg{paymentID: paymentID}
	}
}

// reopenPayment sends an approved payment back for review.
func (m Model) reopenPayment(paymentID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.poster.Reopen(ctx, paymentID); err != nil {
			return paymentReopenedMsg{paymentID: paymentID, err: err}
		}
		return paymentReopenedMsg{paymentID: paymentID}
	}
}

// addComment persists a new comment against the workspace key, tabbed
// by the payment it annotates.
func (m Model) addComment(paymentID, text string) tea.Cmd {
	return func() tea.Msg {
		if m.comments == nil {
			return commentSavedMsg{err: fmt.Errorf("comment store not configured")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		comment := model.Comment{
			Key:    m.config.PrototypeKey,
			Tab:    paymentID,
			Text:   text,
			Author: m.config.Author,
		}

		saved, err := m.comments.Add(ctx, m.config.PrototypeKey, comment)
		if err != nil {
			return commentSavedMsg{err: err}
		}
		return commentSavedMsg{comment: saved}
	}
}

// flashStatus shows a status line for a few seconds.
func flashStatus(text string) tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return statusMsg{text: text} },
		tea.Tick(4*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} }),
	)
}

package tui

import (
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/ledgerline/lockbox-lens/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme        themes.Theme
	Storage      service.Storage
	Comments     service.CommentStore
	PrototypeKey string
	Author       string
	Width        int
	Height       int
	ShowStats    bool
	ShowHelp     bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:        themes.Default,
		PrototypeKey: "lockbox-review",
		Author:       "reviewer",
		Width:        80,
		Height:       24,
		ShowStats:    true,
		ShowHelp:     true,
	}
}

// WithStorage sets the storage service.
func WithStorage(storage service.Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithComments sets the remote comment store. Comments are disabled
// when nil.
func WithComments(comments service.CommentStore) Option {
	return func(c *Config) {
		c.Comments = comments
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithPrototypeKey sets the comment-store key for this workspace.
func WithPrototypeKey(key string) Option {
	return func(c *Config) {
		c.PrototypeKey = key
	}
}

// WithAuthor sets the author name attached to new comments.
func WithAuthor(author string) Option {
	return func(c *Config) {
		c.Author = author
	}
}

// WithStats toggles the statistics side panel.
func WithStats(enabled bool) Option {
	return func(c *Config) {
		c.ShowStats = enabled
	}
}

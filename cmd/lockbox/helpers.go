package main

import (
	"context"
	"fmt"

	"github.com/ledgerline/lockbox-lens/internal/comments"
	"github.com/ledgerline/lockbox-lens/internal/config"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/ledgerline/lockbox-lens/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.DatabasePath()

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initComments builds the remote comment store client when one is
// configured. Returns nil when comments are disabled; callers that can
// live without reviewer notes should treat nil as "skip comments".
func initComments() (service.CommentStore, error) {
	url := config.CommentServiceURL()
	if url == "" {
		return nil, nil
	}

	client, err := comments.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment client: %w", err)
	}
	return client, nil
}

// requireComments is initComments for commands that only make sense
// with a comment store.
func requireComments() (service.CommentStore, error) {
	store, err := initComments()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("no comment service configured: set comments.url in config or LOCKBOX_COMMENTS_URL")
	}
	return store, nil
}

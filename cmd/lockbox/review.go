package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerline/lockbox-lens/internal/config"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/ledgerline/lockbox-lens/internal/tui"
	"github.com/ledgerline/lockbox-lens/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Open the interactive reconciliation dashboard",
		Long: `Launch the terminal dashboard showing every unposted lockbox file as
a hierarchical reconciliation table. Expand payments into their proposed
invoice allocations, approve or reopen payments, mark payments to skip,
and walk a selection in a focused review session.`,
		RunE: runReview,
	}

	cmd.Flags().String("theme", "default", "Color theme (default, catppuccin-mocha)")
	cmd.Flags().String("author", "", "Name attached to review comments")
	_ = viper.BindPFlag("review.theme", cmd.Flags().Lookup("theme"))
	_ = viper.BindPFlag("review.author", cmd.Flags().Lookup("author"))

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	commentStore, err := initComments()
	if err != nil {
		// A broken comment config should not block reconciliation.
		slog.Warn("Comment store unavailable, continuing without comments", "error", err)
		commentStore = nil
	}

	theme := resolvePreference(ctx, cmd, store, "theme", "review.theme")
	author := resolvePreference(ctx, cmd, store, "author", "review.author")

	opts := []tui.Option{
		tui.WithStorage(store),
		tui.WithTheme(themes.GetTheme(theme)),
		tui.WithPrototypeKey(config.PrototypeKey()),
	}
	if commentStore != nil {
		opts = append(opts, tui.WithComments(commentStore))
	}
	if author != "" {
		opts = append(opts, tui.WithAuthor(author))
	}

	if err := tui.Run(ctx, opts...); err != nil {
		return fmt.Errorf("review dashboard failed: %w", err)
	}
	return nil
}

// resolvePreference picks a review setting: a flag set on the command
// line wins and is remembered for next time, otherwise the stored
// preference, otherwise the config/flag default.
func resolvePreference(ctx context.Context, cmd *cobra.Command, store service.Storage, flag, viperKey string) string {
	value := viper.GetString(viperKey)

	if cmd.Flags().Changed(flag) {
		if err := store.SetPreference(ctx, viperKey, value); err != nil {
			slog.Warn("Failed to save preference", "key", viperKey, "error", err)
		}
		return value
	}

	if saved, err := store.GetPreference(ctx, viperKey); err == nil && saved != "" {
		return saved
	}
	return value
}

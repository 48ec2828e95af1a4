package main

import (
	"fmt"
	"log/slog"

	"github.com/ledgerline/lockbox-lens/internal/cli"
	"github.com/ledgerline/lockbox-lens/internal/engine"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/ledgerline/lockbox-lens/internal/sheets"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a reconciliation report to Google Sheets",
		Long: `Write a reconciliation report covering every unposted lockbox file to
a Google Sheets spreadsheet.

Authentication uses either a service account or OAuth2 credentials from
the environment:

  LOCKBOX_SHEETS_SERVICE_ACCOUNT_PATH
  LOCKBOX_SHEETS_CLIENT_ID / _CLIENT_SECRET / _REFRESH_TOKEN
  LOCKBOX_SHEETS_SPREADSHEET_ID (optional, created when unset)
  LOCKBOX_SHEETS_SPREADSHEET_NAME (optional)`,
		RunE: runExport,
	}

	cmd.Flags().Bool("include-posted", false, "Include already-posted files in the report")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	includePosted, _ := cmd.Flags().GetBool("include-posted")
	ctx := cmd.Context()

	sheetsConfig := sheets.DefaultConfig()
	if err := sheetsConfig.LoadFromEnv(); err != nil {
		return fmt.Errorf("sheets configuration error: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	files, err := store.GetFiles(ctx, service.FileFilter{})
	if err != nil {
		return fmt.Errorf("failed to load files: %w", err)
	}
	if !includePosted {
		unposted := files[:0]
		for _, f := range files {
			if f.Status != model.FileStatusPosted {
				unposted = append(unposted, f)
			}
		}
		files = unposted
	}
	if len(files) == 0 {
		fmt.Println(cli.FormatInfo("Nothing to export."))
		return nil
	}

	summary, err := engine.NewPoster(store).Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to build summary: %w", err)
	}

	writer, err := sheets.NewWriter(ctx, sheetsConfig, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	slog.Info("📊 Exporting reconciliation report...",
		"files", len(files),
		"payments", summary.PaymentCount)

	if err := writer.Write(ctx, files, summary); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d file(s) to %q", len(files), sheetsConfig.SpreadsheetName)))
	return nil
}

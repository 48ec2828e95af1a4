package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ledgerline/lockbox-lens/internal/cli"
	"github.com/ledgerline/lockbox-lens/internal/engine"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/ofx"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import lockbox files from OFX/QFX statements",
		Long: `Import bank lockbox files from OFX or QFX statements exported from
your bank. Each statement becomes one lockbox file; credit transactions
become payments and debits are skipped. After import the allocation
engine proposes invoice matches against the open invoice catalog.

Examples:
  # Import single file
  lockbox import-ofx ~/Downloads/lockbox_0811.ofx

  # Import all OFX files in a directory
  lockbox import-ofx ~/Downloads/*.ofx

  # Preview without saving
  lockbox import-ofx --dry-run ~/Downloads/lockbox_0811.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	cmd.Flags().Bool("no-match", false, "Skip allocation matching after import")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noMatch, _ := cmd.Flags().GetBool("no-match")
	ctx := cmd.Context()

	allFiles, err := collectImportFiles(args)
	if err != nil {
		return err
	}
	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	slog.Info("🏦 Importing lockbox files...",
		"file_count", len(allFiles),
		"dry_run", dryRun)

	parser := ofx.NewParser()

	var parsed []*model.File
	seen := make(map[string]bool) // payment hashes, for cross-file dedup

	bar := progressbar.NewOptions(len(allFiles),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Parsing lockbox files..."),
	)

	for _, filePath := range allFiles {
		f, err := os.Open(filePath)
		if err != nil {
			slog.Error("Failed to open file", "file", filePath, "error", err)
			_ = bar.Add(1)
			continue
		}

		file, err := parser.ParseFile(ctx, f, filepath.Base(filePath))
		_ = f.Close()
		_ = bar.Add(1)

		if err != nil {
			slog.Error("Failed to parse lockbox file", "file", filePath, "error", err)
			continue
		}

		kept := file.Payments[:0]
		for _, p := range file.Payments {
			hash := p.GenerateHash()
			if seen[hash] {
				continue
			}
			seen[hash] = true
			kept = append(kept, p)
		}
		duplicates := len(file.Payments) - len(kept)
		file.Payments = kept

		if len(file.Payments) == 0 {
			slog.Warn("Every payment in file was a duplicate, skipping",
				"file", filepath.Base(filePath))
			continue
		}

		slog.Info("Parsed file",
			"file", file.Name,
			"payments", len(file.Payments),
			"duplicates", duplicates,
			"total", file.TotalAmount().StringFixed(2))
		parsed = append(parsed, file)
	}
	fmt.Fprintln(os.Stderr)

	if len(parsed) == 0 {
		slog.Warn("No payments found in any file")
		return nil
	}

	if dryRun {
		printImportPreview(parsed)
		slog.Info("🔍 Dry run complete - no data saved")
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	imported, err := persistImports(ctx, store, parsed, noMatch)
	if err != nil {
		return err
	}
	if imported == 0 {
		slog.Info("Nothing new to import - all payments were already stored")
		return nil
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d lockbox file(s). Run 'lockbox review' to reconcile.", imported)))
	return nil
}

// persistImports saves parsed files and runs allocation matching.
// Payments already stored by a previous run are dropped before anything
// is saved: a re-parsed statement mints fresh payment ids, so matching
// against them would reference rows that never reached the database.
// A file whose payments are all already stored is skipped entirely.
func persistImports(ctx context.Context, store service.Storage, parsed []*model.File, noMatch bool) (int, error) {
	matcher := engine.NewMatcher(store)

	imported := 0
	for _, file := range parsed {
		hashes := make([]string, len(file.Payments))
		for i, p := range file.Payments {
			hashes[i] = p.GenerateHash()
		}
		existing, err := store.ExistingPaymentHashes(ctx, hashes)
		if err != nil {
			return imported, fmt.Errorf("failed to check for previously imported payments: %w", err)
		}

		fresh := file.Payments[:0]
		for _, p := range file.Payments {
			if existing[p.GenerateHash()] {
				continue
			}
			fresh = append(fresh, p)
		}
		dropped := len(file.Payments) - len(fresh)
		file.Payments = fresh

		if len(file.Payments) == 0 {
			slog.Warn("Every payment in file already imported, skipping",
				"file", file.Name)
			continue
		}
		if dropped > 0 {
			slog.Info("Dropped previously imported payments",
				"file", file.Name, "dropped", dropped)
		}

		if err := store.SaveFile(ctx, file); err != nil {
			return imported, fmt.Errorf("failed to save file %s: %w", file.Name, err)
		}

		if !noMatch {
			if err := matcher.ProposeAllocations(ctx, file); err != nil {
				return imported, fmt.Errorf("allocation matching failed for %s: %w", file.Name, err)
			}
		}

		file.Status = model.FileStatusReady
		if err := store.SaveFile(ctx, file); err != nil {
			return imported, fmt.Errorf("failed to mark file %s ready: %w", file.Name, err)
		}
		imported++
	}
	return imported, nil
}

// collectImportFiles expands glob patterns and direct paths into a file
// list. Patterns that match nothing are warned about, not fatal.
func collectImportFiles(args []string) ([]string, error) {
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}
	return allFiles, nil
}

func printImportPreview(files []*model.File) {
	fmt.Println("\n📁 Import preview:")
	for _, file := range files {
		fmt.Printf("  - %s: %d payments, $%s\n",
			file.Name, file.PaymentCount(), file.TotalAmount().StringFixed(2))
		for i, p := range file.Payments {
			if i >= 5 {
				fmt.Printf("      ... and %d more\n", len(file.Payments)-5)
				break
			}
			fmt.Printf("      %s | $%s | %s\n",
				p.Date.Format("2006-01-02"), p.Amount.StringFixed(2), p.Counterparty)
		}
	}
}

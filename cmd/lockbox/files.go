package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/ledgerline/lockbox-lens/internal/cli"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/ledgerline/lockbox-lens/internal/recon"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/spf13/cobra"
)

func filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "List imported lockbox files",
		Long:  `Display imported lockbox files with payment counts, totals, and reconciliation progress.`,
		RunE:  runFiles,
	}

	cmd.Flags().String("status", "", "Filter by file status (processing, ready, posted)")
	cmd.Flags().BoolP("all", "a", false, "Include posted files")

	return cmd
}

func runFiles(cmd *cobra.Command, _ []string) error {
	statusFlag, _ := cmd.Flags().GetString("status")
	showAll, _ := cmd.Flags().GetBool("all")
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	filter := service.FileFilter{}
	if statusFlag != "" {
		status := model.FileStatus(statusFlag)
		switch status {
		case model.FileStatusProcessing, model.FileStatusReady, model.FileStatusPosted:
			filter.Status = &status
		default:
			return fmt.Errorf("unknown file status: %s", statusFlag)
		}
	}

	files, err := store.GetFiles(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to load files: %w", err)
	}

	if statusFlag == "" && !showAll {
		unposted := files[:0]
		for _, f := range files {
			if f.Status != model.FileStatusPosted {
				unposted = append(unposted, f)
			}
		}
		files = unposted
	}

	if len(files) == 0 {
		fmt.Println(cli.InfoStyle.Render("No lockbox files found. Use 'lockbox import-ofx' to import one."))
		return nil
	}

	arena := recon.NewArena(files)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Name"),
		headerStyle.Render("Uploaded"),
		headerStyle.Render("Status"),
		headerStyle.Render("Payments"),
		headerStyle.Render("Amount"),
		headerStyle.Render("Reconciled"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 24),
		strings.Repeat("-", 10),
		strings.Repeat("-", 10),
		strings.Repeat("-", 8),
		strings.Repeat("-", 12),
		strings.Repeat("-", 10))

	for _, f := range files {
		stats := arena.StatsForFile(f.ID)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t$%s\t%d/%d\n",
			f.Name,
			f.UploadedAt.Format("2006-01-02"),
			renderFileStatus(f.Status),
			f.PaymentCount(),
			f.TotalAmount().StringFixed(2),
			stats.Reconciled,
			stats.PaymentCount)
	}

	return nil
}

func renderFileStatus(status model.FileStatus) string {
	switch status {
	case model.FileStatusReady:
		return cli.SuccessStyle.Render(string(status))
	case model.FileStatusPosted:
		return cli.SubtleStyle.Render(string(status))
	default:
		return cli.WarningStyle.Render(string(status))
	}
}

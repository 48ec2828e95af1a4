package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/ledgerline/lockbox-lens/internal/cli"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func invoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Manage the open invoice catalog",
		Long: `Load and inspect the open invoices the allocation engine matches
payments against. The catalog comes from your billing system as a CSV
export; posting drains matched invoices automatically.`,
	}

	cmd.AddCommand(loadInvoicesCmd())
	cmd.AddCommand(listInvoicesCmd())

	return cmd
}

func loadInvoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [file.csv]",
		Short: "Load open invoices from a CSV export",
		Long: `Load open invoices from a CSV file with columns:

  number,customer_id,customer_name,outstanding

A header row is detected and skipped. Invoices with the same number
replace the existing entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			invoices, err := parseOpenInvoicesCSV(f)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if len(invoices) == 0 {
				fmt.Println(cli.FormatWarning("No invoices found in file"))
				return nil
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveOpenInvoices(ctx, invoices); err != nil {
				return fmt.Errorf("failed to save invoices: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Loaded %d open invoice(s)", len(invoices))))
			return nil
		},
	}
}

func listInvoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open invoices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			invoices, err := store.GetOpenInvoices(ctx)
			if err != nil {
				return fmt.Errorf("failed to get invoices: %w", err)
			}

			if len(invoices) == 0 {
				fmt.Println(cli.InfoStyle.Render("No open invoices. Use 'lockbox invoices load' to import a catalog."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				headerStyle.Render("Number"),
				headerStyle.Render("Customer"),
				headerStyle.Render("Outstanding"))
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				strings.Repeat("-", 12),
				strings.Repeat("-", 24),
				strings.Repeat("-", 12))

			total := decimal.Zero
			for _, inv := range invoices {
				fmt.Fprintf(w, "%s\t%s\t$%s\n", inv.Number, inv.CustomerName, inv.Outstanding.StringFixed(2))
				total = total.Add(inv.Outstanding)
			}
			fmt.Fprintf(w, "\t%s\t$%s\n", cli.BoldStyle.Render("Total"), total.StringFixed(2))

			return nil
		},
	}
}

// parseOpenInvoicesCSV reads number,customer_id,customer_name,outstanding
// rows. The header row, if present, is skipped.
func parseOpenInvoicesCSV(r io.Reader) ([]model.OpenInvoice, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	var invoices []model.OpenInvoice
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if line == 1 && strings.EqualFold(record[0], "number") {
			continue
		}

		outstanding, err := decimal.NewFromString(strings.TrimSpace(record[3]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid outstanding amount %q", line, record[3])
		}
		if record[0] == "" {
			return nil, fmt.Errorf("line %d: missing invoice number", line)
		}

		invoices = append(invoices, model.OpenInvoice{
			ID:           uuid.NewString(),
			Number:       strings.TrimSpace(record[0]),
			CustomerID:   strings.TrimSpace(record[1]),
			CustomerName: strings.TrimSpace(record[2]),
			Outstanding:  outstanding,
		})
	}

	return invoices, nil
}

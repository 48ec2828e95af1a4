package main

import (
	"fmt"

	"github.com/ledgerline/lockbox-lens/internal/cli"
	"github.com/ledgerline/lockbox-lens/internal/engine"
	"github.com/ledgerline/lockbox-lens/internal/service"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show reconciliation statistics",
		Long:  `Display aggregate reconciliation statistics over every unposted lockbox file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summary, err := engine.NewPoster(store).Summary(ctx)
			if err != nil {
				return fmt.Errorf("failed to build summary: %w", err)
			}

			fmt.Println(cli.RenderBox("Reconciliation Status", renderSummary(summary)))
			return nil
		},
	}
}

func renderSummary(s *service.ReportSummary) string {
	rate := 0.0
	if s.PaymentCount > 0 {
		rate = float64(s.Reconciled) / float64(s.PaymentCount) * 100
	}

	gate := cli.FormatError(fmt.Sprintf("Blocked: %d payment(s) not reconciled", s.PaymentCount-s.Reconciled))
	if s.Postable {
		gate = cli.FormatSuccess("Ready to post")
	}

	return fmt.Sprintf(`Files:        %d
Payments:     %d
Total amount: $%s
Reconciled:   %d/%d (%.0f%%)
Needs review: %d

%s`,
		s.FileCount,
		s.PaymentCount,
		s.TotalAmount.StringFixed(2),
		s.Reconciled, s.PaymentCount, rate,
		s.NeedsReview,
		gate)
}

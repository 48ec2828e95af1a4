package main

import (
	"errors"
	"fmt"

	"github.com/ledgerline/lockbox-lens/internal/cli"
	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/engine"
	"github.com/spf13/cobra"
)

func postCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post all reconciled lockbox files",
		Long: `Post every unposted lockbox file. Posting is all-or-nothing: if a
single payment anywhere is not approved and fully allocated, nothing
posts. Posted files drain their matched open invoices and become
read-only.`,
		RunE: runPost,
	}

	cmd.Flags().Bool("check", false, "Check the posting gate without posting")

	return cmd
}

func runPost(cmd *cobra.Command, _ []string) error {
	check, _ := cmd.Flags().GetBool("check")
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	poster := engine.NewPoster(store)

	if check {
		summary, err := poster.Summary(ctx)
		if err != nil {
			return fmt.Errorf("failed to build summary: %w", err)
		}
		if summary.Postable {
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Ready to post: %d file(s), %d payment(s), $%s",
				summary.FileCount, summary.PaymentCount, summary.TotalAmount.StringFixed(2))))
		} else {
			fmt.Println(cli.FormatError(fmt.Sprintf("Not postable: %d of %d payment(s) not reconciled",
				summary.PaymentCount-summary.Reconciled, summary.PaymentCount)))
		}
		return nil
	}

	result, err := poster.Post(ctx)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNoPayments):
			fmt.Println(cli.FormatInfo("Nothing to post."))
			return nil
		case errors.Is(err, common.ErrNotPostable):
			fmt.Println(cli.FormatError(err.Error()))
			fmt.Println(cli.SubtleStyle.Render("Run 'lockbox review' to reconcile the remaining payments."))
			return nil
		default:
			return fmt.Errorf("posting failed: %w", err)
		}
	}

	content := fmt.Sprintf(`Files posted:    %d
Payments posted: %d
Amount applied:  $%s`,
		result.FilesPosted,
		result.PaymentsPosted,
		result.Amount.StringFixed(2))
	if result.Skipped > 0 {
		content += fmt.Sprintf("\nAllocations skipped (invoice already closed): %d", result.Skipped)
	}

	fmt.Println(cli.RenderBox("Posting Complete", content))
	return nil
}

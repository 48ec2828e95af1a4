package main

import (
	"errors"
	"fmt"

	"github.com/ledgerline/lockbox-lens/internal/cli"
	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/engine"
	"github.com/spf13/cobra"
)

func approveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve [payment-id...]",
		Short: "Approve payments for posting",
		Long: `Mark payments as valid, clearing any issue tags. A payment must be
fully allocated before it can be approved; use 'lockbox review' to fix
allocations first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			poster := engine.NewPoster(store)
			approved := 0
			for _, id := range args {
				if err := poster.Approve(ctx, id); err != nil {
					var userErr *common.UserError
					if errors.As(err, &userErr) {
						fmt.Println(cli.FormatWarning(fmt.Sprintf("%s: %s", id, userErr.UserMessage)))
						continue
					}
					return fmt.Errorf("failed to approve %s: %w", id, err)
				}
				approved++
			}

			if approved > 0 {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Approved %d payment(s)", approved)))
			}
			return nil
		},
	}
}

func reopenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen [payment-id...]",
		Short: "Send approved payments back to review",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			poster := engine.NewPoster(store)
			for _, id := range args {
				if err := poster.Reopen(ctx, id); err != nil {
					return fmt.Errorf("failed to reopen %s: %w", id, err)
				}
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Reopened %d payment(s)", len(args))))
			return nil
		},
	}
}

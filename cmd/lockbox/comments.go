package main

import (
	"fmt"

	"github.com/ledgerline/lockbox-lens/internal/cli"
	"github.com/ledgerline/lockbox-lens/internal/config"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/spf13/cobra"
)

func commentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Manage reviewer comments",
		Long: `List, add, and delete reviewer comments stored in the remote comment
service. Comments are shared: every reviewer using the same prototype
key sees them.`,
	}

	cmd.PersistentFlags().String("key", "", "Prototype key (default: config comments.key)")

	cmd.AddCommand(listCommentsCmd())
	cmd.AddCommand(addCommentCmd())
	cmd.AddCommand(deleteCommentCmd())

	return cmd
}

func commentKey(cmd *cobra.Command) string {
	if key, _ := cmd.Flags().GetString("key"); key != "" {
		return key
	}
	return config.PrototypeKey()
}

func listCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List comments for this workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := requireComments()
			if err != nil {
				return err
			}

			comments, err := store.List(ctx, commentKey(cmd))
			if err != nil {
				return fmt.Errorf("failed to list comments: %w", err)
			}

			if len(comments) == 0 {
				fmt.Println(cli.InfoStyle.Render("No comments yet."))
				return nil
			}

			for _, c := range comments {
				header := fmt.Sprintf("%s · %s", c.Author, c.CreatedAt.Format("2006-01-02 15:04"))
				if c.Tab != "" {
					header += fmt.Sprintf(" · payment %s", c.Tab)
				}
				fmt.Println(cli.SubtleStyle.Render(header))
				fmt.Println("  " + c.Text)
				fmt.Println(cli.SubtleStyle.Render("  id: " + c.ID))
			}

			return nil
		},
	}
}

func addCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			author, _ := cmd.Flags().GetString("author")
			paymentID, _ := cmd.Flags().GetString("payment")
			ctx := cmd.Context()

			store, err := requireComments()
			if err != nil {
				return err
			}

			key := commentKey(cmd)
			saved, err := store.Add(ctx, key, model.Comment{
				Key:    key,
				Text:   args[0],
				Author: author,
				Tab:    paymentID,
			})
			if err != nil {
				return fmt.Errorf("failed to add comment: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Comment added: " + saved.ID))
			return nil
		},
	}

	cmd.Flags().String("author", "reviewer", "Comment author name")
	cmd.Flags().String("payment", "", "Attach the comment to a payment ID")

	return cmd
}

func deleteCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [comment-id]",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := requireComments()
			if err != nil {
				return err
			}

			if err := store.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete comment: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Comment deleted"))
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/ledgerline/lockbox-lens/internal/cli"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/spf13/cobra"
)

// matchLogics the allocation engine knows how to execute. Rules with
// any other MatchLogic are stored but never fire.
var matchLogics = []string{"reference_exact", "amount_exact", "customer_single_open"}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage allocation matching rules",
		Long:  `List and add the matching rules the allocation engine uses to propose invoice allocations.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(addRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all matching rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println(cli.InfoStyle.Render("No rules found. Use 'lockbox rules add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("Name"),
				headerStyle.Render("Logic"),
				headerStyle.Render("Confidence"),
				headerStyle.Render("Matched"),
				headerStyle.Render("Description"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 20),
				strings.Repeat("-", 20),
				strings.Repeat("-", 10),
				strings.Repeat("-", 7),
				strings.Repeat("-", 40))

			for _, r := range rules {
				desc := r.Description
				if desc == "" {
					desc = cli.SubtleStyle.Render("(no description)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					r.Name, r.MatchLogic, renderConfidence(r.Confidence), r.MatchedCount, desc)
			}

			return nil
		},
	}
}

func addRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a matching rule",
		Long: `Add a rule to the allocation engine's catalog.

Match logic must be one of: ` + strings.Join(matchLogics, ", ") + `.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logic, _ := cmd.Flags().GetString("logic")
			confidence, _ := cmd.Flags().GetString("confidence")
			description, _ := cmd.Flags().GetString("description")
			limitations, _ := cmd.Flags().GetStringSlice("limitation")
			ctx := cmd.Context()

			if !validMatchLogic(logic) {
				return fmt.Errorf("unknown match logic %q (want one of %s)", logic, strings.Join(matchLogics, ", "))
			}
			tier, err := parseConfidence(confidence)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rule := &model.Rule{
				ID:          uuid.NewString(),
				Name:        args[0],
				Description: description,
				MatchLogic:  logic,
				Confidence:  tier,
				Limitations: limitations,
			}
			if err := store.SaveRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to save rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added rule %q (%s)", rule.Name, rule.ID)))
			return nil
		},
	}

	cmd.Flags().String("logic", "reference_exact", "Match logic the engine executes")
	cmd.Flags().String("confidence", "medium", "Confidence tier (high, medium, low)")
	cmd.Flags().String("description", "", "Human-readable rule description")
	cmd.Flags().StringSlice("limitation", nil, "Known limitation (repeatable)")

	return cmd
}

func validMatchLogic(logic string) bool {
	for _, l := range matchLogics {
		if l == logic {
			return true
		}
	}
	return false
}

func parseConfidence(s string) (model.ConfidenceTier, error) {
	switch model.ConfidenceTier(strings.ToLower(s)) {
	case model.ConfidenceHigh:
		return model.ConfidenceHigh, nil
	case model.ConfidenceMedium:
		return model.ConfidenceMedium, nil
	case model.ConfidenceLow:
		return model.ConfidenceLow, nil
	default:
		return "", fmt.Errorf("unknown confidence tier %q (want high, medium, or low)", s)
	}
}

func renderConfidence(tier model.ConfidenceTier) string {
	switch tier {
	case model.ConfidenceHigh:
		return cli.SuccessStyle.Render(string(tier))
	case model.ConfidenceLow:
		return cli.WarningStyle.Render(string(tier))
	default:
		return string(tier)
	}
}

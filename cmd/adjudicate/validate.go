package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/claimguard/internal/policy"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rules>",
		Short: "Validate a rule catalog",
		Long: `Load a JSON or YAML rule catalog, compile its expression rules and
report what it contains. Exits non-zero when the catalog is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := policy.LoadCatalog(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog %s is valid\n", args[0])
			fmt.Fprintf(out, "  excluded categories:    %d\n", catalog.CategoryCount())
			fmt.Fprintf(out, "  partial-match keywords: %d\n", catalog.KeywordCount())
			fmt.Fprintf(out, "  expression rules:       %d\n", catalog.ExpressionCount())
			fmt.Fprintf(out, "  room rent allowance:    %g%% of sum insured per day\n", catalog.RoomRentPercentage())
			return nil
		},
	}
}

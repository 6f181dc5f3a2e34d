package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/claimguard/internal/domain"
	"github.com/opensource-finance/claimguard/internal/policy"
	"github.com/opensource-finance/claimguard/internal/review"
)

type claimFlags struct {
	summary bool
	review  bool
	timeout time.Duration
}

func newClaimCmd(root *rootFlags) *cobra.Command {
	flags := &claimFlags{}

	cmd := &cobra.Command{
		Use:   "claim <file>",
		Short: "Adjudicate a claim document",
		Long: `Load a claim JSON document, adjudicate it against the rule catalog
and print the result.

Examples:
  # Full decision as JSON
  adjudicate claim ./claim.json

  # Only the human-readable summary
  adjudicate claim ./claim.json --summary

  # Attach medical-necessity verdicts from the configured reviewer
  adjudicate claim ./claim.json --review`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClaim(cmd, root, flags, args[0])
		},
	}

	cmd.Flags().BoolVar(&flags.summary, "summary", false, "print only the summary text")
	cmd.Flags().BoolVar(&flags.review, "review", false, "run the configured necessity reviewer")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", time.Minute, "review timeout")
	return cmd
}

func runClaim(cmd *cobra.Command, root *rootFlags, flags *claimFlags, path string) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}

	engine, err := policy.NewEngineFromFile(cfg.Policy.RulesPath)
	if err != nil {
		return err
	}

	claim, err := policy.LoadClaim(path)
	if err != nil {
		return err
	}

	result, err := engine.Adjudicate(claim)
	if err != nil {
		return err
	}

	if flags.review {
		if err := reviewResult(cmd.Context(), cfg.Review, flags.timeout, claim, result); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if flags.summary {
		fmt.Fprintln(out, result.Summary)
		return nil
	}
	return printResult(out, result)
}

func reviewResult(ctx context.Context, cfg domain.ProviderConfig, timeout time.Duration, claim *domain.ClaimRecord, result *domain.AdjudicationResult) error {
	reviewer, err := review.New(cfg)
	if err != nil {
		return err
	}
	if reviewer == nil {
		return fmt.Errorf("review requested but no review provider is configured")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	verdicts, err := reviewer.ReviewNecessity(ctx, claim.Diagnosis, claim.ItemNames())
	if err != nil {
		return fmt.Errorf("necessity review: %w", err)
	}
	review.Merge(result, verdicts)
	return nil
}

func printResult(w io.Writer, result *domain.AdjudicationResult) error {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "CLAIMGUARD - POLICY ADJUDICATION RESULT")
	fmt.Fprintln(w, rule)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	fmt.Fprintln(w, rule)
	return nil
}

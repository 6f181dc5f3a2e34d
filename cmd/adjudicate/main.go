// Command adjudicate runs the ClaimGuard policy engine from the shell.
//
// Usage:
//
//	# Adjudicate a claim document and print the decision
//	adjudicate claim ./claim.json
//
//	# Extract a claim from a receipt image
//	adjudicate extract ./receipt.jpg extracted.json
//
//	# Check a rule catalog before deploying it
//	adjudicate validate ./configs/policy_rules.json
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/claimguard/internal/config"
	"github.com/opensource-finance/claimguard/internal/domain"
)

// Version information (set via ldflags)
var Version = "dev"

type rootFlags struct {
	cfgFile string
	rules   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "adjudicate",
		Short: "ClaimGuard policy adjudication from the command line",
		Long: `Adjudicate health-insurance claims against a rule catalog without
running the server. Claims are JSON documents in the same shape POST
/adjudicate accepts; results are printed as JSON.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.cfgFile, "config", "c", os.Getenv("CLAIMGUARD_CONFIG"), "config file path")
	cmd.PersistentFlags().StringVar(&flags.rules, "rules", "", "rule catalog path (overrides policy.rulesPath)")

	cmd.AddCommand(
		newClaimCmd(flags),
		newExtractCmd(flags),
		newValidateCmd(),
	)
	return cmd
}

// load resolves configuration and applies command-line overrides.
func (f *rootFlags) load() (*domain.Config, error) {
	cfg, err := config.Load(f.cfgFile)
	if err != nil {
		return nil, err
	}
	if f.rules != "" {
		cfg.Policy.RulesPath = f.rules
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/claimguard/internal/extract"
)

type extractFlags struct {
	provider string
	mockPath string
	timeout  time.Duration
}

func newExtractCmd(root *rootFlags) *cobra.Command {
	flags := &extractFlags{}

	cmd := &cobra.Command{
		Use:   "extract <image> [output]",
		Short: "Extract a claim from a receipt image",
		Long: `Send a receipt image to the configured extraction provider and print
the structured claim. With an output path the claim is also written to disk,
ready for "adjudicate claim".

The openai provider reads its key from OPENAI_API_KEY when the configuration
does not set one.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := ""
			if len(args) == 2 {
				output = args[1]
			}
			return runExtract(cmd, root, flags, args[0], output)
		},
	}

	cmd.Flags().StringVar(&flags.provider, "provider", "", "extraction provider: openai, file (overrides config)")
	cmd.Flags().StringVar(&flags.mockPath, "mock-path", "", "claim document returned by the file provider")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 2*time.Minute, "extraction timeout")
	return cmd
}

func runExtract(cmd *cobra.Command, root *rootFlags, flags *extractFlags, imagePath, output string) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	if flags.provider != "" {
		cfg.Extraction.Provider = flags.provider
		if flags.provider == "openai" && cfg.Extraction.APIKey == "" {
			cfg.Extraction.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if flags.mockPath != "" {
		cfg.Extraction.MockPath = flags.mockPath
	}

	extractor, err := extract.New(cfg.Extraction)
	if err != nil {
		return err
	}
	if extractor == nil {
		return fmt.Errorf("no extraction provider is configured")
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, flags.timeout)
	defer cancel()

	claim, err := extractor.ExtractClaim(ctx, image, imageMimeType(imagePath, image))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(claim, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode claim: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if output != "" {
		if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "claim written to %s\n", output)
	}
	return nil
}

// imageMimeType prefers the file extension and falls back to sniffing.
func imageMimeType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	}
	return http.DetectContentType(data)
}

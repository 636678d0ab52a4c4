package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/mapleads/internal/browser"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <email>...",
	Short: "Check e-mail deliverability with the configured verification service",
	Long: `Verify checks each address with an MX lookup (when verify.mx_precheck is
set) and the verification service at verify.base_url. It prints one line per
address: "deliverable" or "undeliverable".

Service errors count as deliverable so a flaky service never discards leads.

Example:
  mapleads verify info@joesbakery.com jane@example.org`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Verify.BaseURL == "" {
		return eris.New("verify.base_url is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Chrome is only needed to discover a key from the docs page
	var b *browser.Browser
	if cfg.Verify.APIKey == "" {
		if b, err = browser.New(cfg.Browser); err != nil {
			return err
		}
		defer b.Close()
	}

	verifier, err := newVerifier(cfg, b)
	if err != nil {
		return err
	}

	for _, email := range args {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "verify interrupted")
		}
		status := "undeliverable"
		if verifier.Verify(ctx, email) {
			status = "deliverable"
		}
		fmt.Printf("%s\t%s\n", email, status)
	}
	return nil
}

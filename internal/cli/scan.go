package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/mapleads/internal/model"
	"github.com/ppiankov/mapleads/internal/pipeline"
	"github.com/ppiankov/mapleads/internal/worker"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	area         string
	country      string
	target       int
	unbounded    bool
	exclude      []string
	excludeFile  string
	individual   bool
	owners       bool
	verifyEmails bool
	outPath      string
	runTimeout   time.Duration
	headful      bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <search term>",
	Short: "Discover and enrich businesses matching a search term",
	Long: `Scan runs one discovery run:
- Search the map directory in phases ("bakery in X", "bakery near X", ...)
- Visit listings in batches and extract name, address, phone and website
- Crawl each website for e-mail, social links and the owner's name
- Optionally ask the configured AI provider for owners the website does not name
- Optionally verify e-mail deliverability

Events are written to stderr as JSON lines; records go to --out.

Example:
  mapleads scan bakery --area "Springfield, IL" --country US --target 20
  mapleads scan "Joe's Bakery" --area Springfield --individual --owners
  mapleads scan florist --area Athens --country GR --unbounded --exclude "Flora Shop" --out leads.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	addRunFlags(scanCmd)
	scanCmd.Flags().StringVar(&area, "area", "", "geographic area to search")
	scanCmd.Flags().IntVar(&target, "target", 20, "number of records to collect")
	scanCmd.Flags().BoolVar(&unbounded, "unbounded", false, "collect everything discoverable (ignores --target)")
	scanCmd.Flags().BoolVar(&individual, "individual", false, "the search term is one business name")
	scanCmd.Flags().StringVarP(&outPath, "out", "o", "", "records output path (default: stdout)")
}

// addRunFlags registers the flags shared by scan and batch
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&country, "country", "", "ISO country code used for phone numbers")
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "business name to drop (repeatable, case-insensitive)")
	cmd.Flags().StringVar(&excludeFile, "exclude-file", "", "file with business names to drop, one per line")
	cmd.Flags().BoolVar(&owners, "owners", false, "resolve missing owners with the configured AI provider")
	cmd.Flags().BoolVar(&verifyEmails, "verify-emails", false, "verify e-mail deliverability")
	cmd.Flags().DurationVar(&runTimeout, "timeout", 0, "abort a run after this long (0 = no limit)")
	cmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if headful {
		cfg.Browser.Headless = false
	}

	exclusions, err := collectExclusions()
	if err != nil {
		return err
	}

	n := target
	if unbounded {
		n = model.Unbounded
	}
	spec, err := buildSpec(joinArgs(args), area, n, exclusions)
	if err != nil {
		return err
	}
	spec.IndividualNameSearch = individual

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, owners, verifyEmails)
	if err != nil {
		return err
	}
	defer a.Close()

	records, runErr := runOnce(ctx, a, spec, os.Stderr)

	// Partial results are still written after a failure
	if records != nil || runErr == nil {
		if err := writeRecords(outPath, records); err != nil {
			return err
		}
	}
	return runErr
}

func buildSpec(term, area string, n int, exclusions []string) (model.SearchSpec, error) {
	spec, err := model.NewSearchSpec(term, area, country, n, exclusions)
	if err != nil {
		return model.SearchSpec{}, err
	}
	spec.EnrichOwners = owners
	spec.VerifyEmails = verifyEmails
	return spec, nil
}

// runOnce executes one pipeline run with a fresh run ID, streaming events to w
func runOnce(ctx context.Context, a *app, spec model.SearchSpec, w io.Writer) ([]model.Record, error) {
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	runID := uuid.NewString()
	zap.L().Info("run started",
		zap.String("run_id", runID),
		zap.String("term", spec.SearchTerm),
		zap.String("area", spec.AreaQuery),
		zap.Int("target", spec.Target))

	out := pipeline.MultiEmitter{pipeline.NewJSONEmitter(w)}
	if verbose {
		out = append(out, pipeline.NewLogEmitter(zap.L()))
	}
	return a.pipeline.Run(ctx, spec, runID, out)
}

func collectExclusions() ([]string, error) {
	names := append([]string(nil), exclude...)
	if excludeFile != "" {
		fromFile, err := worker.ReadLinesFromFile(excludeFile)
		if err != nil {
			return nil, eris.Wrap(err, "exclusions")
		}
		names = append(names, fromFile...)
	}
	return names, nil
}

func writeRecords(path string, records []model.Record) (err error) {
	if records == nil {
		records = []model.Record{}
	}

	var w io.Writer = os.Stdout
	if path != "" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return eris.Wrapf(createErr, "create %s", path)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = eris.Wrapf(closeErr, "close %s", path)
			}
		}()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return eris.Wrap(err, "write records")
	}
	if path != "" {
		zap.L().Info("records written", zap.String("path", path), zap.Int("count", len(records)))
	}
	return nil
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

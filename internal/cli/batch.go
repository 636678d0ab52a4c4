package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ppiankov/mapleads/internal/worker"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	outputDir   string
	batchTarget int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Run several searches listed in a file",
	Long: `Batch runs one search per line of the input file, one after another,
sharing a single browser:
- Each line is "term; area" (the area is optional)
- Blank lines and lines starting with # are ignored
- Each search writes <term>-<area>.json and its event stream
  <term>-<area>.events.jsonl into the output directory

Example:
  mapleads batch searches.txt
  mapleads batch searches.txt --target 50 --output-dir ./leads --owners`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addRunFlags(batchCmd)
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./mapleads-out", "output directory for records")
	batchCmd.Flags().IntVar(&batchTarget, "target", 20, "records per search (0 = unbounded)")
}

// batchSearch is one line of a batch file
type batchSearch struct {
	Term string
	Area string
}

func parseBatchLine(line string) (batchSearch, error) {
	term, area, _ := strings.Cut(line, ";")
	s := batchSearch{Term: strings.TrimSpace(term), Area: strings.TrimSpace(area)}
	if s.Term == "" {
		return batchSearch{}, eris.Errorf("missing search term in %q", line)
	}
	return s, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if headful {
		cfg.Browser.Headless = false
	}

	lines, err := worker.ReadLinesFromFile(file)
	if err != nil {
		return err
	}
	searches := make([]batchSearch, 0, len(lines))
	for _, line := range lines {
		s, err := parseBatchLine(line)
		if err != nil {
			return eris.Wrap(err, file)
		}
		searches = append(searches, s)
	}
	if len(searches) == 0 {
		return eris.Errorf("no searches in %s", file)
	}

	exclusions, err := collectExclusions()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return eris.Wrap(err, "create output directory")
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  mapleads batch\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Searches:     %d\n", len(searches))
	fmt.Fprintf(os.Stderr, "  Target:       %d\n", batchTarget)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, owners, verifyEmails)
	if err != nil {
		return err
	}
	defer a.Close()

	successCount, failureCount, total := 0, 0, 0
	for _, s := range searches {
		if ctx.Err() != nil {
			break
		}

		n, err := runBatchSearch(ctx, a, s, exclusions)
		total += n
		if err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", s.label(), err)
			continue
		}
		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d records)\n", s.label(), n)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Searches:  %d\n", len(searches))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Records:   %d\n", total)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if ctx.Err() != nil {
		return eris.Wrap(ctx.Err(), "batch interrupted")
	}
	return nil
}

func runBatchSearch(ctx context.Context, a *app, s batchSearch, exclusions []string) (int, error) {
	spec, err := buildSpec(s.Term, s.Area, batchTarget, exclusions)
	if err != nil {
		return 0, err
	}

	slug := sanitizeFilename(s.label())
	events, err := os.Create(filepath.Join(outputDir, slug+".events.jsonl"))
	if err != nil {
		return 0, eris.Wrap(err, "create event log")
	}
	defer func() { _ = events.Close() }()

	records, runErr := runOnce(ctx, a, spec, events)
	if records != nil {
		if err := writeRecords(filepath.Join(outputDir, slug+".json"), records); err != nil {
			return len(records), err
		}
	}
	return len(records), runErr
}

func (s batchSearch) label() string {
	if s.Area == "" {
		return s.Term
	}
	return s.Term + " - " + s.Area
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	",", "",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	s = strings.Trim(s, ".-_")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if s == "" {
		s = "search"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

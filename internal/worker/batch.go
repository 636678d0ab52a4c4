package worker

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/ppiankov/mapleads/internal/model"
	"github.com/rotisserie/eris"
)

// Extractor turns one listing URL into a record. A nil record with a nil
// error means the listing was discarded.
type Extractor interface {
	Extract(ctx context.Context, listingURL string) (*model.Record, error)
}

// ExtractJob is one listing in a batch
type ExtractJob struct {
	Index     int
	URL       string
	Extractor Extractor
}

// Execute implements Job
func (j *ExtractJob) Execute(ctx context.Context) Result {
	rec, err := j.Extractor.Extract(ctx, j.URL)
	return &ExtractResult{Index: j.Index, URL: j.URL, Record: rec, Error: err}
}

// ExtractResult is the outcome of one ExtractJob
type ExtractResult struct {
	Index  int
	URL    string
	Record *model.Record
	Error  error
}

// GetError implements Result
func (r *ExtractResult) GetError() error {
	return r.Error
}

// BatchProcessor extracts a batch of URLs concurrently
type BatchProcessor struct {
	extractor   Extractor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(extractor Extractor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		extractor:   extractor,
		concurrency: concurrency,
	}
}

// ProcessURLs runs every URL and waits for all of them. Results come back in
// input order whatever the completion order was; URLs that never ran because
// ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*ExtractResult {
	if len(urls) == 0 {
		return []*ExtractResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, u := range urls {
		pool.Submit(&ExtractJob{Index: i, URL: u, Extractor: b.extractor})
	}

	byIndex := make([]*ExtractResult, len(urls))
	for _, result := range pool.Wait() {
		r := result.(*ExtractResult)
		byIndex[r.Index] = r
	}

	results := make([]*ExtractResult, 0, len(urls))
	for i, r := range byIndex {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			r = &ExtractResult{Index: i, URL: urls[i], Error: eris.Wrap(err, "not processed")}
		}
		results = append(results, r)
	}
	return results
}

// ReadLinesFromFile reads non-empty lines (one entry per line), skipping
// "#" comments and case-insensitive duplicates
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", filePath)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(line)
		if !seen[key] {
			seen[key] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "scan %s", filePath)
	}

	return lines, nil
}

package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/mapleads/internal/model"
)

// mockExtractor returns a record named after the URL's last path segment.
// URLs ending in "/fail" error, URLs ending in "/empty" are discarded.
type mockExtractor struct{}

func (m *mockExtractor) Extract(ctx context.Context, url string) (*model.Record, error) {
	// Later URLs finish first to prove results are reordered
	delay := 30*time.Millisecond - time.Duration(len(url))*time.Millisecond/4
	if delay > 0 {
		time.Sleep(delay)
	}
	switch {
	case strings.HasSuffix(url, "/fail"):
		return nil, errors.New("listing did not render")
	case strings.HasSuffix(url, "/empty"):
		return nil, nil
	}
	return &model.Record{BusinessName: url[strings.LastIndex(url, "/")+1:], MapsURL: url}, nil
}

func TestBatchProcessor_ProcessURLs(t *testing.T) {
	processor := NewBatchProcessor(&mockExtractor{}, 4)

	urls := []string{"https://maps.example/a", "https://maps.example/bb", "https://maps.example/ccc", "https://maps.example/dddd"}
	results := processor.ProcessURLs(context.Background(), urls)

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Index != i || res.URL != urls[i] {
			t.Errorf("result %d out of order: index %d url %s", i, res.Index, res.URL)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.URL, res.Error)
		}
		if res.Record == nil || res.Record.MapsURL != urls[i] {
			t.Errorf("expected record for %s", urls[i])
		}
	}
}

func TestBatchProcessor_ProcessURLs_ErrorsAndDiscards(t *testing.T) {
	processor := NewBatchProcessor(&mockExtractor{}, 2)

	results := processor.ProcessURLs(context.Background(), []string{
		"https://maps.example/fail", "https://maps.example/empty", "https://maps.example/ok",
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].GetError() == nil || results[0].Record != nil {
		t.Error("expected error and no record for failed listing")
	}
	if results[1].GetError() != nil || results[1].Record != nil {
		t.Error("expected discarded listing to have neither record nor error")
	}
	if results[2].Record == nil || results[2].Record.BusinessName != "ok" {
		t.Errorf("expected record 'ok', got %+v", results[2].Record)
	}
}

func TestBatchProcessor_ProcessURLs_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockExtractor{}, 2)

	results := processor.ProcessURLs(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessURLs_Cancelled(t *testing.T) {
	processor := NewBatchProcessor(&mockExtractor{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	urls := []string{"https://maps.example/a", "https://maps.example/b"}
	results := processor.ProcessURLs(ctx, urls)
	if len(results) != 2 {
		t.Fatalf("expected a result per URL, got %d", len(results))
	}
	for _, res := range results {
		if res.Record == nil && res.Error == nil {
			t.Errorf("expected %s to carry a record or an error", res.URL)
		}
	}
}

func TestReadLinesFromFile(t *testing.T) {
	content := "Joe's Bakery\n# competitors\n  Crumbs & Co  \n\nJOE'S BAKERY\nSweet Spot"

	path := filepath.Join(t.TempDir(), "exclude.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := ReadLinesFromFile(path)
	if err != nil {
		t.Fatalf("ReadLinesFromFile failed: %v", err)
	}

	expected := []string{"Joe's Bakery", "Crumbs & Co", "Sweet Spot"}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d: %v", len(expected), len(lines), lines)
	}
	for i, line := range lines {
		if line != expected[i] {
			t.Errorf("expected %q at index %d, got %q", expected[i], i, line)
		}
	}
}

func TestReadLinesFromFile_NonExistent(t *testing.T) {
	_, err := ReadLinesFromFile("non_existent_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestExtractResult_GetError(t *testing.T) {
	r1 := &ExtractResult{URL: "https://maps.example/a"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("extract failed")
	r2 := &ExtractResult{URL: "https://maps.example/a", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

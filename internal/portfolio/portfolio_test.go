package portfolio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okozhar/interview-simulator/internal/ai"
	"go.uber.org/zap"
)

func TestExtractBytesPlainFormats(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(zap.NewNop())

	tests := []struct {
		name   string
		hint   string
		data   string
		expect string
	}{
		{name: "txt", hint: ".txt", data: "  my portfolio  \n", expect: "my portfolio"},
		{name: "markdown", hint: "md", data: "# Achievements\n\n- science fair", expect: "# Achievements\n\n- science fair"},
		{name: "uppercase hint", hint: ".TXT", data: "text", expect: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractor.ExtractBytes(context.Background(), []byte(tt.data), tt.hint)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestExtractBytesUnsupportedFormat(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(zap.NewNop())

	_, err := extractor.ExtractBytes(context.Background(), []byte("whatever"), ".docx")
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if unsupported.Format != "docx" {
		t.Fatalf("expected format docx, got %q", unsupported.Format)
	}
}

func TestExtractBytesEmptyContent(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(zap.NewNop())

	if _, err := extractor.ExtractBytes(context.Background(), []byte("   \n\t"), ".txt"); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestExtractReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "portfolio.md")
	if err := os.WriteFile(path, []byte("robotics club captain"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	extractor := NewExtractor(zap.NewNop())
	got, err := extractor.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "robotics club captain" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := NewCache(dir, zap.NewNop())

	key := Key([]byte("document content"))
	cache.Put(key, Entry{Summary: "summary", Valid: true})

	if err := cache.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := NewCache(dir, zap.NewNop())
	entry, ok := reloaded.Get(key)
	if !ok {
		t.Fatalf("expected the entry to survive a reload")
	}
	if entry.Summary != "summary" || !entry.Valid {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestCachePrunesOldEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := NewCache(dir, zap.NewNop())

	cache.entries["stale"] = Entry{
		Summary:      "old",
		LastAccessed: time.Now().UTC().Add(-31 * 24 * time.Hour),
	}
	cache.Put("fresh", Entry{Summary: "new"})

	if err := cache.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, ok := cache.Get("stale"); ok {
		t.Fatalf("expected the stale entry to be pruned")
	}
	if _, ok := cache.Get("fresh"); !ok {
		t.Fatalf("expected the fresh entry to survive")
	}
}

func TestCacheCorruptFileStartsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, cacheFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	cache := NewCache(dir, zap.NewNop())
	if cache.Len() != 0 {
		t.Fatalf("expected an empty cache, got %d entries", cache.Len())
	}
}

type stubValidator struct {
	assessment *ai.PortfolioAssessment
	err        error
}

func (s *stubValidator) ValidatePortfolio(_ context.Context, _ string) (*ai.PortfolioAssessment, error) {
	return s.assessment, s.err
}

func TestRunChecks(t *testing.T) {
	t.Parallel()

	longEnough := "robotics club captain, science fair winner, aspiring engineer"

	t.Run("passes", func(t *testing.T) {
		deps := CheckDeps{Validator: &stubValidator{assessment: &ai.PortfolioAssessment{Valid: true}}}
		if err := RunChecks(context.Background(), deps, longEnough, DefaultChecks(10)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("too short", func(t *testing.T) {
		if err := RunChecks(context.Background(), CheckDeps{}, "short", DefaultChecks(10)); err == nil {
			t.Fatalf("expected a substance failure")
		}
	})

	t.Run("validator rejects", func(t *testing.T) {
		deps := CheckDeps{Validator: &stubValidator{assessment: &ai.PortfolioAssessment{Valid: false, Message: "unreadable"}}}
		if err := RunChecks(context.Background(), deps, longEnough, DefaultChecks(10)); err == nil {
			t.Fatalf("expected a validation failure")
		}
	})

	t.Run("missing validator skips ai check", func(t *testing.T) {
		if err := RunChecks(context.Background(), CheckDeps{}, longEnough, DefaultChecks(10)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

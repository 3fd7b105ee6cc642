package metadata

import (
	"context"
	"errors"
	"strings"
	"testing"

	"linksaver/internal/apperr"
)

// stubExtractor returns a fixed result and counts calls.
type stubExtractor struct {
	name  string
	meta  *Metadata
	err   error
	calls int
}

func (s *stubExtractor) Name() string { return s.name }

func (s *stubExtractor) Extract(context.Context, string, string) (*Metadata, error) {
	s.calls++
	return s.meta, s.err
}

func TestChainFirstSuccessWins(t *testing.T) {
	failing := &stubExtractor{name: "html", err: errors.New("timeout")}
	ok := &stubExtractor{name: "ai", meta: &Metadata{Title: "  A   talk ", Description: "about Go", Platform: "YouTube"}}
	unused := &stubExtractor{name: "spare", meta: &Metadata{Title: "never"}}

	chain := NewChain(failing, nil, ok, unused)
	m, err := chain.Extract(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if m.Title != "A talk" {
		t.Errorf("title should be whitespace-collapsed, got %q", m.Title)
	}
	if m.Platform != "youtube" || !m.IsVideo || m.EmbedURL != "https://www.youtube.com/embed/dQw4w9WgXcQ" {
		t.Errorf("platform fields: got %+v", m)
	}
	if failing.calls != 1 || ok.calls != 1 || unused.calls != 0 {
		t.Errorf("calls: failing=%d ok=%d unused=%d", failing.calls, ok.calls, unused.calls)
	}
}

func TestChainUsesHintForUnknownSites(t *testing.T) {
	chain := NewChain(&stubExtractor{name: "html", meta: &Metadata{Title: "Post", Platform: "Medium"}})
	m, err := chain.Extract(context.Background(), "https://example.com/post", "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if m.Platform != "medium" || m.IsVideo {
		t.Errorf("got %+v", m)
	}
}

func TestChainAllFail(t *testing.T) {
	chain := NewChain(
		&stubExtractor{name: "html", err: errors.New("boom")},
		&stubExtractor{name: "ai", meta: &Metadata{Title: "   "}},
	)
	_, err := chain.Extract(context.Background(), "https://example.com", "")
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("got %v, want upstream error", err)
	}

	_, err = NewChain().Extract(context.Background(), "https://example.com", "")
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("empty chain: got %v, want upstream error", err)
	}
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	first := &stubExtractor{name: "html", err: context.Canceled}
	second := &stubExtractor{name: "ai", meta: &Metadata{Title: "late"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewChain(first, second).Extract(ctx, "https://example.com", ""); err == nil {
		t.Fatal("expected an error")
	}
	if second.calls != 0 {
		t.Error("chain should stop once the request is cancelled")
	}
}

func TestClip(t *testing.T) {
	if got := clip("a\n\n  b\tc", 100); got != "a b c" {
		t.Errorf("got %q", got)
	}
	if got := clip(strings.Repeat("é", 10), 4); got != "éééé" {
		t.Errorf("clip should count runes, got %q", got)
	}
}

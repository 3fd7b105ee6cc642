// Package metadata fills in a link's title, description and platform from
// its URL so the user does not have to type them. Extraction is best
// effort: every extractor may fail, and callers fall back to manual input.
package metadata

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"linksaver/internal/apperr"
	"linksaver/internal/platform"
)

// Metadata is what extraction produces for a URL.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Platform    string `json:"platform"`
	IsVideo     bool   `json:"isVideo"`
	EmbedURL    string `json:"embedUrl,omitempty"`
}

// Extractor derives metadata for a URL. text is optional page content the
// client already has; extractors may use it instead of fetching.
type Extractor interface {
	Extract(ctx context.Context, rawURL, text string) (*Metadata, error)
	Name() string
}

// ErrNoMetadata is returned by an extractor that ran but found nothing.
var ErrNoMetadata = errors.New("no metadata found")

// Chain tries each extractor in order and returns the first result that
// has a title. The platform fields are always filled from the platform
// detector, using the extractor's guess as the hint.
type Chain struct {
	extractors []Extractor
}

// NewChain builds a chain. Nil extractors are skipped.
func NewChain(extractors ...Extractor) *Chain {
	c := &Chain{}
	for _, e := range extractors {
		if e != nil {
			c.extractors = append(c.extractors, e)
		}
	}
	return c
}

// Extract runs the chain. When every extractor fails the error has kind
// upstream.
func (c *Chain) Extract(ctx context.Context, rawURL, text string) (*Metadata, error) {
	var errs []error
	for _, e := range c.extractors {
		m, err := e.Extract(ctx, rawURL, text)
		if err == nil && m != nil && strings.TrimSpace(m.Title) != "" {
			return finish(m, rawURL), nil
		}
		if err == nil {
			err = ErrNoMetadata
		}
		slog.Debug("metadata extractor failed", "extractor", e.Name(), "url", rawURL, "error", err)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	err := apperr.New(apperr.KindUpstream, "could not extract metadata; enter the details manually")
	if len(errs) > 0 {
		slog.Info("metadata extraction failed", "url", rawURL, "error", errors.Join(errs...))
	}
	return nil, err
}

func finish(m *Metadata, rawURL string) *Metadata {
	det := platform.Detect(rawURL, m.Platform)
	return &Metadata{
		Title:       clip(m.Title, 300),
		Description: clip(m.Description, 2000),
		Platform:    det.Platform,
		IsVideo:     det.IsVideo,
		EmbedURL:    det.EmbedURL,
	}
}

// clip collapses whitespace and cuts s to at most n runes.
func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

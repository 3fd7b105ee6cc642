// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/html"
)

const (
	// maxBody caps how much of a page is read.
	maxBody = 2 << 20

	userAgent = "LinkSaverBot/1.0 (+metadata preview)"
)

// ErrBlockedAddress is returned when a URL resolves to a loopback,
// private or link-local address.
var ErrBlockedAddress = errors.New("address not allowed")

// HTMLExtractor reads Open Graph and standard meta tags from a page.
type HTMLExtractor struct {
	client *http.Client
}

// HTMLOption configures an HTMLExtractor.
type HTMLOption func(*htmlConfig)

type htmlConfig struct {
	allowPrivate bool
}

// AllowPrivateAddresses disables the private address check. Tests use it
// to reach httptest servers on loopback.
func AllowPrivateAddresses() HTMLOption {
	return func(c *htmlConfig) { c.allowPrivate = true }
}

// NewHTMLExtractor creates an extractor whose requests time out after
// timeout. Requests to private networks are refused unless allowed.
func NewHTMLExtractor(timeout time.Duration, opts ...HTMLOption) *HTMLExtractor {
	var cfg htmlConfig
	for _, o := range opts {
		o(&cfg)
	}

	dialer := &net.Dialer{Timeout: timeout}
	if !cfg.allowPrivate {
		dialer.Control = refusePrivate
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
	}

	return &HTMLExtractor{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
	}
}

func (e *HTMLExtractor) Name() string { return "html" }

// Extract parses text when it looks like HTML; otherwise it fetches the page.
func (e *HTMLExtractor) Extract(ctx context.Context, rawURL, text string) (*Metadata, error) {
	if looksLikeHTML(text) {
		if m := parseHTML(strings.NewReader(text)); m.Title != "" {
			return m, nil
		}
	}

	body, err := e.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	m := parseHTML(bytes.NewReader(body))
	if m.Title == "" {
		return nil, ErrNoMetadata
	}
	return m, nil
}

func (e *HTMLExtractor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("fetch %q: not an http(s) url", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("fetch: unexpected content type %q", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("fetch read body: %w", err)
	}
	return body, nil
}

// parseHTML walks the document once. Open Graph tags win over <title> and
// the plain description meta tag.
func parseHTML(r io.Reader) *Metadata {
	doc, err := html.Parse(r)
	if err != nil {
		return &Metadata{}
	}

	var title, ogTitle, twTitle, desc, ogDesc, ogSite string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = n.FirstChild.Data
				}
			case "meta":
				key, content := metaAttrs(n)
				switch key {
				case "og:title":
					ogTitle = content
				case "twitter:title":
					twTitle = content
				case "og:description":
					ogDesc = content
				case "description":
					desc = content
				case "og:site_name":
					ogSite = content
				}
			case "body":
				// Stop at <body> once <head> gave a title, so an <svg>
				// <title> further down is never used.
				if title != "" || ogTitle != "" {
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return &Metadata{
		Title:       clip(firstNonEmpty(ogTitle, twTitle, title), 300),
		Description: clip(firstNonEmpty(ogDesc, desc), 2000),
		Platform:    strings.ToLower(strings.TrimSpace(ogSite)),
	}
}

// metaAttrs returns the property/name key (lower-cased) and content of a
// <meta> element.
func metaAttrs(n *html.Node) (key, content string) {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(a.Val))
			}
		case "content":
			content = a.Val
		}
	}
	return key, content
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func looksLikeHTML(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(t, "<!doctype html") || strings.HasPrefix(t, "<html") ||
		strings.Contains(t, "<head")
}

// refusePrivate runs after DNS resolution, so hostnames that resolve to
// internal addresses are caught too.
func refusePrivate(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified() || ip.IsMulticast() {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

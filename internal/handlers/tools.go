// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strings"

	"linksaver/internal/apperr"
	"linksaver/internal/metadata"
	"linksaver/internal/platform"
)

// MetadataExtractor fills in link details for a URL.
type MetadataExtractor interface {
	Extract(ctx context.Context, rawURL, text string) (*metadata.Metadata, error)
}

// Tools groups the helper endpoints the link form uses before saving.
type Tools struct {
	extractor MetadataExtractor
}

// NewTools creates a new Tools handler group.
func NewTools(extractor MetadataExtractor) *Tools {
	return &Tools{extractor: extractor}
}

// Metadata suggests a title, description and platform for a URL. The
// optional text is pasted page content used instead of fetching.
func (h *Tools) Metadata(w http.ResponseWriter, r *http.Request) {
	var in struct {
		URL  string `json:"url"`
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.URL = strings.TrimSpace(in.URL)
	if msg := validateURL(in.URL); msg != "" {
		writeError(w, r, apperr.Validation("%s", msg))
		return
	}
	if len(in.Text) > maxBodyBytes/2 {
		writeError(w, r, apperr.Validation("text is too long"))
		return
	}

	md, err := h.extractor.Extract(r.Context(), in.URL, in.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, md)
}

// Platform classifies a URL without fetching it.
func (h *Tools) Platform(w http.ResponseWriter, r *http.Request) {
	var in struct {
		URL      string `json:"url"`
		Platform string `json:"platform"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.URL = strings.TrimSpace(in.URL)
	if in.URL == "" {
		writeError(w, r, apperr.Validation("URL is required."))
		return
	}

	writeJSON(w, http.StatusOK, platform.Detect(in.URL, in.Platform))
}

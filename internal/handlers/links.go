// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"linksaver/internal/apperr"
	"linksaver/internal/cache"
	"linksaver/internal/models"
	"linksaver/internal/platform"
	"linksaver/internal/store"
)

// Links groups the link CRUD handlers.
type Links struct {
	links *store.LinkStore
	lists *cache.ListCache
}

// NewLinks creates a new Links handler group. lists may be nil.
func NewLinks(links *store.LinkStore, lists *cache.ListCache) *Links {
	return &Links{links: links, lists: lists}
}

type linkRequest struct {
	Title       *string             `json:"title"`
	URL         *string             `json:"url"`
	Description *string             `json:"description"`
	Platform    *string             `json:"platform"`
	CategoryID  models.OptionalUUID `json:"categoryId"`
}

// trim trims every string field in place.
func (in *linkRequest) trim() {
	in.Title = trimmed(in.Title)
	in.URL = trimmed(in.URL)
	in.Description = trimmed(in.Description)
	in.Platform = trimmed(in.Platform)
}

// List returns the caller's links, newest first, narrowed by the
// categoryId, platform and search query parameters.
func (h *Links) List(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter, err := parseLinkFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	links, err := h.links.List(r.Context(), owner, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"links": links})
}

func parseLinkFilter(r *http.Request) (models.LinkFilter, error) {
	q := r.URL.Query()
	f := models.LinkFilter{
		Platform: strings.TrimSpace(q.Get("platform")),
		Search:   strings.TrimSpace(q.Get("search")),
	}

	if raw := strings.TrimSpace(q.Get("categoryId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, apperr.Validation("categoryId must be a category id")
		}
		f.CategoryID = &id
	}
	if utf8.RuneCountInString(f.Search) > maxSearchLen {
		return f, apperr.Validation("search is too long (max 200 characters)")
	}
	if utf8.RuneCountInString(f.Platform) > maxPlatformLen {
		return f, apperr.Validation("platform is too long (max 50 characters)")
	}
	return f, nil
}

// Get returns one of the caller's links.
func (h *Links) Get(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "link")
	if err != nil {
		writeError(w, r, err)
		return
	}

	link, err := h.links.FindByID(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"link": link})
}

// Create saves a new link. Without a platform one is detected from the URL.
func (h *Links) Create(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in linkRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.trim()
	if in.URL == nil {
		in.URL = new(string)
	}
	if in.Title == nil {
		in.Title = new(string)
	}
	if msg := validateLink(in.Title, in.URL, in.Description, in.Platform); msg != "" {
		writeError(w, r, apperr.Validation("%s", msg))
		return
	}

	input := store.LinkInput{
		Title:      *in.Title,
		URL:        *in.URL,
		CategoryID: in.CategoryID.Value,
	}
	if in.Description != nil {
		input.Description = *in.Description
	}
	if in.Platform != nil && *in.Platform != "" {
		input.Platform = platform.Normalize(*in.Platform)
	} else {
		input.Platform = platform.Detect(input.URL, "").Platform
	}

	link, err := h.links.Create(r.Context(), owner, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.lists.Invalidate(r.Context(), owner)

	writeJSON(w, http.StatusCreated, map[string]any{"link": link})
}

// Update applies a partial update. A new URL without an explicit platform
// re-detects the platform from that URL. An empty platform on its own is
// ignored.
func (h *Links) Update(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "link")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in linkRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.trim()
	if msg := validateLink(in.Title, in.URL, in.Description, in.Platform); msg != "" {
		writeError(w, r, apperr.Validation("%s", msg))
		return
	}

	patch := store.LinkPatch{
		Title:       in.Title,
		URL:         in.URL,
		Description: in.Description,
		CategoryID:  in.CategoryID,
	}
	switch {
	case in.Platform != nil && *in.Platform != "":
		p := platform.Normalize(*in.Platform)
		patch.Platform = &p
	case in.URL != nil:
		p := platform.Detect(*in.URL, "").Platform
		patch.Platform = &p
	}

	link, err := h.links.Update(r.Context(), owner, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if in.CategoryID.Set {
		h.lists.Invalidate(r.Context(), owner)
	}

	writeJSON(w, http.StatusOK, map[string]any{"link": link})
}

// Delete removes one of the caller's links.
func (h *Links) Delete(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "link")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.links.Delete(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	h.lists.Invalidate(r.Context(), owner)

	writeJSON(w, http.StatusOK, message("Link deleted"))
}

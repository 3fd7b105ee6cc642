// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"linksaver/internal/apperr"
	"linksaver/internal/cache"
	"linksaver/internal/models"
	"linksaver/internal/store"
)

// DefaultColor is used when a category is created without a color.
const DefaultColor = "#6366f1"

// Categories groups the category CRUD handlers. Every change drops the
// owner's cached list.
type Categories struct {
	categories *store.CategoryStore
	lists      *cache.ListCache
}

// NewCategories creates a new Categories handler group. lists may be nil.
func NewCategories(categories *store.CategoryStore, lists *cache.ListCache) *Categories {
	return &Categories{categories: categories, lists: lists}
}

type categoryRequest struct {
	Name     *string             `json:"name"`
	Color    *string             `json:"color"`
	ParentID models.OptionalUUID `json:"parentId"`
}

// List returns the caller's categories with parents, children and link
// counts, served from the list cache when possible.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, gen, ok := h.lists.Get(r.Context(), owner)
	if ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	categories, err := h.categories.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err = json.Marshal(map[string]any{"categories": categories})
	if err != nil {
		writeError(w, r, fmt.Errorf("encode categories: %w", err))
		return
	}
	body = append(body, '\n')
	h.lists.Set(r.Context(), owner, gen, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Get returns one of the caller's categories.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "category")
	if err != nil {
		writeError(w, r, err)
		return
	}

	category, err := h.categories.FindByID(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category})
}

// Create adds a category, optionally under a top-level parent.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in categoryRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	input := store.CategoryInput{Color: DefaultColor, ParentID: in.ParentID.Value}
	if n := trimmed(in.Name); n != nil {
		input.Name = *n
	}
	if c := trimmed(in.Color); c != nil && *c != "" {
		input.Color = *c
	}
	if msg := firstMessage(validateCategoryName(input.Name), validateColor(input.Color)); msg != "" {
		writeError(w, r, apperr.Validation("%s", msg))
		return
	}

	category, err := h.categories.Create(r.Context(), owner, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.lists.Invalidate(r.Context(), owner)

	writeJSON(w, http.StatusCreated, map[string]any{"category": category})
}

// Update renames, recolors or moves a category. parentId null detaches
// it to the top level; an absent parentId leaves the parent alone.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "category")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in categoryRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	patch := store.CategoryPatch{
		Name:     trimmed(in.Name),
		Color:    trimmed(in.Color),
		ParentID: in.ParentID,
	}
	if patch.Name != nil {
		if msg := validateCategoryName(*patch.Name); msg != "" {
			writeError(w, r, apperr.Validation("%s", msg))
			return
		}
	}
	if patch.Color != nil {
		if *patch.Color == "" {
			patch.Color = nil
		} else if msg := validateColor(*patch.Color); msg != "" {
			writeError(w, r, apperr.Validation("%s", msg))
			return
		}
	}

	category, err := h.categories.Update(r.Context(), owner, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.lists.Invalidate(r.Context(), owner)

	writeJSON(w, http.StatusOK, map[string]any{"category": category})
}

// Delete removes a category without subcategories. Its links are kept
// and become uncategorized.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "category")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detached, err := h.categories.Delete(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.lists.Invalidate(r.Context(), owner)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Category deleted",
		"detachedLinks": detached,
	})
}

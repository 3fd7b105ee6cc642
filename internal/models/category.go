// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#6366f1"

// Category is a user-owned label for links. Categories form a two-level
// tree: a top-level category (nil ParentID) may have subcategories, and a
// subcategory never has children of its own.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"-"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	ParentID  *uuid.UUID `json:"parentId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Virtual fields populated by store methods.
	Parent     *CategorySummary  `json:"parent"`
	Children   []CategorySummary `json:"children"`
	ChildCount int               `json:"childCount"`
	LinkCount  int               `json:"linkCount"`
}

// CategorySummary is the compact form of a category embedded in other
// responses (a category's parent and children, a link's category).
type CategorySummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

// IsTopLevel reports whether the category has no parent.
func (c *Category) IsTopLevel() bool {
	return c.ParentID == nil
}

// HasChildren reports whether at least one category names this one as parent.
func (c *Category) HasChildren() bool {
	return c.ChildCount > 0
}

// Summary returns the compact form of the category.
func (c *Category) Summary() CategorySummary {
	return CategorySummary{ID: c.ID, Name: c.Name, Color: c.Color}
}

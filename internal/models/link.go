package models

import (
	"time"

	"github.com/google/uuid"
)

// Link is a saved URL, optionally filed under one of the owner's categories.
type Link struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"-"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Platform    string     `json:"platform"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Category is populated by store reads when CategoryID is set.
	Category *CategorySummary `json:"category"`
}

// LinkFilter narrows a link listing. Zero values mean "no constraint".
type LinkFilter struct {
	CategoryID *uuid.UUID
	Platform   string
	Search     string
}

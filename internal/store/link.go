// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"linksaver/internal/apperr"
	"linksaver/internal/models"
)

// LinkStore handles all link-related database operations.
type LinkStore struct {
	db *sqlx.DB
}

// NewLinkStore creates a new LinkStore with the given database connection.
func NewLinkStore(db *sqlx.DB) *LinkStore {
	return &LinkStore{db: db}
}

// LinkInput holds the fields for a new link.
type LinkInput struct {
	Title       string
	URL         string
	Description string
	Platform    string
	CategoryID  *uuid.UUID
}

// LinkPatch holds a partial update; nil fields are left unchanged. A set
// CategoryID with a nil Value removes the link from its category.
type LinkPatch struct {
	Title       *string
	URL         *string
	Description *string
	Platform    *string
	CategoryID  models.OptionalUUID
}

type linkRow struct {
	ID            uuid.UUID  `db:"id"`
	OwnerID       uuid.UUID  `db:"owner_id"`
	Title         string     `db:"title"`
	URL           string     `db:"url"`
	Description   string     `db:"description"`
	Platform      string     `db:"platform"`
	CategoryID    *uuid.UUID `db:"category_id"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	CategoryName  *string    `db:"category_name"`
	CategoryColor *string    `db:"category_color"`
}

func (r *linkRow) toModel() models.Link {
	l := models.Link{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		URL:         r.URL,
		Description: r.Description,
		Platform:    r.Platform,
		CategoryID:  r.CategoryID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.CategoryID != nil && r.CategoryName != nil {
		l.Category = &models.CategorySummary{ID: *r.CategoryID, Name: *r.CategoryName}
		if r.CategoryColor != nil {
			l.Category.Color = *r.CategoryColor
		}
	}
	return l
}

const linkSelect = `
	SELECT l.id, l.owner_id, l.title, l.url, l.description, l.platform, l.category_id,
	       l.created_at, l.updated_at,
	       c.name AS category_name, c.color AS category_color
	FROM links l
	LEFT JOIN categories c ON c.id = l.category_id AND c.owner_id = l.owner_id`

// List returns the owner's links, newest first. Search matches title,
// description or URL case-insensitively; category and platform must
// match exactly. All given constraints must hold.
func (s *LinkStore) List(ctx context.Context, owner uuid.UUID, f models.LinkFilter) ([]models.Link, error) {
	conditions := []string{"l.owner_id = :owner_id"}
	args := map[string]any{"owner_id": owner}

	if f.CategoryID != nil {
		conditions = append(conditions, "l.category_id = :category_id")
		args["category_id"] = *f.CategoryID
	}
	if p := strings.ToLower(strings.TrimSpace(f.Platform)); p != "" {
		conditions = append(conditions, "l.platform = :platform")
		args["platform"] = p
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		conditions = append(conditions,
			"(l.title ILIKE :search OR l.description ILIKE :search OR l.url ILIKE :search)")
		args["search"] = "%" + escapeLike(q) + "%"
	}

	query := linkSelect + " WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY l.created_at DESC, l.id"

	query, params, err := sqlx.Named(query, args)
	if err != nil {
		return nil, fmt.Errorf("bind link filter: %w", err)
	}

	links := []models.Link{}
	var rows []linkRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), params...); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	for i := range rows {
		links = append(links, rows[i].toModel())
	}
	return links, nil
}

// FindByID retrieves one of the owner's links. Links owned by someone
// else are reported exactly like missing ones.
func (s *LinkStore) FindByID(ctx context.Context, owner, id uuid.UUID) (*models.Link, error) {
	var row linkRow
	err := s.db.GetContext(ctx, &row, linkSelect+` WHERE l.owner_id = $1 AND l.id = $2`, owner, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("link not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find link by id: %w", err)
	}
	l := row.toModel()
	return &l, nil
}

// Create inserts a link. The category check and the insert are one
// statement, so a category that is not the owner's never gets a link.
func (s *LinkStore) Create(ctx context.Context, owner uuid.UUID, in LinkInput) (*models.Link, error) {
	var id uuid.UUID
	err := s.db.GetContext(ctx, &id, `
		INSERT INTO links (owner_id, title, url, description, platform, category_id)
		SELECT $1::uuid, $2::text, $3::text, $4::text, $5::text, $6::uuid
		WHERE $6::uuid IS NULL
		   OR EXISTS (SELECT 1 FROM categories WHERE owner_id = $1::uuid AND id = $6::uuid)
		RETURNING id`,
		owner, in.Title, in.URL, in.Description, in.Platform, in.CategoryID,
	)
	if errors.Is(err, sql.ErrNoRows) || isPgError(err, pgForeignKeyViolation) {
		return nil, apperr.NotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}
	return s.FindByID(ctx, owner, id)
}

// Update applies a partial update to one of the owner's links.
func (s *LinkStore) Update(ctx context.Context, owner, id uuid.UUID, patch LinkPatch) (*models.Link, error) {
	if patch.CategoryID.Value != nil {
		ok, err := s.categoryOwned(ctx, owner, *patch.CategoryID.Value)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NotFound("category not found")
		}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE links SET
			title = COALESCE($3::text, title),
			url = COALESCE($4::text, url),
			description = COALESCE($5::text, description),
			platform = COALESCE($6::text, platform),
			category_id = CASE WHEN $7::boolean THEN $8::uuid ELSE category_id END,
			updated_at = NOW()
		WHERE owner_id = $1 AND id = $2`,
		owner, id, patch.Title, patch.URL, patch.Description, patch.Platform,
		patch.CategoryID.Set, patch.CategoryID.Value,
	)
	if isPgError(err, pgForeignKeyViolation) {
		return nil, apperr.NotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	} else if n == 0 {
		return nil, apperr.NotFound("link not found")
	}
	return s.FindByID(ctx, owner, id)
}

// Delete removes one of the owner's links. Deleting a link that is
// already gone reports not found.
func (s *LinkStore) Delete(ctx context.Context, owner, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE owner_id = $1 AND id = $2`, owner, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("link not found")
	}
	return nil
}

func (s *LinkStore) categoryOwned(ctx context.Context, owner, categoryID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE owner_id = $1 AND id = $2)`, owner, categoryID)
	if err != nil {
		return false, fmt.Errorf("check link category: %w", err)
	}
	return exists, nil
}

// likeEscaper escapes the ILIKE wildcards so search text matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

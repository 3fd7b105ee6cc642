// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"linksaver/internal/apperr"
	"linksaver/internal/models"
)

// CategoryStore manages categories in the database and is the only code
// that changes the category tree. Structural changes are checked against
// the owner's tree inside the same transaction as the write.
type CategoryStore struct {
	db *sqlx.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sqlx.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// CategoryInput holds the fields for a new category.
type CategoryInput struct {
	Name     string
	Color    string
	ParentID *uuid.UUID
}

// CategoryPatch holds an update. Nil pointers and an unset ParentID leave
// the stored value alone; a set ParentID with a nil Value detaches the
// category to the top level.
type CategoryPatch struct {
	Name     *string
	Color    *string
	ParentID models.OptionalUUID
}

// categoryRow is the scan target for categorySelect.
type categoryRow struct {
	ID          uuid.UUID  `db:"id"`
	OwnerID     uuid.UUID  `db:"owner_id"`
	Name        string     `db:"name"`
	Color       string     `db:"color"`
	ParentID    *uuid.UUID `db:"parent_id"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	ParentName  *string    `db:"parent_name"`
	ParentColor *string    `db:"parent_color"`
	ChildCount  int        `db:"child_count"`
	LinkCount   int        `db:"link_count"`
}

func (r *categoryRow) toModel() models.Category {
	c := models.Category{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		Name:       r.Name,
		Color:      r.Color,
		ParentID:   r.ParentID,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Children:   []models.CategorySummary{},
		ChildCount: r.ChildCount,
		LinkCount:  r.LinkCount,
	}
	if r.ParentID != nil && r.ParentName != nil {
		c.Parent = &models.CategorySummary{ID: *r.ParentID, Name: *r.ParentName}
		if r.ParentColor != nil {
			c.Parent.Color = *r.ParentColor
		}
	}
	return c
}

// categorySelect joins the parent summary and counts children and links.
// The parent join repeats the owner predicate so a row can never pick up
// another owner's category.
const categorySelect = `
	SELECT c.id, c.owner_id, c.name, c.color, c.parent_id, c.created_at, c.updated_at,
	       p.name AS parent_name, p.color AS parent_color,
	       (SELECT COUNT(*) FROM categories ch WHERE ch.parent_id = c.id) AS child_count,
	       (SELECT COUNT(*) FROM links l WHERE l.category_id = c.id) AS link_count
	FROM categories c
	LEFT JOIN categories p ON p.id = c.parent_id AND p.owner_id = c.owner_id`

// List returns the owner's categories ordered by name, each with its parent
// summary, its children (also by name) and its link count.
func (s *CategoryStore) List(ctx context.Context, owner uuid.UUID) ([]models.Category, error) {
	var rows []categoryRow
	err := s.db.SelectContext(ctx, &rows, categorySelect+`
		WHERE c.owner_id = $1
		ORDER BY lower(c.name), c.id`, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	items := make([]models.Category, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	for i := range rows {
		items[i] = rows[i].toModel()
		index[items[i].ID] = i
	}

	// Rows are already in name order, so children come out sorted too.
	for _, c := range items {
		if c.ParentID == nil {
			continue
		}
		if pi, ok := index[*c.ParentID]; ok {
			items[pi].Children = append(items[pi].Children, c.Summary())
		}
	}
	return items, nil
}

// FindByID retrieves one of the owner's categories. Categories owned by
// someone else are reported exactly like missing ones.
func (s *CategoryStore) FindByID(ctx context.Context, owner, id uuid.UUID) (*models.Category, error) {
	var row categoryRow
	err := s.db.GetContext(ctx, &row, categorySelect+`
		WHERE c.owner_id = $1 AND c.id = $2`, owner, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}

	c := row.toModel()
	if err := s.db.SelectContext(ctx, &c.Children, `
		SELECT id, name, color FROM categories
		WHERE owner_id = $1 AND parent_id = $2
		ORDER BY lower(name), id`, owner, id); err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	return &c, nil
}

// Create inserts a new category and returns it with its parent resolved.
func (s *CategoryStore) Create(ctx context.Context, owner uuid.UUID, in CategoryInput) (*models.Category, error) {
	var id uuid.UUID
	err := withOwnerLock(ctx, s.db, owner, func(tx *sqlx.Tx) error {
		tree, err := loadTree(ctx, tx, owner)
		if err != nil {
			return err
		}
		if err := tree.CheckCreate(in.ParentID); err != nil {
			return err
		}

		err = tx.GetContext(ctx, &id, `
			INSERT INTO categories (owner_id, name, color, parent_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			owner, in.Name, in.Color, in.ParentID,
		)
		if err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, owner, id)
}

// Update applies a patch. When the patch moves the category, the move is
// validated against the owner's current tree under the owner lock; name,
// color and parent are then written in one statement.
func (s *CategoryStore) Update(ctx context.Context, owner, id uuid.UUID, patch CategoryPatch) (*models.Category, error) {
	err := withOwnerLock(ctx, s.db, owner, func(tx *sqlx.Tx) error {
		tree, err := loadTree(ctx, tx, owner)
		if err != nil {
			return err
		}
		if !tree.Contains(id) {
			return apperr.NotFound("category not found")
		}
		if patch.ParentID.Set {
			if err := tree.CheckMove(id, patch.ParentID.Value); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE categories SET
				name = COALESCE($3::text, name),
				color = COALESCE($4::text, color),
				parent_id = CASE WHEN $5::boolean THEN $6::uuid ELSE parent_id END,
				updated_at = NOW()
			WHERE owner_id = $1 AND id = $2`,
			owner, id, patch.Name, patch.Color, patch.ParentID.Set, patch.ParentID.Value,
		)
		if err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, owner, id)
}

// Move sets only the parent of a category; nil detaches it to the top level.
func (s *CategoryStore) Move(ctx context.Context, owner, id uuid.UUID, parentID *uuid.UUID) (*models.Category, error) {
	return s.Update(ctx, owner, id, CategoryPatch{
		ParentID: models.OptionalUUID{Set: true, Value: parentID},
	})
}

// Delete removes a childless category. Links filed under it are detached
// (their category is set to null), not deleted. Returns the number of
// links detached.
func (s *CategoryStore) Delete(ctx context.Context, owner, id uuid.UUID) (int64, error) {
	var detached int64
	err := withOwnerLock(ctx, s.db, owner, func(tx *sqlx.Tx) error {
		tree, err := loadTree(ctx, tx, owner)
		if err != nil {
			return err
		}
		if err := tree.CheckDelete(id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE links SET category_id = NULL, updated_at = NOW()
			WHERE owner_id = $1 AND category_id = $2`, owner, id)
		if err != nil {
			return fmt.Errorf("detach links: %w", err)
		}
		if detached, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("detach links: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM categories WHERE owner_id = $1 AND id = $2`, owner, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return detached, nil
}

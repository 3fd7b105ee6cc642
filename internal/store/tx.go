// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"linksaver/internal/apperr"
	"linksaver/internal/hierarchy"
)

// withOwnerLock runs fn in a transaction that first takes a row lock on
// the owner's user row. Every structural category change goes through
// here, so two requests from the same owner validate and write one after
// the other and can never both pass validation against the same stale
// tree. Requests from different owners do not block each other.
func withOwnerLock(ctx context.Context, db *sqlx.DB, owner uuid.UUID, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.GetContext(ctx, &locked, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Unauthorized("account no longer exists")
	}
	if err != nil {
		return fmt.Errorf("lock owner: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// loadTree reads the structure of every category the owner has.
func loadTree(ctx context.Context, q sqlx.QueryerContext, owner uuid.UUID) (*hierarchy.Tree, error) {
	var rows []struct {
		ID       uuid.UUID  `db:"id"`
		ParentID *uuid.UUID `db:"parent_id"`
	}
	if err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT id, parent_id FROM categories WHERE owner_id = $1`, owner); err != nil {
		return nil, fmt.Errorf("load category tree: %w", err)
	}

	nodes := make([]hierarchy.Node, len(rows))
	for i, r := range rows {
		nodes[i] = hierarchy.Node{ID: r.ID, ParentID: r.ParentID}
	}
	return hierarchy.New(nodes), nil
}

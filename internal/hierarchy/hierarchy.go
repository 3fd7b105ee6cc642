// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package hierarchy holds one owner's category tree in memory and decides
// whether a structural change is allowed. The tree is an arena keyed by
// category ID (id -> parent) plus a child index (parent -> children) that
// is kept in step on every change. Nodes never point at each other, so a
// bad parent pointer can never make traversal loop forever.
//
// The store loads a Tree inside the same transaction as the write it
// guards, so the checks always run against the committed state.
package hierarchy

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"linksaver/internal/apperr"
)

// MaxDepth is the number of levels allowed: top-level categories and
// their direct children.
const MaxDepth = 2

// Node is the structural part of a category.
type Node struct {
	ID       uuid.UUID
	ParentID *uuid.UUID
}

// Tree is one owner's category structure.
type Tree struct {
	parents  map[uuid.UUID]*uuid.UUID
	children map[uuid.UUID]map[uuid.UUID]struct{}
}

// New builds a tree from flat rows. Rows whose parent is not among the
// nodes are kept, with the dangling parent recorded as-is; Valid reports
// them.
func New(nodes []Node) *Tree {
	t := &Tree{
		parents:  make(map[uuid.UUID]*uuid.UUID, len(nodes)),
		children: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
	for _, n := range nodes {
		t.parents[n.ID] = copyID(n.ParentID)
	}
	for id, parent := range t.parents {
		if parent != nil {
			t.link(id, *parent)
		}
	}
	return t
}

// Len returns the number of categories in the tree.
func (t *Tree) Len() int {
	return len(t.parents)
}

// Contains reports whether id is one of the owner's categories.
func (t *Tree) Contains(id uuid.UUID) bool {
	_, ok := t.parents[id]
	return ok
}

// Parent returns the parent of id, if it has one.
func (t *Tree) Parent(id uuid.UUID) (uuid.UUID, bool) {
	p := t.parents[id]
	if p == nil {
		return uuid.Nil, false
	}
	return *p, true
}

// Children returns the direct children of id in a stable order.
func (t *Tree) Children(id uuid.UUID) []uuid.UUID {
	set := t.children[id]
	out := make([]uuid.UUID, 0, len(set))
	for child := range set {
		out = append(out, child)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}

// ChildCount returns the number of direct children of id.
func (t *Tree) ChildCount(id uuid.UUID) int {
	return len(t.children[id])
}

// Ancestors walks the parent chain of id, nearest first. The walk stops
// after Len() steps, so a corrupted chain that loops is cut short rather
// than followed forever.
func (t *Tree) Ancestors(id uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	cur := t.parents[id]
	for steps := 0; cur != nil && steps < len(t.parents); steps++ {
		out = append(out, *cur)
		cur = t.parents[*cur]
	}
	return out
}

// Depth returns 0 for a top-level category and 1 for a subcategory.
func (t *Tree) Depth(id uuid.UUID) int {
	return len(t.Ancestors(id))
}

// CheckCreate validates attaching a new category under parentID.
func (t *Tree) CheckCreate(parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	if !t.Contains(*parentID) {
		return apperr.NotFound("parent category not found")
	}
	if t.Depth(*parentID)+1 >= MaxDepth {
		return apperr.InvalidOperation("cannot nest under a subcategory: only two levels are supported")
	}
	return nil
}

// CheckMove validates setting id's parent to parentID (nil detaches it to
// the top level). Checks run in a fixed order so callers always see the
// same error for the same request.
func (t *Tree) CheckMove(id uuid.UUID, parentID *uuid.UUID) error {
	if !t.Contains(id) {
		return apperr.NotFound("category not found")
	}
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return apperr.InvalidOperation("a category cannot be its own parent")
	}
	if !t.Contains(*parentID) {
		return apperr.NotFound("parent category not found")
	}
	if t.ChildCount(id) > 0 {
		return apperr.InvalidOperation("cannot nest a parent with children")
	}
	if t.Depth(*parentID)+1 >= MaxDepth {
		return apperr.InvalidOperation("cannot nest under a subcategory: only two levels are supported")
	}
	if slices.Contains(t.Ancestors(*parentID), id) {
		return apperr.New(apperr.KindCycleDetected, "moving the category there would create a cycle")
	}
	return nil
}

// CheckDelete validates removing id.
func (t *Tree) CheckDelete(id uuid.UUID) error {
	if !t.Contains(id) {
		return apperr.NotFound("category not found")
	}
	if n := t.ChildCount(id); n > 0 {
		return apperr.New(apperr.KindHasChildren,
			"category has %d subcategories; move or delete them first", n)
	}
	return nil
}

// Add inserts a new category after validating its parent.
func (t *Tree) Add(n Node) error {
	if t.Contains(n.ID) {
		return apperr.Conflict("category %s already exists", n.ID)
	}
	if err := t.CheckCreate(n.ParentID); err != nil {
		return err
	}
	t.parents[n.ID] = copyID(n.ParentID)
	if n.ParentID != nil {
		t.link(n.ID, *n.ParentID)
	}
	return nil
}

// Move changes id's parent after validating the move.
func (t *Tree) Move(id uuid.UUID, parentID *uuid.UUID) error {
	if err := t.CheckMove(id, parentID); err != nil {
		return err
	}
	if old := t.parents[id]; old != nil {
		t.unlink(id, *old)
	}
	t.parents[id] = copyID(parentID)
	if parentID != nil {
		t.link(id, *parentID)
	}
	return nil
}

// Remove deletes id after validating that it has no children.
func (t *Tree) Remove(id uuid.UUID) error {
	if err := t.CheckDelete(id); err != nil {
		return err
	}
	if old := t.parents[id]; old != nil {
		t.unlink(id, *old)
	}
	delete(t.parents, id)
	delete(t.children, id)
	return nil
}

// Valid checks the whole tree: every parent exists, no chain is longer
// than one hop, and the child index agrees with the arena.
func (t *Tree) Valid() error {
	counted := 0
	for id, parent := range t.parents {
		if parent == nil {
			continue
		}
		if !t.Contains(*parent) {
			return fmt.Errorf("category %s has missing parent %s", id, *parent)
		}
		if t.parents[*parent] != nil {
			return fmt.Errorf("category %s is nested more than %d levels deep", id, MaxDepth)
		}
		if _, ok := t.children[*parent][id]; !ok {
			return fmt.Errorf("child index is missing %s under %s", id, *parent)
		}
		counted++
	}

	indexed := 0
	for _, set := range t.children {
		indexed += len(set)
	}
	if indexed != counted {
		return fmt.Errorf("child index has %d entries, arena has %d parented nodes", indexed, counted)
	}
	return nil
}

func (t *Tree) link(child, parent uuid.UUID) {
	set, ok := t.children[parent]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		t.children[parent] = set
	}
	set[child] = struct{}{}
}

func (t *Tree) unlink(child, parent uuid.UUID) {
	set := t.children[parent]
	delete(set, child)
	if len(set) == 0 {
		delete(t.children, parent)
	}
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

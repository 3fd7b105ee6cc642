package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"linksaver/internal/apperr"
	"linksaver/internal/models"
)

func TestLinkStoreCRUD(t *testing.T) {
	db := testDB(t)
	s := NewLinkStore(db)
	categories := NewCategoryStore(db)
	ctx := context.Background()
	owner := testOwner(t, db, "link-crud@store-test.local")

	videos := mustCategory(t, categories, owner, "Videos", nil)

	created, err := s.Create(ctx, owner, LinkInput{
		Title:       "Go Concurrency Patterns",
		URL:         "https://www.youtube.com/watch?v=f6kdp27TYZs",
		Description: "Rob Pike",
		Platform:    "youtube",
		CategoryID:  &videos.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Category == nil || created.Category.Name != "Videos" {
		t.Errorf("expected embedded category summary, got %+v", created.Category)
	}

	updated, err := s.Update(ctx, owner, created.ID, LinkPatch{Title: ptr("Concurrency Patterns")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Concurrency Patterns" {
		t.Errorf("title: got %q", updated.Title)
	}
	if updated.URL != created.URL || updated.Platform != "youtube" {
		t.Error("unset fields must be unchanged")
	}
	if updated.CategoryID == nil || *updated.CategoryID != videos.ID {
		t.Error("unset category must be unchanged")
	}

	cleared, err := s.Update(ctx, owner, created.ID, LinkPatch{CategoryID: models.Null()})
	if err != nil {
		t.Fatalf("clear category: %v", err)
	}
	if cleared.CategoryID != nil || cleared.Category != nil {
		t.Error("expected the category to be cleared")
	}

	if err := s.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, owner, created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: got %v, want not found", err)
	}
	if _, err := s.Update(ctx, owner, created.ID, LinkPatch{Title: ptr("gone")}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update deleted link: got %v", err)
	}
}

func TestLinkStoreListFilters(t *testing.T) {
	db := testDB(t)
	s := NewLinkStore(db)
	categories := NewCategoryStore(db)
	ctx := context.Background()
	owner := testOwner(t, db, "link-filter@store-test.local")

	videos := mustCategory(t, categories, owner, "Videos", nil)
	tutorials := mustCategory(t, categories, owner, "Tutorials", &videos.ID)

	seed := []LinkInput{
		{Title: "Learning Rust", URL: "https://www.youtube.com/watch?v=aaa", Platform: "youtube", CategoryID: &videos.ID},
		{Title: "Python tips", URL: "https://vimeo.com/123", Description: "rust-free", Platform: "vimeo", CategoryID: &tutorials.ID},
		{Title: "Blog", URL: "https://example.com/RUST", Platform: "other"},
		{Title: "100% pure", URL: "https://example.com/pct", Platform: "other"},
	}
	for _, in := range seed {
		if _, err := s.Create(ctx, owner, in); err != nil {
			t.Fatalf("create %q: %v", in.Title, err)
		}
	}

	tests := []struct {
		name   string
		filter models.LinkFilter
		want   int
	}{
		{"no filter", models.LinkFilter{}, 4},
		{"search title, description and url", models.LinkFilter{Search: "rust"}, 3},
		{"search is case-insensitive", models.LinkFilter{Search: "PYTHON"}, 1},
		{"search wildcard is literal", models.LinkFilter{Search: "%"}, 1},
		{"category is exact", models.LinkFilter{CategoryID: &videos.ID}, 1},
		{"subcategory", models.LinkFilter{CategoryID: &tutorials.ID}, 1},
		{"platform", models.LinkFilter{Platform: "YouTube"}, 1},
		{"combined", models.LinkFilter{Platform: "other", Search: "rust"}, 1},
		{"no match", models.LinkFilter{Search: "haskell"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, owner, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d links, want %d", len(got), tt.want)
			}
		})
	}

	all, _ := s.List(ctx, owner, models.LinkFilter{})
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Error("links should be listed newest first")
		}
	}
}

func TestLinkStoreOwnerIsolation(t *testing.T) {
	db := testDB(t)
	s := NewLinkStore(db)
	categories := NewCategoryStore(db)
	ctx := context.Background()
	alice := testOwner(t, db, "link-alice@store-test.local")
	bob := testOwner(t, db, "link-bob@store-test.local")

	aliceCat := mustCategory(t, categories, alice, "Private", nil)
	link, err := s.Create(ctx, alice, LinkInput{Title: "mine", URL: "https://example.com", Platform: "other"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.FindByID(ctx, bob, link.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("FindByID across owners: got %v", err)
	}
	if _, err := s.Update(ctx, bob, link.ID, LinkPatch{Title: ptr("x")}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Update across owners: got %v", err)
	}
	if err := s.Delete(ctx, bob, link.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Delete across owners: got %v", err)
	}
	if list, _ := s.List(ctx, bob, models.LinkFilter{}); len(list) != 0 {
		t.Errorf("bob should see no links, got %d", len(list))
	}

	// Filing a link under someone else's category is reported as not found.
	_, err = s.Create(ctx, bob, LinkInput{Title: "t", URL: "https://example.com", Platform: "other", CategoryID: &aliceCat.ID})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("create under foreign category: got %v", err)
	}
	_, err = s.Create(ctx, bob, LinkInput{Title: "t", URL: "https://example.com", Platform: "other", CategoryID: ptr(uuid.New())})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("create under unknown category: got %v", err)
	}
	_, err = s.Update(ctx, alice, link.ID, LinkPatch{CategoryID: models.Some(uuid.New())})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update to unknown category: got %v", err)
	}
}

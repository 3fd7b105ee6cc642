// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"linksaver/internal/database"
	"linksaver/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "linksaver")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "linksaver")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db.DB); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email. Their categories and links
// cascade. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sqlx.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// testOwner creates a throwaway user and returns its ID. The user and
// everything it owns are removed when the test ends.
func testOwner(t *testing.T, db *sqlx.DB, email string) uuid.UUID {
	t.Helper()
	cleanUsers(t, db, email)
	t.Cleanup(func() { cleanUsers(t, db, email) })

	u, err := NewUserStore(db).Create(context.Background(), email, "password123", "Store Test")
	if err != nil {
		t.Fatalf("create owner %s: %v", email, err)
	}
	return u.ID
}

// mustCategory creates a category or fails the test.
func mustCategory(t *testing.T, s *CategoryStore, owner uuid.UUID, name string, parent *uuid.UUID) *models.Category {
	t.Helper()
	c, err := s.Create(context.Background(), owner, CategoryInput{
		Name: name, Color: models.DefaultCategoryColor, ParentID: parent,
	})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return c
}

func ptr[T any](v T) *T { return &v }

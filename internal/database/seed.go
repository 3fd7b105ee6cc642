package database

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

const (
	seedEmail    = "demo@linksaver.local"
	seedPassword = "demo-password"
)

// Seed populates the database with initial development data: a demo user
// with a small two-level category tree and a couple of links. It is a
// no-op once any user exists.
func Seed(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var userID string
	if err := tx.Get(&userID, `
		INSERT INTO users (email, password_hash, full_name)
		VALUES ($1, $2, $3) RETURNING id
	`, seedEmail, string(hash), "Demo User"); err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	var videosID, tutorialsID string
	if err := tx.Get(&videosID, `
		INSERT INTO categories (owner_id, name, color) VALUES ($1, 'Videos', '#ef4444') RETURNING id
	`, userID); err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}
	if err := tx.Get(&tutorialsID, `
		INSERT INTO categories (owner_id, name, color, parent_id) VALUES ($1, 'Tutorials', '#f97316', $2) RETURNING id
	`, userID, videosID); err != nil {
		return fmt.Errorf("seed insert subcategory: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO categories (owner_id, name, color) VALUES ($1, 'Articles', '#3b82f6')
	`, userID); err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO links (owner_id, title, url, description, platform, category_id)
		VALUES ($1, 'Go Concurrency Patterns', 'https://www.youtube.com/watch?v=f6kdp27TYZs', 'Rob Pike at Google I/O', 'youtube', $2)
	`, userID, tutorialsID); err != nil {
		return fmt.Errorf("seed insert link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo user",
		"email", seedEmail,
		"password", seedPassword,
	)

	return nil
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// tests. Integration tests are skipped when PostgreSQL is unavailable.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"linksaver/internal/database"
	"linksaver/internal/middleware"
	"linksaver/internal/store"
	"linksaver/internal/token"
)

const testSecret = "handlers-test-secret-long-enough-to-pass"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "linksaver")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "linksaver")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db.DB); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testAPI is the JSON API wired against a real database, with the same
// routes and middleware the server mounts.
type testAPI struct {
	db      *sqlx.DB
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testDB(t)

	tokens := token.NewManager(testSecret, time.Hour, nil)
	auth := NewAuth(store.NewUserStore(db), tokens)
	links := NewLinks(store.NewLinkStore(db), nil)
	categories := NewCategories(store.NewCategoryStore(db), nil)

	r := chi.NewRouter()
	r.Post("/auth/register", auth.Register)
	r.Post("/auth/login", auth.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens))
		r.Get("/auth/me", auth.Me)
		r.Put("/auth/me", auth.UpdateMe)
		r.Post("/auth/logout", auth.Logout)

		r.Get("/links", links.List)
		r.Post("/links", links.Create)
		r.Get("/links/{id}", links.Get)
		r.Put("/links/{id}", links.Update)
		r.Delete("/links/{id}", links.Delete)

		r.Get("/categories", categories.List)
		r.Post("/categories", categories.Create)
		r.Get("/categories/{id}", categories.Get)
		r.Put("/categories/{id}", categories.Update)
		r.Delete("/categories/{id}", categories.Delete)
	})

	return &testAPI{db: db, handler: r}
}

// do sends a request and returns the recorder. body may be nil, a string
// (sent as-is) or any value encoded as JSON.
func (a *testAPI) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := newRequest(t, method, path, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// register creates a user and returns its bearer token. The user and all
// it owns are removed when the test ends.
func (a *testAPI) register(t *testing.T, email string) string {
	t.Helper()
	a.db.Exec("DELETE FROM users WHERE email = $1", email)
	t.Cleanup(func() { a.db.Exec("DELETE FROM users WHERE email = $1", email) })

	rec := a.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	return resp.Token
}

func newRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// assertError checks the status and kind of an error response.
func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, status, rec.Body)
	}
	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	decode(t, rec, &body)
	if body.Kind != kind {
		t.Errorf("kind: got %q, want %q (error %q)", body.Kind, kind, body.Error)
	}
	if body.Error == "" {
		t.Error("error message should not be empty")
	}
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withOwner authenticates the request as owner without a real token.
func withOwner(t *testing.T, r *http.Request, owner uuid.UUID) *http.Request {
	t.Helper()
	tokens := token.NewManager(testSecret, time.Hour, nil)
	raw, _, err := tokens.Issue(owner)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := tokens.Parse(r.Context(), raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// LinkSaver API. Routes are split into a public group (health, register,
// login) and a bearer-authenticated group for everything else.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"linksaver/internal/handlers"
	"linksaver/internal/middleware"
)

// Handlers collects the handler groups the router mounts.
type Handlers struct {
	Auth       *handlers.Auth
	Links      *handlers.Links
	Categories *handlers.Categories
	Tools      *handlers.Tools
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. authLimiter may be nil to disable rate
// limiting of login and registration.
func New(tokens middleware.TokenParser, authLimiter *middleware.RateLimiter, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	r.Get("/health", healthHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if authLimiter != nil {
				r.Use(authLimiter.Middleware)
			}
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens))
			r.Get("/me", h.Auth.Me)
			r.Put("/me", h.Auth.UpdateMe)
			r.Post("/logout", h.Auth.Logout)
		})
	})

	// Everything below acts on the caller's own data.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens))

		r.Route("/links", func(r chi.Router) {
			r.Get("/", h.Links.List)
			r.Post("/", h.Links.Create)
			r.Get("/{id}", h.Links.Get)
			r.Put("/{id}", h.Links.Update)
			r.Delete("/{id}", h.Links.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Categories.List)
			r.Post("/", h.Categories.Create)
			r.Get("/{id}", h.Categories.Get)
			r.Put("/{id}", h.Categories.Update)
			r.Delete("/{id}", h.Categories.Delete)
		})

		r.Post("/metadata", h.Tools.Metadata)
		r.Post("/platform", h.Tools.Platform)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"route not found","kind":"not_found"}`))
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"error":"method not allowed","kind":"invalid_operation"}`))
}

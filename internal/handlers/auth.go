package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"linksaver/internal/apperr"
	"linksaver/internal/middleware"
	"linksaver/internal/models"
	"linksaver/internal/store"
	"linksaver/internal/token"
)

// Auth groups registration, login and profile handlers.
type Auth struct {
	users  *store.UserStore
	tokens *token.Manager
}

// NewAuth creates a new Auth handler group.
func NewAuth(users *store.UserStore, tokens *token.Manager) *Auth {
	return &Auth{users: users, tokens: tokens}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Register creates an account and signs the new user in.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	email := models.NormalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if msg := firstMessage(validateEmail(email), validatePassword(in.Password), validateFullName(fullName)); msg != "" {
		writeError(w, r, apperr.Validation("%s", msg))
		return
	}

	user, err := a.users.Create(r.Context(), email, in.Password, fullName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("user registered", "user_id", user.ID)

	a.respondWithToken(w, r, http.StatusCreated, user)
}

// Login verifies credentials and issues a bearer token. Unknown emails
// and wrong passwords get the same answer.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.users.FindByEmail(r.Context(), models.NormalizeEmail(in.Email))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil || !a.users.CheckPassword(user, in.Password) {
		writeError(w, r, apperr.Unauthorized("invalid email or password"))
		return
	}

	a.respondWithToken(w, r, http.StatusOK, user)
}

// Me returns the authenticated user.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.users.FindByID(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		// Valid token for an account deleted since it was issued.
		writeError(w, r, apperr.Unauthorized("account no longer exists"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// UpdateMe changes the authenticated user's full name.
func (a *Auth) UpdateMe(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in struct {
		FullName *string `json:"fullName"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.FullName == nil {
		writeError(w, r, apperr.Validation("fullName is required"))
		return
	}
	fullName := strings.TrimSpace(*in.FullName)
	if msg := validateFullName(fullName); msg != "" {
		writeError(w, r, apperr.Validation("%s", msg))
		return
	}

	user, err := a.users.UpdateProfile(r.Context(), owner, fullName)
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(w, r, apperr.Unauthorized("account no longer exists"))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout revokes the presented token until it would have expired.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromCtx(r.Context())
	if claims == nil {
		writeError(w, r, apperr.Unauthorized("authentication required"))
		return
	}
	if err := a.tokens.Revoke(r.Context(), claims); err != nil {
		writeError(w, r, fmt.Errorf("logout: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, message("Logged out"))
}

func (a *Auth) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	raw, expiresAt, err := a.tokens.Issue(user.ID)
	if err != nil {
		writeError(w, r, fmt.Errorf("issue token: %w", err))
		return
	}
	writeJSON(w, status, sessionResponse{User: user, Token: raw, ExpiresAt: expiresAt})
}

// firstMessage returns the first non-empty validation message.
func firstMessage(msgs ...string) string {
	for _, m := range msgs {
		if m != "" {
			return m
		}
	}
	return ""
}

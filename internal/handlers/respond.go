// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP API. Handlers read the caller
// from the request context, validate input, call the stores and map store
// errors to HTTP statuses by their apperr kind.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"linksaver/internal/apperr"
	"linksaver/internal/middleware"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps err to its status and writes the error body. Errors
// without a kind are logged and reported as a generic 500 so store
// details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: "internal server error",
			Kind:  apperr.KindInternal,
		})
		return
	}
	writeJSON(w, apperr.Status(appErr.Kind), errorBody{Error: appErr.Message, Kind: appErr.Kind})
}

type errorBody struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
}

// decodeJSON reads a JSON body into dst. Unknown fields, trailing data and
// oversized bodies are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is empty")
		case errors.As(err, &maxErr):
			return apperr.Validation("request body is too large")
		default:
			return apperr.Validation("invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return apperr.Validation("request body must contain a single JSON object")
	}
	return nil
}

// ownerFrom returns the authenticated caller. Routes using it sit behind
// RequireAuth, so a missing owner means the chain is misconfigured.
func ownerFrom(r *http.Request) (uuid.UUID, error) {
	owner, ok := middleware.OwnerFromCtx(r.Context())
	if !ok {
		return uuid.Nil, apperr.Unauthorized("authentication required")
	}
	return owner, nil
}

// pathID parses the {id} URL parameter. A malformed id cannot name any
// row, so it is reported as not found.
func pathID(r *http.Request, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("%s not found", what)
	}
	return id, nil
}

// message is the body of responses that carry no entity.
func message(format string, args ...any) map[string]any {
	return map[string]any{"message": fmt.Sprintf(format, args...)}
}

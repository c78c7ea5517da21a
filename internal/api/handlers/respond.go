package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/uniwork-be/internal/apperror"
	"github.com/isdelr/uniwork-be/internal/auth"
	"github.com/rs/zerolog/log"
)

// WriteError is the single place failures are turned into responses. The
// body is always {"message": ...}; causes are logged, never returned.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)
	status := appErr.Status()

	event := log.Debug()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("kind", appErr.Kind.String()).
		Int("status", status).
		Msg(appErr.Message)

	writeJSON(w, status, map[string]string{"message": appErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// decodeJSON reads a JSON body into v. A malformed body is a Validation error.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Validation("Invalid inputs provided")
	}
	return nil
}

// callerID returns the authenticated user's id attached by the auth gate.
func callerID(r *http.Request) (string, error) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || claims.UserID == "" {
		return "", apperror.Authentication("Authentication failed", auth.ErrMissingClaim)
	}
	return claims.UserID, nil
}

// NotFound answers requests that matched no route.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, apperror.RouteNotFound())
}

// MethodNotAllowed answers requests whose path exists under another method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, apperror.RouteNotFound())
}

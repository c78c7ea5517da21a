package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isdelr/uniwork-be/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testErrorWriter(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status())
	json.NewEncoder(w).Encode(map[string]string{"message": appErr.Message})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def", "abc.def", false},
		{"missing", "", "", true},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", true},
		{"empty token", "Bearer ", "", true},
		{"no space", "Bearerabc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsKind(err, apperror.KindAuthentication))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	c := newTestCredentials(t)
	token, err := c.IssueToken("user-1", "amy")
	require.NoError(t, err)

	var got *Claims
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/todolist", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	JWTMiddleware(c, testErrorWriter)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "amy", got.Username)
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	c := newTestCredentials(t)
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"invalid token", "Bearer invalid-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be called")
			})
			req := httptest.NewRequest(http.MethodDelete, "/api/posts/p1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			JWTMiddleware(c, testErrorWriter)(handler).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestJWTMiddleware_OptionsPassThrough(t *testing.T) {
	c := newTestCredentials(t)
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, ClaimsFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	rec := httptest.NewRecorder()
	JWTMiddleware(c, testErrorWriter)(handler).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

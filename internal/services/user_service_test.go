package services

import (
	"context"
	"testing"

	"github.com/isdelr/uniwork-be/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	st := newTestStore(t)
	creds := newTestCredentials(t)
	svc := NewUserService(st, creds)
	ctx := context.Background()

	signed, err := svc.Signup(ctx, SignupInput{Username: "amy", Email: "Amy@X.com", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "amy", signed.Username)
	assert.NotEmpty(t, signed.UserID)

	claims, err := creds.VerifyToken(signed.Token)
	require.NoError(t, err)
	assert.Equal(t, signed.UserID, claims.UserID)
	assert.Equal(t, "amy", claims.Username)

	user := findTestUser(t, st, signed.UserID)
	assert.Equal(t, "amy@x.com", user.Email)
	assert.NotEqual(t, "p", user.PasswordHash)
	assert.Empty(t, user.Posts)
	assert.Empty(t, user.Calendar)
	assert.Empty(t, user.Todolist)

	logged, err := svc.Login(ctx, "amy", "p")
	require.NoError(t, err)
	assert.Equal(t, signed.UserID, logged.UserID)

	claims, err = creds.VerifyToken(logged.Token)
	require.NoError(t, err)
	assert.Equal(t, signed.UserID, claims.UserID)
	assert.Equal(t, "amy", claims.Username)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	st := newTestStore(t)
	svc := NewUserService(st, newTestCredentials(t))
	ctx := context.Background()

	first, err := svc.Signup(ctx, SignupInput{Username: "amy", Email: "a@x.com", Password: "p"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupInput{Username: "amy", Email: "b@x.com", Password: "q"})
	assertKind(t, err, apperror.KindValidation)
	assert.Equal(t, 422, apperror.From(err).Status())
	assert.Equal(t, "Signing up failed, username already exists", apperror.From(err).Message)

	existing, err := st.FindUserByUsername(ctx, "amy")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, existing.ID)
	assert.Equal(t, "a@x.com", existing.Email)
}

func TestSignup_InvalidInputs(t *testing.T) {
	svc := NewUserService(newTestStore(t), newTestCredentials(t))
	tests := []struct {
		name  string
		input SignupInput
	}{
		{"empty username", SignupInput{Email: "a@x.com", Password: "p"}},
		{"empty password", SignupInput{Username: "amy", Email: "a@x.com"}},
		{"bad email", SignupInput{Username: "amy", Email: "not-an-email", Password: "p"}},
		{"named email", SignupInput{Username: "amy", Email: "Amy <a@x.com>", Password: "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.input)
			assertKind(t, err, apperror.KindValidation)
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := NewUserService(newTestStore(t), newTestCredentials(t))
	ctx := context.Background()
	_, err := svc.Signup(ctx, SignupInput{Username: "amy", Email: "a@x.com", Password: "p"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "amy", "wrong")
	assertKind(t, err, apperror.KindAuthentication)
	assert.Equal(t, "Could not log in, invalid credentials", apperror.From(err).Message)

	_, err = svc.Login(ctx, "nobody", "p")
	assertKind(t, err, apperror.KindAuthentication)
	assert.Equal(t, 401, apperror.From(err).Status())
}

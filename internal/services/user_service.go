package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/uniwork-be/internal/apperror"
	"github.com/isdelr/uniwork-be/internal/models"
	"github.com/isdelr/uniwork-be/internal/store"
)

// CredentialProvider hashes passwords and issues tokens.
type CredentialProvider interface {
	HashPassword(password string) (string, error)
	CheckPassword(password, hash string) (bool, error)
	IssueToken(userID, username string) (string, error)
}

// SignupInput holds the fields accepted by Signup.
type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
}

// UserService provides business logic for user accounts.
type UserService struct {
	store store.Store
	creds CredentialProvider
}

// NewUserService creates a new UserService.
func NewUserService(st store.Store, creds CredentialProvider) *UserService {
	return &UserService{store: st, creds: creds}
}

// Signup creates a user with empty reference lists and returns a token for it.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	if err := requireFields(input.Username, input.Password); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, apperror.Validation(invalidInputs)
	}

	_, err = s.store.FindUserByUsername(ctx, input.Username)
	switch {
	case err == nil:
		return nil, apperror.Validation("Signing up failed, username already exists")
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperror.Store("Signing up failed", err)
	}

	hash, err := s.creds.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        email,
		PasswordHash: hash,
		Posts:        []string{},
		Calendar:     []string{},
		Todolist:     []string{},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Validation("Signing up failed, username already exists")
		}
		return nil, apperror.Store("Signing up failed", err)
	}

	token, err := s.creds.IssueToken(user.ID, user.Username)
	if err != nil {
		return nil, apperror.Internal("Signing up failed", err)
	}
	return &AuthResult{UserID: user.ID, Username: user.Username, Token: token}, nil
}

// Login verifies a username and password and returns a fresh token.
func (s *UserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.Authentication("Could not log in, invalid credentials", nil)
		}
		return nil, apperror.Store("Logging in failed", err)
	}

	ok, err := s.creds.CheckPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Authentication("Could not log in, invalid credentials", nil)
	}

	token, err := s.creds.IssueToken(user.ID, user.Username)
	if err != nil {
		return nil, apperror.Internal("Logging in failed", err)
	}
	return &AuthResult{UserID: user.ID, Username: user.Username, Token: token}, nil
}

// normalizeEmail accepts a bare address and lower-cases it.
func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", err
	}
	if addr.Name != "" || addr.Address != strings.TrimSpace(email) {
		return "", errors.New("email must be a bare address")
	}
	return strings.ToLower(addr.Address), nil
}

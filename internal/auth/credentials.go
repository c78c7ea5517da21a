package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/uniwork-be/internal/apperror"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinSecretLength is the shortest HS256 signing secret accepted.
	MinSecretLength = 32
	DefaultTokenTTL = time.Hour
	DefaultCost     = 10
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenVerifier verifies identity tokens.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*Claims, error)
}

// Credentials hashes passwords and issues and verifies identity tokens.
type Credentials struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewCredentials creates a credential service. ttl and cost fall back to
// DefaultTokenTTL and DefaultCost when zero.
func NewCredentials(secret []byte, ttl time.Duration, cost int) (*Credentials, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Credentials{secret: secret, ttl: ttl, cost: cost, now: time.Now}, nil
}

// HashPassword returns the bcrypt hash of password.
func (c *Credentials) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", apperror.Internal("Could not create user", fmt.Errorf("hashing password: %w", err))
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash. A mismatch is a
// normal false result; an error means the comparison itself could not run.
func (c *Credentials) CheckPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, apperror.Internal("Could not log in", fmt.Errorf("comparing password: %w", err))
	}
}

// IssueToken creates a signed token for the given user.
func (c *Credentials) IssueToken(userID, username string) (string, error) {
	now := c.now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", apperror.Internal("Could not issue token", fmt.Errorf("signing token: %w", err))
	}
	return signed, nil
}

// VerifyToken parses and validates a token string.
func (c *Credentials) VerifyToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Authentication("Authentication failed", ErrExpiredToken)
		}
		return nil, apperror.Authentication("Authentication failed", fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}
	if !token.Valid {
		return nil, apperror.Authentication("Authentication failed", ErrInvalidToken)
	}
	if claims.UserID == "" {
		return nil, apperror.Authentication("Authentication failed", fmt.Errorf("%w: userId", ErrMissingClaim))
	}
	return claims, nil
}

// Package auth handles user registration, login, and JWT issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrWrongPassword = errors.New("wrong password")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingFields = errors.New("name, email and password are required")
)

// UserStore is the slice of the repository auth needs.
// *storage.Repository satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, user core.User) error
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

type Service struct {
	store    UserStore
	secret   []byte
	tokenTTL time.Duration
}

func NewService(store UserStore, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register creates a user with a bcrypt password hash and returns it
// together with a fresh token.
func (s *Service) Register(ctx context.Context, name, email, password string) (core.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return core.User{}, "", ErrMissingFields
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return core.User{}, "", ErrEmailTaken
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return core.User{}, "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user := core.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// The lookup above races with concurrent registrations; the
		// UNIQUE constraint is the authority.
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return core.User{}, "", ErrEmailTaken
		}
		return core.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return core.User{}, "", err
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID)
	return user, token, nil
}

// Login verifies the password and returns the user with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return core.User{}, "", ErrUserNotFound
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return core.User{}, "", ErrWrongPassword
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return core.User{}, "", err
	}
	return user, token, nil
}

// IssueToken signs an HS256 JWT whose subject is the user ID.
func (s *Service) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates signature and expiry and returns the user ID.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

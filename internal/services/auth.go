package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/usf-event/backend/internal/models"
	"github.com/anonto42/usf-event/backend/internal/repositories"
	"github.com/anonto42/usf-event/backend/pkg/firebase"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates identities and issues session tokens.
type AuthService struct {
	users     repositories.UserRepository
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(users repositories.UserRepository, jwtSecret string, ttl time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// TTL is how long issued sessions stay valid.
func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

// Authenticate checks an email/password pair against an active identity.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up identity: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	return s.IssueToken(user)
}

// LoginWithFirebase maps a verified Firebase identity onto an existing
// account, linking the Firebase UID on first use. Accounts are never created
// here since every identity needs a profile from the registration workflow.
func (s *AuthService) LoginWithFirebase(ctx context.Context, identity *firebase.TokenIdentity) (string, error) {
	user, err := s.users.GetUserByFirebaseUID(ctx, identity.UID)
	if errors.Is(err, repositories.ErrNotFound) {
		// Only a provider-verified email may claim an unlinked account.
		if !identity.EmailVerified {
			return "", ErrInvalidCredentials
		}
		user, err = s.users.GetUserByEmail(ctx, strings.ToLower(identity.Email))
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		if err != nil {
			return "", fmt.Errorf("look up identity: %w", err)
		}
		uid := identity.UID
		user.FirebaseUID = &uid
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return "", fmt.Errorf("link firebase uid: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("look up identity: %w", err)
	}
	if !user.IsActive {
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(user)
}

// IssueToken generates a JWT for a given user
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ParseToken validates a session token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

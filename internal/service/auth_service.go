package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/campushq/campusgate/internal/config"
	"github.com/campushq/campusgate/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// TokenType distinguishes access vs refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType  `json:"token_type"`
	UserID    int        `json:"user_id"`
	Role      model.Role `json:"role"`
}

// AuthService handles password hashing, JWT issuance and the revocable
// refresh-session registry in Redis.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateTokenPair creates an access + refresh token pair for the user
// and registers the refresh session in Redis. A new login replaces any
// previous refresh session for the same user.
func (s *AuthService) GenerateTokenPair(ctx context.Context, user *model.User) (access, refresh string, err error) {
	access, _, err = s.signToken(user, TokenTypeAccess, s.cfg.AccessExpiry)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	var refreshJTI string
	refresh, refreshJTI, err = s.signToken(user, TokenTypeRefresh, s.cfg.RefreshExpiry)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}

	sessionKey := config.CacheKey.RefreshSessionKey(user.ID)
	if err := s.rdb.Set(ctx, sessionKey, refreshJTI, s.cfg.RefreshExpiry).Err(); err != nil {
		return "", "", fmt.Errorf("store refresh session: %w", err)
	}

	return access, refresh, nil
}

func (s *AuthService) signToken(user *model.User, tokenType TokenType, ttl time.Duration) (signed, jti string, err error) {
	jti = uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
		UserID:    user.ID,
		Role:      user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err = token.SignedString([]byte(s.cfg.JWTSecret))
	return signed, jti, err
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidateSession checks that the user still has an active refresh
// session. Access tokens outlive a revocation otherwise.
func (s *AuthService) ValidateSession(ctx context.Context, userID int) error {
	sessionKey := config.CacheKey.RefreshSessionKey(userID)
	_, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionInvalidated
		}
		return fmt.Errorf("check session: %w", err)
	}
	return nil
}

// RevokeRefreshToken validates the presented refresh token and removes
// its session. Used by logout. A token whose JTI no longer matches the
// stored session is treated as already revoked.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshToken string) (*Claims, error) {
	claims, err := s.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, errors.New("not a refresh token")
	}

	sessionKey := config.CacheKey.RefreshSessionKey(claims.UserID)
	stored, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if stored == claims.ID {
		if err := s.rdb.Del(ctx, sessionKey).Err(); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
	}
	return claims, nil
}

// RevokeUserSession force-logs-out a user: deletes the refresh session
// and notifies any connected dashboard over Pub/Sub.
func (s *AuthService) RevokeUserSession(ctx context.Context, userID int) error {
	sessionKey := config.CacheKey.RefreshSessionKey(userID)
	if err := s.rdb.Del(ctx, sessionKey).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	channel := config.CacheKey.SessionRevokedChannel(userID)
	return s.rdb.Publish(ctx, channel, `{"type":"session_revoked"}`).Err()
}

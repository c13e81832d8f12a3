package service

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campushq/campusgate/internal/config"
	"github.com/campushq/campusgate/internal/model"
)

func testAuthService() *AuthService {
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		BcryptCost:    bcrypt.MinCost,
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
	}
	return NewAuthService(cfg, nil)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	svc := testAuthService()

	hash, err := svc.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := svc.CheckPassword(hash, "correct horse"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := svc.CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestTokenSignAndValidate(t *testing.T) {
	svc := testAuthService()
	user := &model.User{ID: 42, Role: model.RoleStudent}

	signed, jti, err := svc.signToken(user, TokenTypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if jti == "" {
		t.Fatal("expected a token id")
	}

	claims, err := svc.ValidateToken(signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Role != model.RoleStudent {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Fatalf("expected access token type, got %q", claims.TokenType)
	}
	if claims.ID != jti {
		t.Fatalf("jti mismatch: %q vs %q", claims.ID, jti)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := testAuthService()
	user := &model.User{ID: 1, Role: model.RoleAdmin}

	signed, _, err := svc.signToken(user, TokenTypeAccess, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ValidateToken(signed); err == nil {
		t.Fatal("expired token must not validate")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := testAuthService()
	user := &model.User{ID: 1, Role: model.RoleAdmin}

	signed, _, err := svc.signToken(user, TokenTypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	other := NewAuthService(&config.Config{JWTSecret: "other-secret"}, nil)
	if _, err := other.ValidateToken(signed); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

func TestGenerateCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatal("codes should not all collide")
	}
}

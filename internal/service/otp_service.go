package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"github.com/campushq/campusgate/internal/config"
	"github.com/campushq/campusgate/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// OTP errors surfaced to handlers.
var (
	ErrOTPMismatch    = errors.New("otp does not match")
	ErrOTPExpired     = errors.New("otp expired or never issued")
	ErrResendThrottle = errors.New("resend requested within cooldown window")
)

// OTPKind selects the key namespace an OTP lives in. Login OTPs and
// password-reset OTPs must never be interchangeable.
type OTPKind int

const (
	OTPLogin OTPKind = iota
	OTPReset
)

func (k OTPKind) key(userID int) string {
	if k == OTPReset {
		return config.CacheKey.ResetOTPKey(userID)
	}
	return config.CacheKey.LoginOTPKey(userID)
}

// OTPService issues and verifies one-time passwords backed by Redis.
type OTPService struct {
	cfg    *config.Config
	rdb    *redis.Client
	mailer Mailer
	log    zerolog.Logger
}

// NewOTPService creates a new OTPService.
func NewOTPService(cfg *config.Config, rdb *redis.Client, mailer Mailer, log zerolog.Logger) *OTPService {
	return &OTPService{
		cfg:    cfg,
		rdb:    rdb,
		mailer: mailer,
		log:    log.With().Str("component", "otp_service").Logger(),
	}
}

// GenerateCode returns a 6-digit numeric code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue generates a fresh OTP for the user, stores it with the
// configured TTL and emails it. A previously issued code of the same
// kind is replaced.
func (s *OTPService) Issue(ctx context.Context, kind OTPKind, user *model.User) error {
	code, err := GenerateCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	if err := s.rdb.Set(ctx, kind.key(user.ID), code, s.cfg.OTPExpiry).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, user.Email, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}

	s.log.Debug().Int("user_id", user.ID).Msg("OTP issued")
	return nil
}

// Verify checks the submitted code against the stored one and consumes
// it on success. A wrong code leaves the stored OTP intact so the user
// may retry until it expires.
func (s *OTPService) Verify(ctx context.Context, kind OTPKind, userID int, code string) error {
	stored, err := s.rdb.Get(ctx, kind.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrOTPExpired
		}
		return fmt.Errorf("read otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrOTPMismatch
	}

	if err := s.rdb.Del(ctx, kind.key(userID)).Err(); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}

// StartCooldown arms the resend cooldown for the user. Returns
// ErrResendThrottle if a cooldown is already running. The cooldown is
// authoritative here; the client-side countdown is only a convenience.
func (s *OTPService) StartCooldown(ctx context.Context, userID int) error {
	ok, err := s.rdb.SetNX(ctx, config.CacheKey.ResendCooldownKey(userID), "1", s.cfg.ResendCooldown).Result()
	if err != nil {
		return fmt.Errorf("arm cooldown: %w", err)
	}
	if !ok {
		return ErrResendThrottle
	}
	return nil
}

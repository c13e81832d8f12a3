package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LoginOTPKey returns the cache key holding a pending login OTP code.
func (r *CacheKeyStruct) LoginOTPKey(userID int) string {
	return fmt.Sprintf("otp:login:%d", userID)
}

// ResetOTPKey returns the cache key holding a password-reset OTP code.
// Kept in its own namespace so a login OTP can never reset a password.
func (r *CacheKeyStruct) ResetOTPKey(userID int) string {
	return fmt.Sprintf("otp:reset:%d", userID)
}

// ResendCooldownKey returns the cache key used to throttle OTP resends.
func (r *CacheKeyStruct) ResendCooldownKey(userID int) string {
	return fmt.Sprintf("otp:cooldown:%d", userID)
}

// RefreshSessionKey returns the cache key for a user's active refresh session.
func (r *CacheKeyStruct) RefreshSessionKey(userID int) string {
	return fmt.Sprintf("session:refresh:%d", userID)
}

// SessionRevokedChannel returns the Pub/Sub channel notified when a
// user's session is revoked by an administrator.
func (r *CacheKeyStruct) SessionRevokedChannel(userID int) string {
	return fmt.Sprintf("session:revoked:%d", userID)
}

var CacheKey = NewCacheKeyStruct()

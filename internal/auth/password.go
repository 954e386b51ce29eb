package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword returns the hex-encoded SHA-256 digest of the password.
// The scheme is unsalted, so identical passwords hash identically; this
// matches the stored account data and is a known weakness, not one to
// fix silently. Deployments wanting real password security should move
// to a salted, slow hash and rehash on login.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares a submitted password against a stored hash
func VerifyPassword(password, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashPassword(password)), []byte(storedHash)) == 1
}

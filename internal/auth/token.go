package auth

import "github.com/google/uuid"

// NewToken generates an opaque bearer token. Tokens carry no claims
// and no expiry; they are resolved by store lookup only.
func NewToken() string {
	return uuid.New().String()
}

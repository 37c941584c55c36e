// Package auth defines the API key model used to authenticate service
// callers.
package auth

import "context"

// Key is a validated API key with its granted scopes.
type Key struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// Allows reports whether the key grants the given scope. A key holding the
// wildcard scope "*" is allowed everything.
func (k *Key) Allows(scope string) bool {
	for _, s := range k.Scopes {
		if s == "*" || s == scope {
			return true
		}
	}
	return false
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Key, error)
}

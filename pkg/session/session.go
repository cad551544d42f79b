package session

import (
	"context"

	"github.com/dgrijalva/jwt-go"
)

type key int

const (
	SessionKey key = 1
)

type Session struct {
	User      *User `json:"user"`
	SessionID string
	jwt.StandardClaims
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// SessionFromContext returns the verified session attached by the
// identity middleware, or nil for an anonymous request.
func SessionFromContext(ctx context.Context) *Session {
	sess, ok := ctx.Value(SessionKey).(*Session)
	if !ok {
		return nil
	}

	return sess
}

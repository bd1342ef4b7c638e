// Package token signs and verifies the bearer tokens used for access, refresh and password reset.
package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Kind identifies which flow a token was issued for. It is carried in the token_use claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindReset   Kind = "reset"
)

// ErrTokenInvalid is returned for any token that fails signature, issuer, audience, expiry or kind checks.
var ErrTokenInvalid = errors.New("token invalid")

// Claims is the payload embedded in every signed token.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email,omitempty"`
	Use    Kind   `json:"token_use"`
	jwt.RegisteredClaims
}

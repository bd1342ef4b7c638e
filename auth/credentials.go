package auth

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
)

// CredentialStrategy resolves an email and password to a user.
// It returns nil without an error when the pair does not match any account.
type CredentialStrategy func(ctx context.Context, email, password string) (*users.CurrentUser, error)

// TokenStrategy resolves verified access token claims to a user.
// It returns nil without an error when the user no longer exists.
type TokenStrategy func(ctx context.Context, claims *token.Claims) (*users.CurrentUser, error)

// Verifier checks email and password pairs against the user directory.
type Verifier struct {
	userRepo  users.UserRepo
	hashCost  int
	dummyOnce sync.Once
	dummyHash []byte
}

func NewVerifier(userRepo users.UserRepo, hashCost int) *Verifier {
	return &Verifier{userRepo: userRepo, hashCost: hashCost}
}

// Validate returns the public projection of the user when password matches.
// Unknown emails and wrong passwords both return nil; only directory failures return an error.
func (v *Verifier) Validate(ctx context.Context, email, password string) (*users.CurrentUser, error) {
	user, err := v.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrUserNotFound) {
		// Compare against a throwaway hash so unknown emails cost the same as wrong passwords.
		_ = bcrypt.CompareHashAndPassword(v.unknownUserHash(), []byte(password))
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Verifier.Validate] GetByEmail")
	}

	if !user.CheckPassword(password) {
		return nil, nil
	}
	return user.Current(), nil
}

// Strategy exposes Validate as a CredentialStrategy.
func (v *Verifier) Strategy() CredentialStrategy {
	return v.Validate
}

func (v *Verifier) unknownUserHash() []byte {
	v.dummyOnce.Do(func() {
		hash, err := users.HashPassword("unknown-user-placeholder", v.hashCost)
		if err == nil {
			v.dummyHash = []byte(hash)
		}
	})
	return v.dummyHash
}

// UserFromClaims returns a TokenStrategy that loads the user named by the token.
func UserFromClaims(userRepo users.UserRepo) TokenStrategy {
	return func(ctx context.Context, claims *token.Claims) (*users.CurrentUser, error) {
		user, err := userRepo.GetByID(ctx, claims.UserID)
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "[UserFromClaims] GetByID")
		}
		return user.Current(), nil
	}
}

// Package reset issues and redeems password reset tokens.
//
// A reset token is signed with the global secret joined to the user's current password hash.
// Changing the password changes the secret, so every token issued before the change stops verifying.
package reset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
)

// ErrLinkInvalid is the only failure Redeem reports, whatever the cause.
var ErrLinkInvalid = errors.New("reset link invalid")

type Service struct {
	codec        *token.Codec
	userRepo     users.UserRepo
	globalSecret string
	domain       string
	expiry       time.Duration
	logger       zerolog.Logger
}

type Option func(*Service)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithDomain sets the base URL that reset links point to.
func WithDomain(domain string) Option {
	return func(s *Service) {
		s.domain = strings.TrimSuffix(domain, "/")
	}
}

func WithExpiry(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.expiry = d
		}
	}
}

func NewService(codec *token.Codec, userRepo users.UserRepo, globalSecret string, options ...Option) *Service {
	s := &Service{
		codec:        codec,
		userRepo:     userRepo,
		globalSecret: globalSecret,
		expiry:       token.DefaultResetExpiry,
		logger:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// SigningSecret derives the reset secret for a password hash.
func (s *Service) SigningSecret(passwordHash string) string {
	return s.globalSecret + passwordHash
}

// Issue signs a reset token bound to the user's current password hash.
func (s *Service) Issue(user *users.User) (string, error) {
	raw, err := s.codec.Sign(token.KindReset,
		token.Claims{UserID: user.ID, Email: user.Email},
		token.WithSecret(s.SigningSecret(user.PasswordHash)),
		token.WithExpiresIn(s.expiry),
	)
	if err != nil {
		return "", errors.Wrap(err, "[Service.Issue]")
	}
	return raw, nil
}

// Link renders the URL a user follows to reset their password.
func (s *Service) Link(userID int64, raw string) string {
	return fmt.Sprintf("%s/auth/reset-password/%d/%s", s.domain, userID, raw)
}

// Redeem verifies raw against the current password hash of userID and returns the user.
// Unknown users, expired or tampered tokens and tokens issued before a password change
// all fail with ErrLinkInvalid. Only directory failures other than not found are returned as is.
func (s *Service) Redeem(ctx context.Context, userID int64, raw string) (*users.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, users.ErrUserNotFound) {
		s.logger.Warn().Int64("userId", userID).Msg("reset link for unknown user")
		return nil, ErrLinkInvalid
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Redeem] GetByID")
	}

	claims, err := s.codec.Verify(token.KindReset, raw, token.WithSecret(s.SigningSecret(user.PasswordHash)))
	if err != nil {
		s.logger.Warn().Err(err).Int64("userId", userID).Msg("reset token rejected")
		return nil, ErrLinkInvalid
	}
	if claims.UserID != user.ID {
		s.logger.Warn().Int64("userId", userID).Int64("tokenUserId", claims.UserID).Msg("reset token issued for another user")
		return nil, ErrLinkInvalid
	}
	return user, nil
}

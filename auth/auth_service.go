// Package auth implements sign-up, sign-in, refresh token rotation, password reset,
// password change and logout on top of the token codec, session store and user directory.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/reset"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
)

const bearerPrefix = "Bearer "

// Repos holds all repository dependencies for the AuthService
type Repos struct {
	Users    users.UserRepo // User directory
	Sessions sessions.Store // Live refresh token per user
}

// TokenPair is returned by sign-in and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`  // "Bearer " followed by the signed access token
	RefreshToken string `json:"refreshToken"` // Signed refresh token, sent back in request bodies only
}

// SignUpParameters carries the fields needed to create an account.
type SignUpParameters struct {
	FirstName string
	LastName  string
	Age       int
	Email     string
	Password  string
}

// AuthService turns credential, token and reset outcomes into user-facing results.
// It is the only place where package sentinels become internal/errors kinds.
type AuthService struct {
	repos       Repos
	codec       *token.Codec
	resets      *reset.Service
	credentials CredentialStrategy
	tokens      TokenStrategy
	hashCost    int
	logger      zerolog.Logger
}

// AuthServiceOption defines a function type to modify the AuthService instance.
type AuthServiceOption func(*AuthService)

func WithLogger(logger zerolog.Logger) AuthServiceOption {
	return func(as *AuthService) {
		as.logger = logger
	}
}

// WithHashCost sets the bcrypt cost used for new password hashes.
func WithHashCost(cost int) AuthServiceOption {
	return func(as *AuthService) {
		as.hashCost = cost
	}
}

// WithCredentialStrategy replaces the default directory-backed credential check.
func WithCredentialStrategy(strategy CredentialStrategy) AuthServiceOption {
	return func(as *AuthService) {
		as.credentials = strategy
	}
}

// WithTokenStrategy replaces the default lookup of the user named by an access token.
func WithTokenStrategy(strategy TokenStrategy) AuthServiceOption {
	return func(as *AuthService) {
		as.tokens = strategy
	}
}

// NewAuthService initializes a new AuthService with required dependencies.
func NewAuthService(
	repos Repos,
	codec *token.Codec,
	resets *reset.Service,
	options ...AuthServiceOption,
) (*AuthService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewAuthService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewAuthService] Sessions store is required")
	}
	if codec == nil {
		return nil, errors.New("[NewAuthService] token codec is required")
	}
	if resets == nil {
		return nil, errors.New("[NewAuthService] reset service is required")
	}

	as := &AuthService{
		repos:    repos,
		codec:    codec,
		resets:   resets,
		hashCost: bcrypt.DefaultCost,
		logger:   zerolog.Nop(),
	}

	for _, opt := range options {
		opt(as)
	}

	if as.credentials == nil {
		as.credentials = NewVerifier(repos.Users, as.hashCost).Strategy()
	}
	if as.tokens == nil {
		as.tokens = UserFromClaims(repos.Users)
	}
	return as, nil
}

// SignUp creates a new account with the default role.
func (as *AuthService) SignUp(ctx context.Context, params SignUpParameters) (*users.User, error) {
	hash, err := as.hashPassword(params.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthService.SignUp]")
	}

	user := &users.User{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Email:        params.Email,
		PasswordHash: hash,
		Age:          params.Age,
		Role:         users.RoleUser,
	}
	err = as.repos.Users.Create(ctx, user)
	if errors.Is(err, users.ErrEmailTaken) {
		return nil, apperrors.Conflict(fmt.Sprintf("User with email \"%s\" already exists!", params.Email))
	}
	if err != nil {
		return nil, errors.Wrap(err, "[AuthService.SignUp] Create")
	}
	return user, nil
}

// SignIn checks the credentials and issues a new token pair, replacing any stored refresh token.
func (as *AuthService) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := as.credentials(ctx, email, password)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthService.SignIn] credentials")
	}
	if user == nil {
		as.logger.Warn().Str("email", email).Msg("invalid sign in attempt")
		return nil, apperrors.Unauthorized(MsgInvalidCredentials)
	}

	pair, err := as.issuePair(ctx, user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthService.SignIn]")
	}
	return pair, nil
}

// Refresh exchanges the live refresh token of a user for a new pair.
// A token that verifies but is not the stored one has been rotated out or revoked.
// The user must still exist in the directory.
func (as *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.Validation(MsgRefreshRequired)
	}

	claims, err := as.codec.Verify(token.KindRefresh, refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTokenInvalid, MsgInvalidToken, err)
	}

	stored, found, err := as.repos.Sessions.Get(ctx, sessions.UserKey(claims.UserID))
	if err != nil {
		return nil, errors.Wrap(err, "[AuthService.Refresh] Get")
	}
	if !found || stored != refreshToken {
		as.logger.Warn().Int64("userId", claims.UserID).Msg("trying to use old refresh token")
		return nil, apperrors.Unauthorized(MsgUnauthorized)
	}

	user, err := as.tokens(ctx, claims)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthService.Refresh]")
	}
	if user == nil {
		as.logger.Warn().Int64("userId", claims.UserID).Msg("refresh token for deleted user")
		return nil, apperrors.Unauthorized(MsgUnauthorized)
	}

	pair, err := as.issuePair(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthService.Refresh]")
	}
	return pair, nil
}

// ForgotPassword returns a reset link for the account with email.
func (as *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := as.repos.Users.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrUserNotFound) {
		as.logger.Warn().Str("email", email).Msg("trying to reset password with unknown email")
		return "", apperrors.NotFound(fmt.Sprintf("No such user found with \"%s\"", email))
	}
	if err != nil {
		return "", errors.Wrap(err, "[AuthService.ForgotPassword] GetByEmail")
	}

	raw, err := as.resets.Issue(user)
	if err != nil {
		return "", errors.Wrap(err, "[AuthService.ForgotPassword]")
	}
	return as.resets.Link(user.ID, raw), nil
}

// ResetPassword sets a new password when raw is a live reset token for userID.
// Refresh tokens already issued to the user stay valid.
func (as *AuthService) ResetPassword(ctx context.Context, userID int64, raw, newPassword string) error {
	user, err := as.resets.Redeem(ctx, userID, raw)
	if errors.Is(err, reset.ErrLinkInvalid) {
		return apperrors.Wrap(apperrors.KindLinkInvalid, MsgInvalidLink, err)
	}
	if err != nil {
		return errors.Wrap(err, "[AuthService.ResetPassword] Redeem")
	}

	if err := as.setPassword(ctx, user, newPassword); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return apperrors.Wrap(apperrors.KindLinkInvalid, MsgInvalidLink, err)
		}
		return errors.Wrap(err, "[AuthService.ResetPassword]")
	}
	return nil
}

// ChangePassword replaces the password of userID after checking oldPassword.
// Outstanding reset links stop working because the derived secret changes.
func (as *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) (string, error) {
	user, err := as.repos.Users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrUserNotFound) {
		return "", apperrors.Unauthorized(MsgUnauthorized)
	}
	if err != nil {
		return "", errors.Wrap(err, "[AuthService.ChangePassword] GetByID")
	}

	if !user.CheckPassword(oldPassword) {
		as.logger.Warn().Int64("userId", userID).Msg("trying to change password with wrong old password")
		return "", apperrors.New(apperrors.KindBadCredential, MsgInvalidPassword)
	}

	if err := as.setPassword(ctx, user, newPassword); err != nil {
		return "", errors.Wrap(err, "[AuthService.ChangePassword]")
	}
	return MsgPasswordChanged, nil
}

// Logout removes the stored refresh token of userID. Logging out twice is not an error.
func (as *AuthService) Logout(ctx context.Context, userID int64) error {
	if _, err := as.repos.Sessions.Delete(ctx, sessions.UserKey(userID)); err != nil {
		return errors.Wrap(err, "[AuthService.Logout] Delete")
	}
	return nil
}

// Authenticate resolves a bearer access token to the current user.
// The "Bearer " prefix is optional.
func (as *AuthService) Authenticate(ctx context.Context, accessToken string) (*users.CurrentUser, error) {
	accessToken = strings.TrimSpace(strings.TrimPrefix(accessToken, bearerPrefix))
	if accessToken == "" {
		return nil, apperrors.Unauthorized(MsgUnauthorized)
	}

	claims, err := as.codec.Verify(token.KindAccess, accessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTokenInvalid, MsgInvalidToken, err)
	}

	user, err := as.tokens(ctx, claims)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthService.Authenticate]")
	}
	if user == nil {
		return nil, apperrors.Unauthorized(MsgUnauthorized)
	}
	return user, nil
}

func (as *AuthService) issuePair(ctx context.Context, userID int64) (*TokenPair, error) {
	accessToken, err := as.codec.Sign(token.KindAccess, token.Claims{UserID: userID})
	if err != nil {
		return nil, errors.Wrap(err, "issue access token")
	}
	refreshToken, err := as.codec.Sign(token.KindRefresh, token.Claims{UserID: userID})
	if err != nil {
		return nil, errors.Wrap(err, "issue refresh token")
	}

	key := sessions.UserKey(userID)
	if err := as.repos.Sessions.Set(ctx, key, refreshToken, as.codec.Expiry(token.KindRefresh)); err != nil {
		return nil, errors.Wrap(err, "store refresh token")
	}

	return &TokenPair{
		AccessToken:  bearerPrefix + accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// hashPassword reports passwords bcrypt cannot hash as a validation error.
func (as *AuthService) hashPassword(password string) (string, error) {
	hash, err := users.HashPassword(password, as.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperrors.Wrap(apperrors.KindValidation, MsgPasswordTooLong, err)
	}
	if err != nil {
		return "", errors.Wrap(err, "HashPassword")
	}
	return hash, nil
}

func (as *AuthService) setPassword(ctx context.Context, user *users.User, password string) error {
	hash, err := as.hashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return as.repos.Users.Upsert(ctx, user)
}

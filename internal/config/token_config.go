package config

import "time"

const (
	jwtSecretVar          = "JWT_SECRET"
	jwtIssuerVar          = "JWT_ISSUER"
	jwtAudienceVar        = "JWT_AUDIENCE"
	accessTokenExpiryVar  = "ACCESS_TOKEN_EXPIRY"
	refreshTokenExpiryVar = "REFRESH_TOKEN_EXPIRY"
	resetTokenExpiryVar   = "RESET_TOKEN_EXPIRY"
)

type TokenConfig interface {
	GetJWTSecret() string
	GetJWTIssuer() string
	GetJWTAudience() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetResetTokenExpiry() time.Duration
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

func (Tokens) GetJWTSecret() string {
	return GetEnv(jwtSecretVar, "")
}

func (Tokens) GetJWTIssuer() string {
	return GetEnv(jwtIssuerVar, "")
}

func (Tokens) GetJWTAudience() string {
	return GetEnv(jwtAudienceVar, "")
}

func (Tokens) GetAccessTokenExpiry() time.Duration {
	return GetEnvDuration(accessTokenExpiryVar, 24*time.Hour)
}

func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return GetEnvDuration(refreshTokenExpiryVar, 365*24*time.Hour)
}

func (Tokens) GetResetTokenExpiry() time.Duration {
	return GetEnvDuration(resetTokenExpiryVar, 15*time.Minute)
}

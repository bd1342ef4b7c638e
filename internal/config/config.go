package config

import "github.com/pkg/errors"

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetServerDomain() string
	GetDatabaseURL() string
	GetSessionStore() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Security
}

func New() Config {
	return mainConfig{}
}

// Validate reports configuration that would leave the server unable to sign tokens.
func Validate(c Config) error {
	if c.GetJWTSecret() == "" {
		return errors.Errorf("%s must be set", jwtSecretVar)
	}
	switch c.GetSessionStore() {
	case SessionStoreRedis, SessionStoreMemory:
	default:
		return errors.Errorf("%s must be %q or %q, got %q", sessionStoreVar, SessionStoreRedis, SessionStoreMemory, c.GetSessionStore())
	}
	return nil
}

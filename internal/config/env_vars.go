package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	serverDomainVar = "SERVER_DOMAIN"
	databaseURLVar  = "DATABASE_URL"
	sessionStoreVar = "SESSION_STORE"
	redisAddrVar    = "REDIS_ADDR"
	redisPassVar    = "REDIS_PASSWORD"
	redisDBVar      = "REDIS_DB"
)

// Session store backends
const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Session Auth")
}

func (EnvVars) GetEnv() string {
	return GetEnv("ENV", "DEV")
}

// GetServerDomain returns the public base URL used when building password reset links
// (e.g. "https://api.example.com").
func (EnvVars) GetServerDomain() string {
	return strings.TrimRight(GetEnv(serverDomainVar, "http://localhost:8080"), "/")
}

// GetDatabaseURL returns the postgres connection string. Empty means the in-memory user directory.
func (EnvVars) GetDatabaseURL() string {
	return GetEnv(databaseURLVar, "")
}

func (EnvVars) GetSessionStore() string {
	return strings.ToLower(GetEnv(sessionStoreVar, SessionStoreRedis))
}

func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "127.0.0.1:6379")
}

func (EnvVars) GetRedisPassword() string {
	return GetEnv(redisPassVar, "")
}

func (EnvVars) GetRedisDB() int {
	return GetEnvInt(redisDBVar, 0)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt falls back to defaultValue when the variable is unset or not an integer.
func GetEnvInt(envVar string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetEnvDuration accepts Go duration strings ("15m", "8760h") or a plain number of seconds.
func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

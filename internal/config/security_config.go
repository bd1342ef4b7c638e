package config

import "golang.org/x/crypto/bcrypt"

type SecurityConfig interface {
	GetSaltRounds() int
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetSaltRounds returns the bcrypt cost used when hashing new passwords.
func (Security) GetSaltRounds() int {
	rounds := GetEnvInt("SALT_ROUND", bcrypt.DefaultCost)
	if rounds < bcrypt.MinCost || rounds > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return rounds
}

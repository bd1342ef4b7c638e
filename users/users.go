package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents the role a user holds across the API
type RoleType string

const (
	RoleUser  RoleType = "user"
	RoleAdmin RoleType = "admin"
)

type User struct {
	ID           int64     `json:"id"`                  // Unique identifier for the user
	FirstName    string    `json:"firstName"`           // First name of the user
	LastName     string    `json:"lastName"`            // Last name of the user
	Email        string    `json:"email"`               // User's email address, unique
	PasswordHash string    `json:"-"`                   // Hashed version of the user's password - never serialize
	Age          int       `json:"age,omitempty"`       // Age of the user
	Role         RoleType  `json:"role"`                // Role of the user
	CreatedAt    time.Time `json:"createdAt,omitempty"` // When the account was created
	UpdatedAt    time.Time `json:"updatedAt,omitempty"` // When the account was last changed
}

// CurrentUser is the public-safe projection of a User carried through authenticated requests.
type CurrentUser struct {
	ID        int64    `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Role      RoleType `json:"role"`
}

// Current returns the public projection of the user.
func (u *User) Current() *CurrentUser {
	return &CurrentUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// CheckPassword compares password against the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// HashPassword hashes password with the given bcrypt cost. Out of range costs use the bcrypt default.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// bcrypt.ErrPasswordTooLong when password exceeds MaxPasswordBytes
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

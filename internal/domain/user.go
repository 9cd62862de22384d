package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Role determines what a user may do beyond managing their own tasks.
type Role string

// Possible role values
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsAdmin reports whether r is the admin role.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Username and password limits
const (
	MinUsernameLength = 3
	MaxUsernameLength = 80
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt's input limit
)

// Common validation errors for User
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyUsername       = errors.New("username cannot be empty")
	ErrInvalidUsername     = errors.New("invalid username")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrPasswordTooLong     = errors.New("password must be at most 72 bytes long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
	ErrInvalidRole         = errors.New("invalid role")
)

// User represents a registered user.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Password       string    `json:"-"` // Plaintext, only held between request and hashing
	HashedPassword string    `json:"-"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RoleForRegistration returns the role a new registrant receives given how
// many users already exist: the very first one becomes admin.
func RoleForRegistration(existingUsers int) Role {
	if existingUsers == 0 {
		return RoleAdmin
	}
	return RoleUser
}

// NewUser creates a new User with the given username, password and role.
//
// NOTE: the plaintext password must be hashed by the caller before the
// user is stored.
func NewUser(username, password string, role Role, now time.Time) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Username:  strings.TrimSpace(username),
		Password:  password,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrEmptyUserID)
	}

	if u.Username == "" {
		return NewValidationError("username", "is required", ErrEmptyUsername)
	}
	if n := utf8.RuneCountInString(u.Username); n < MinUsernameLength || n > MaxUsernameLength {
		return NewValidationError("username", "must be between 3 and 80 characters", ErrInvalidUsername)
	}
	if strings.ContainsAny(u.Username, " \t\r\n") {
		return NewValidationError("username", "must not contain whitespace", ErrInvalidUsername)
	}

	if u.Password != "" {
		if len(u.Password) < MinPasswordLength {
			return NewValidationError("password", "is too short", ErrPasswordTooShort)
		}
		if len(u.Password) > MaxPasswordLength {
			return NewValidationError("password", "is too long", ErrPasswordTooLong)
		}
	} else if u.HashedPassword == "" {
		// Existing users carry only the hash
		return NewValidationError("password", "is required", ErrEmptyPassword)
	}

	if u.Role != RoleAdmin && u.Role != RoleUser {
		return NewValidationError("role", "must be admin or user", ErrInvalidRole)
	}

	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of authorization roles.
type Role string

const (
	// RoleStandardUser sees and modifies only the tasks it created or is assigned to.
	RoleStandardUser Role = "STANDARD_USER"
	// RoleAdministratorManager bypasses task ownership checks.
	RoleAdministratorManager Role = "ADMINISTRATOR_MANAGER"
)

// ParseRole converts s to a Role, rejecting anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStandardUser, RoleAdministratorManager:
		return true
	}
	return false
}

// IsAdmin reports whether r is the administrator role.
func (r Role) IsAdmin() bool {
	return r == RoleAdministratorManager
}

// Preferences holds a user's display settings.
type Preferences struct {
	Theme      string `json:"theme,omitempty"`
	Locale     string `json:"locale,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	DateFormat string `json:"date_format,omitempty"`
	TimeFormat string `json:"time_format,omitempty"`
}

// User is an account of the task board. Login and email are unique.
type User struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Login          string      `json:"login"`
	Email          string      `json:"email"`
	Password       string      `json:"-"` // Plaintext, set only while creating or changing the password
	HashedPassword string      `json:"-"`
	Role           Role        `json:"role"`
	JobTitle       string      `json:"job_title,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	Department     string      `json:"department,omitempty"`
	Active         bool        `json:"active"`
	Preferences    Preferences `json:"preferences"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewUser creates an active User with the given identity fields.
// The password is kept in plaintext; the store hashes it on write.
func NewUser(name, login, email, password string, role Role) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		Name:      strings.TrimSpace(name),
		Login:     strings.TrimSpace(login),
		Email:     strings.TrimSpace(email),
		Password:  password,
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role.IsAdmin()
}

// Validate checks field lengths, email shape and role.
func (u *User) Validate() error {
	if err := checkLength("name", u.Name, 3, 100); err != nil {
		return err
	}
	if err := checkLength("login", u.Login, 3, 50); err != nil {
		return err
	}
	if err := checkLength("email", u.Email, 1, 100); err != nil {
		return err
	}
	if !IsEmailShaped(u.Email) {
		return NewValidationError("email", "must be a valid email address", ErrInvalidEmail)
	}
	if u.Password != "" {
		if err := checkLength("password", u.Password, 6, 72); err != nil {
			return err
		}
	} else if u.HashedPassword == "" {
		return NewValidationError("password", "is required", nil)
	}
	if !u.Role.Valid() {
		return NewValidationError("role", "must be STANDARD_USER or ADMINISTRATOR_MANAGER", ErrInvalidRole)
	}
	if err := checkOptionalLength("job_title", u.JobTitle, 0, 100); err != nil {
		return err
	}
	if err := checkOptionalLength("phone", u.Phone, 10, 20); err != nil {
		return err
	}
	if err := checkOptionalLength("department", u.Department, 0, 100); err != nil {
		return err
	}
	return u.Preferences.Validate()
}

// Validate checks the preference field lengths.
func (p Preferences) Validate() error {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"theme", p.Theme, 20},
		{"locale", p.Locale, 10},
		{"timezone", p.Timezone, 50},
		{"date_format", p.DateFormat, 20},
		{"time_format", p.TimeFormat, 10},
	}
	for _, c := range checks {
		if err := checkOptionalLength(c.field, c.value, 0, c.max); err != nil {
			return err
		}
	}
	return nil
}

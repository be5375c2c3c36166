// Package models defines the domain records and the request payloads that
// travel through the handler → service → repository layers.
//
// json tags shape the API; PasswordHash is never serialized.
package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Gender values accepted on profile edit. Empty means "not set".
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// User is a row of the users table.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	AvatarURL    string     `json:"avatar_url"`
	Bio          string     `json:"bio"`
	Gender       string     `json:"gender,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
}

// Summary returns the public actor details of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

// UserSummary is the minimal public view of a user, embedded in posts,
// comments and notifications.
type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// Profile is a user together with their relationship sets.
type Profile struct {
	User
	Followers []string `json:"followers"`
	Following []string `json:"following"`
	Posts     []Post   `json:"posts"`
	Bookmarks []string `json:"bookmarks"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate trims and checks a RegisterRequest.
//   - Username: 3-150 characters, letters, digits, underscores and dots
//   - Email: a single RFC 5322 address
//   - Password: at least 6 characters, equal to ConfirmPassword
func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	if r.Username == "" || r.Email == "" || r.Password == "" || r.ConfirmPassword == "" {
		return fmt.Errorf("all fields are required")
	}

	usernameLen := utf8.RuneCountInString(r.Username)
	if usernameLen < 3 || usernameLen > 150 {
		return fmt.Errorf("username must be between 3 and 150 characters")
	}
	for _, ch := range r.Username {
		if !isValidUsernameChar(ch) {
			return fmt.Errorf("username can only contain letters, numbers, dots and underscores")
		}
	}

	if _, err := mail.ParseAddress(r.Email); err != nil || utf8.RuneCountInString(r.Email) > 300 {
		return fmt.Errorf("invalid email address")
	}

	if utf8.RuneCountInString(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if r.Password != r.ConfirmPassword {
		return fmt.Errorf("passwords do not match")
	}
	return nil
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate trims and checks a LoginRequest.
func (r *LoginRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("email and password are required")
	}
	return nil
}

// UpdateProfileRequest carries the editable profile fields. Nil leaves the
// field untouched.
type UpdateProfileRequest struct {
	Bio    *string
	Gender *string
}

// Validate checks an UpdateProfileRequest.
func (r *UpdateProfileRequest) Validate() error {
	if r.Bio != nil {
		bio := strings.TrimSpace(*r.Bio)
		if utf8.RuneCountInString(bio) > 250 {
			return fmt.Errorf("bio cannot exceed 250 characters")
		}
		r.Bio = &bio
	}
	if r.Gender != nil {
		switch *r.Gender {
		case GenderMale, GenderFemale, "":
		default:
			return fmt.Errorf("gender must be %q or %q", GenderMale, GenderFemale)
		}
	}
	return nil
}

func isValidUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_' || ch == '.'
}

package domain

import (
	"errors"
	"time"
)

var ErrValidation = errors.New("validation failed")
var ErrEmailTaken = errors.New("email already in use")
var ErrInvalidUpdates = errors.New("invalid updates")
var ErrUnableToLogin = errors.New("unable to login")
var ErrAuthenticate = errors.New("please authenticate")
var ErrUserNotFound = errors.New("user not found")
var ErrAvatarNotFound = errors.New("avatar not found")
var ErrTooManyLogins = errors.New("too many login attempts")
var ErrBadUpload = errors.New("please upload a jpg, jpeg or png image")

// MaxAvatarBytes caps avatar uploads. Enforced at the HTTP surface before the
// file is read and again in the service.
const MaxAvatarBytes = 1_000_000

// AuthToken is one active login session. A user holds one entry per device
// that has logged in and not yet logged out.
type AuthToken struct {
	Token string `json:"token" bson:"token"`
}

// User models an account holder. Password, Tokens and Avatar never serialize
// outward; stripping them here covers every endpoint at once.
type User struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Password  string      `json:"-"` // bcrypt hash, never plaintext
	Age       int         `json:"age"`
	Tokens    []AuthToken `json:"-"`
	Avatar    []byte      `json:"-"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// HasToken reports whether token is still in the active session list.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t.Token == token {
			return true
		}
	}
	return false
}

// RemoveToken drops exactly one matching session entry.
func (u *User) RemoveToken(token string) {
	for i, t := range u.Tokens {
		if t.Token == token {
			u.Tokens = append(u.Tokens[:i], u.Tokens[i+1:]...)
			return
		}
	}
}

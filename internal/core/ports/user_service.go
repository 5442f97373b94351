package ports

import (
	"context"

	"github.com/taskhive/task-api/internal/core/domain"
)

// CreateUserInput carries the signup fields.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Age      int
}

// UpdateUserInput carries a partial profile update. Nil fields are left
// untouched; the handler has already rejected keys outside the allow-list.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

type UserService interface {
	// Signup creates the account and returns it with a freshly issued token.
	Signup(ctx context.Context, in CreateUserInput) (*domain.User, string, error)
	// Login verifies credentials and issues a new token. Unknown email and
	// wrong password both fail with domain.ErrUnableToLogin.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Logout(ctx context.Context, user *domain.User, token string) error
	LogoutAll(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User, in UpdateUserInput) (*domain.User, error)
	// Remove deletes the account, cascading to all owned tasks first.
	Remove(ctx context.Context, user *domain.User) error
	SetAvatar(ctx context.Context, user *domain.User, filename string, data []byte) error
	ClearAvatar(ctx context.Context, user *domain.User) error
	// Avatar is a public read of the stored avatar bytes.
	Avatar(ctx context.Context, userID string) ([]byte, error)
}

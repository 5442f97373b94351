package ports

import (
	"context"

	"github.com/taskhive/task-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIDAndToken loads a user only when token is present in its active
	// token list. Used by the auth gate so that a logged-out token fails even
	// though its signature still verifies.
	FindByIDAndToken(ctx context.Context, id, token string) (*domain.User, error)
	// Update persists the full document (last-write-wins at document level).
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

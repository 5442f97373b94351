package ports

import (
	"context"

	"github.com/taskhive/task-api/internal/core/domain"
)

// ListTasksFilter carries all query parameters for listing tasks.
// Owner is always enforced by the service layer.
type ListTasksFilter struct {
	Owner     string
	Completed *bool  // nil = no filter
	SortField string // empty = default insertion order
	SortDesc  bool
	Limit     int64 // <= 0 = server default
	Skip      int64
}

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// FindByIDAndOwner scopes the lookup by owner: a task owned by someone
	// else is indistinguishable from a missing one.
	FindByIDAndOwner(ctx context.Context, id, owner string) (*domain.Task, error)
	List(ctx context.Context, filter ListTasksFilter) ([]*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	// DeleteByIDAndOwner removes one task and returns the deleted document.
	DeleteByIDAndOwner(ctx context.Context, id, owner string) (*domain.Task, error)
	// DeleteByOwner removes every task owned by owner (user-deletion cascade).
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}

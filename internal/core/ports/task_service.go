package ports

import (
	"context"

	"github.com/taskhive/task-api/internal/core/domain"
)

type CreateTaskInput struct {
	Description string
	Completed   bool
}

type UpdateTaskInput struct {
	Description *string
	Completed   *bool
}

// ListTasksInput mirrors the query string: ?completed=&sortBy=&limit=&skip=.
type ListTasksInput struct {
	Completed *bool
	SortBy    string // "field:dir", e.g. "createdAt:desc"
	Limit     int64
	Skip      int64
}

type TaskService interface {
	// Create persists a task owned by ownerID; the owner always comes from
	// the authenticated caller, never from client input.
	Create(ctx context.Context, ownerID string, in CreateTaskInput) (*domain.Task, error)
	List(ctx context.Context, ownerID string, in ListTasksInput) ([]*domain.Task, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Task, error)
	Update(ctx context.Context, ownerID, id string, in UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, id string) (*domain.Task, error)
}

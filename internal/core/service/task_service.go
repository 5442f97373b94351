package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskhive/task-api/internal/api/metrics"
	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

const maxListLimit = 100

// sortFields maps the public sortBy names to their stored field names.
var sortFields = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"completed":   "completed",
	"description": "description",
}

// TaskService implements owner-scoped task CRUD and listing.
type TaskService struct {
	repo ports.TaskRepository
	log  zerolog.Logger
}

func NewTaskService(repo ports.TaskRepository, log zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, log: log}
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in ports.CreateTaskInput) (*domain.Task, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	task := &domain.Task{
		Description: description,
		Completed:   in.Completed,
		Owner:       ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		s.log.Error().Err(err).Str("owner", ownerID).Msg("failed to create task")
		return nil, err
	}

	metrics.TasksCreatedTotal.Inc()
	return created, nil
}

func (s *TaskService) List(ctx context.Context, ownerID string, in ports.ListTasksInput) ([]*domain.Task, error) {
	filter := ports.ListTasksFilter{
		Owner:     ownerID,
		Completed: in.Completed,
		Skip:      in.Skip,
		Limit:     in.Limit,
	}

	if in.SortBy != "" {
		field, dir, _ := strings.Cut(in.SortBy, ":")
		stored, ok := sortFields[field]
		if !ok {
			return nil, fmt.Errorf("%w: unknown sort field %q", domain.ErrValidation, field)
		}
		filter.SortField = stored
		filter.SortDesc = dir == "desc"
	}

	if filter.Limit < 0 {
		filter.Limit = 0
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}

	return s.repo.List(ctx, filter)
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	return s.repo.FindByIDAndOwner(ctx, id, ownerID)
}

func (s *TaskService) Update(ctx context.Context, ownerID, id string, in ports.UpdateTaskInput) (*domain.Task, error) {
	task, err := s.repo.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
		}
		task.Description = description
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}

	task.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	return s.repo.DeleteByIDAndOwner(ctx, id, ownerID)
}

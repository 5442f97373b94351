package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-api/internal/core/ports"
)

// taskUpdateFields is the allow-list for PATCH /tasks/:id.
var taskUpdateFields = []string{"description", "completed"}

// TaskHandler handles HTTP requests for task operations. Every route is
// behind the auth gate; the owner always comes from the resolved user.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create adds a task owned by the caller.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task details"
// @Success      201   {object}  domain.Task
// @Failure      400   {object}  errorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.service.Create(c.Request().Context(), user.ID, ports.CreateTaskInput{
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

// List returns the caller's tasks, optionally filtered, sorted and paginated.
//
// GET /tasks?completed=true&sortBy=createdAt:desc&limit=10&skip=0
//
// @Summary      List own tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        completed  query  string  false  "Filter by completion ("true" or "false")"
// @Param        sortBy     query  string  false  "Sort, e.g. createdAt:desc"
// @Param        limit      query  int     false  "Page size"
// @Param        skip       query  int     false  "Offset"
// @Success      200  {array}   domain.Task
// @Failure      400  {object}  errorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}

	in := ports.ListTasksInput{SortBy: c.QueryParam("sortBy")}

	if v := c.QueryParam("completed"); v != "" {
		completed := v == "true"
		in.Completed = &completed
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			in.Limit = n
		}
	}
	if v := c.QueryParam("skip"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			in.Skip = n
		}
	}

	tasks, err := h.service.List(c.Request().Context(), user.ID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// Get returns one of the caller's tasks. A task owned by someone else is the
// same 404 as a missing one.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}

	task, err := h.service.Get(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Update patches one of the caller's tasks. Keys outside {description,
// completed} reject the whole request.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task id"
// @Param        body  body      updateTaskRequest  true  "Fields to update"
// @Success      200   {object}  domain.Task
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := bindPatch(c, taskUpdateFields, &req); err != nil {
		return err
	}

	task, err := h.service.Update(c.Request().Context(), user.ID, c.Param("id"), ports.UpdateTaskInput{
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete removes one of the caller's tasks and returns the deleted document.
//
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  errorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}

	task, err := h.service.Delete(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

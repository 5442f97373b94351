package handler

type createTaskRequest struct {
	Description string `json:"description" validate:"required"`
	Completed   bool   `json:"completed"`
}

// updateTaskRequest holds the allow-listed patch fields for a task.
type updateTaskRequest struct {
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

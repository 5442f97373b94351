package handler

import "github.com/taskhive/task-api/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type signupRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=7"`
	Age      int    `json:"age"      validate:"gte=0"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// authResponse pairs the (privacy-stripped) user with a freshly issued token.
type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// updateUserRequest holds the allow-listed patch fields. Pointer fields
// distinguish "absent" from zero values; any key outside this set rejects the
// whole request before binding.
type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Age      *int    `json:"age"`
}

package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

// userUpdateFields is the allow-list for PATCH /users/me.
var userUpdateFields = []string{"name", "email", "password", "age"}

// LoginLimiter throttles login attempts per client. Implementations fail
// open: an unavailable backing store never blocks logins.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// UserHandler handles HTTP requests for account operations.
type UserHandler struct {
	service ports.UserService
	limiter LoginLimiter
}

func NewUserHandler(service ports.UserService, limiter LoginLimiter) *UserHandler {
	return &UserHandler{service: service, limiter: limiter}
}

// Signup creates a new user account.
//
// @Summary      Sign up
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "New account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, token, err := h.service.Signup(c.Request().Context(), ports.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: user, Token: token})
}

// Login authenticates by email and password and issues a new token.
//
// @Summary      Log in
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if h.limiter != nil {
		ok, err := h.limiter.Allow(c.Request().Context(), req.Email+":"+c.RealIP())
		if err == nil && !ok {
			return domain.ErrTooManyLogins
		}
	}

	user, token, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{User: user, Token: token})
}

// Logout revokes the token used on this request; other sessions stay valid.
//
// @Summary      Log out the current session
// @Tags         users
// @Security     BearerAuth
// @Success      200
// @Failure      401  {object}  errorResponse
// @Router       /users/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	user, token, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Logout(c.Request().Context(), user, token); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// LogoutAll revokes every active token for the caller.
//
// @Summary      Log out all sessions
// @Tags         users
// @Security     BearerAuth
// @Success      200
// @Failure      401  {object}  errorResponse
// @Router       /users/logoutAll [post]
func (h *UserHandler) LogoutAll(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.LogoutAll(c.Request().Context(), user); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// Me returns the caller's own profile.
//
// @Summary      Get own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update patches the caller's profile. Keys outside {name, email, password,
// age} reject the whole request.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateUserRequest  true  "Fields to update"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Router       /users/me [patch]
func (h *UserHandler) Update(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := bindPatch(c, userUpdateFields, &req); err != nil {
		return err
	}

	updated, err := h.service.Update(c.Request().Context(), user, ports.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// Remove deletes the caller's account and every task it owns.
//
// @Summary      Delete own account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /users/me [delete]
func (h *UserHandler) Remove(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Remove(c.Request().Context(), user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UploadAvatar stores a normalized profile picture from the multipart field
// "avatar" (jpg/jpeg/png, at most 1MB).
//
// @Summary      Upload avatar
// @Tags         users
// @Accept       multipart/form-data
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "Image file (jpg, jpeg or png)"
// @Success      200
// @Failure      400  {object}  errorResponse
// @Router       /users/me/avatar [post]
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "please upload an image")
	}
	// Reject by declared size before the file is buffered into memory.
	if fh.Size > domain.MaxAvatarBytes {
		return fmt.Errorf("%w: file larger than 1MB", domain.ErrBadUpload)
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "please upload an image")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "please upload an image")
	}

	if err := h.service.SetAvatar(c.Request().Context(), user, fh.Filename, data); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// DeleteAvatar clears the caller's profile picture.
//
// @Summary      Delete avatar
// @Tags         users
// @Security     BearerAuth
// @Success      200
// @Router       /users/me/avatar [delete]
func (h *UserHandler) DeleteAvatar(c echo.Context) error {
	user, _, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.ClearAvatar(c.Request().Context(), user); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// GetAvatar serves a user's avatar as PNG. Public, no auth required.
//
// @Summary      Fetch a user's avatar
// @Tags         users
// @Produce      png
// @Param        id   path  string  true  "User id"
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /users/{id}/avatar [get]
func (h *UserHandler) GetAvatar(c echo.Context) error {
	data, err := h.service.Avatar(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/png", data)
}

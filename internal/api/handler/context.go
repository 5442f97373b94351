package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-api/internal/core/domain"
)

// currentUser extracts the user and raw token injected by the Auth middleware
// and fast-fails before any service call when they are absent (which means a
// protected route was registered without the middleware).
func currentUser(c echo.Context) (*domain.User, string, error) {
	user, ok := c.Get("user").(*domain.User)
	if !ok || user == nil {
		return nil, "", echo.NewHTTPError(http.StatusUnauthorized, "please authenticate")
	}
	token, _ := c.Get("token").(string)
	return user, token, nil
}

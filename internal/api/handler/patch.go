package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-api/internal/core/domain"
)

// bindPatch decodes a PATCH body into dst after checking every key against
// the allow-list. One unknown key rejects the whole request; none of the
// valid keys are applied. An empty body is a valid patch that changes nothing.
func bindPatch(c echo.Context, allowed []string, dst any) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	for key := range fields {
		if !slices.Contains(allowed, key) {
			return domain.ErrInvalidUpdates
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return nil
}

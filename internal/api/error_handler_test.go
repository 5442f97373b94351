package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskhive/task-api/internal/core/domain"
)

func render(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)
	return rec
}

func TestHTTPErrorHandler_DomainErrorMapping(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantMsg  string
	}{
		{domain.ErrValidation, http.StatusBadRequest, domain.ErrValidation.Error()},
		{fmt.Errorf("%w: age must be a positive number", domain.ErrValidation), http.StatusBadRequest, "age must be a positive number"},
		{domain.ErrInvalidUpdates, http.StatusBadRequest, domain.ErrInvalidUpdates.Error()},
		{domain.ErrEmailTaken, http.StatusBadRequest, domain.ErrEmailTaken.Error()},
		{domain.ErrBadUpload, http.StatusBadRequest, domain.ErrBadUpload.Error()},
		{domain.ErrUnableToLogin, http.StatusBadRequest, "unable to login"},
		{domain.ErrAuthenticate, http.StatusUnauthorized, "please authenticate"},
		{domain.ErrUserNotFound, http.StatusNotFound, domain.ErrUserNotFound.Error()},
		{domain.ErrTaskNotFound, http.StatusNotFound, domain.ErrTaskNotFound.Error()},
		{domain.ErrAvatarNotFound, http.StatusNotFound, domain.ErrAvatarNotFound.Error()},
		{domain.ErrTooManyLogins, http.StatusTooManyRequests, domain.ErrTooManyLogins.Error()},
	}

	for _, tc := range tests {
		rec := render(t, tc.err)
		if rec.Code != tc.wantCode {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.wantCode, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tc.wantMsg) {
			t.Errorf("%v: expected message %q in %s", tc.err, tc.wantMsg, rec.Body.String())
		}
	}
}

func TestHTTPErrorHandler_EchoErrorsPassThrough(t *testing.T) {
	rec := render(t, echo.NewHTTPError(http.StatusUnauthorized, "please authenticate"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "please authenticate") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHTTPErrorHandler_UnknownErrorIsOpaque(t *testing.T) {
	rec := render(t, errors.New("mongo: connection reset by peer"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "mongo") {
		t.Fatalf("internal detail leaked to the client: %s", body)
	}
	if !strings.Contains(body, "internal server error") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestHTTPErrorHandler_CommittedResponseUntouched(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := c.NoContent(http.StatusOK); err != nil {
		t.Fatalf("commit response: %v", err)
	}
	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late failure"), c)

	if rec.Code != http.StatusOK {
		t.Fatalf("committed response was overwritten: %d", rec.Code)
	}
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserService struct {
	signupFn      func(ctx context.Context, in ports.CreateUserInput) (*domain.User, string, error)
	loginFn       func(ctx context.Context, email, password string) (*domain.User, string, error)
	updateFn      func(ctx context.Context, user *domain.User, in ports.UpdateUserInput) (*domain.User, error)
	setAvatarFn   func(ctx context.Context, user *domain.User, filename string, data []byte) error
	avatarFn      func(ctx context.Context, userID string) ([]byte, error)
	logoutCalls   int
	removeCalls   int
	clearCalls    int
	logoutAllCall int
}

func (s *stubUserService) Signup(ctx context.Context, in ports.CreateUserInput) (*domain.User, string, error) {
	return s.signupFn(ctx, in)
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubUserService) Logout(context.Context, *domain.User, string) error {
	s.logoutCalls++
	return nil
}

func (s *stubUserService) LogoutAll(context.Context, *domain.User) error {
	s.logoutAllCall++
	return nil
}

func (s *stubUserService) Update(ctx context.Context, user *domain.User, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, user, in)
}

func (s *stubUserService) Remove(context.Context, *domain.User) error {
	s.removeCalls++
	return nil
}

func (s *stubUserService) SetAvatar(ctx context.Context, user *domain.User, filename string, data []byte) error {
	return s.setAvatarFn(ctx, user, filename, data)
}

func (s *stubUserService) ClearAvatar(context.Context, *domain.User) error {
	s.clearCalls++
	return nil
}

func (s *stubUserService) Avatar(ctx context.Context, userID string) ([]byte, error) {
	return s.avatarFn(ctx, userID)
}

type stubLimiter struct {
	allow bool
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, nil
}

func newTestContext(t *testing.T, method, target string, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func authenticate(c echo.Context, user *domain.User, token string) {
	c.Set("user", user)
	c.Set("token", token)
}

// ---------------------------------------------------------------------------
// Signup / Login
// ---------------------------------------------------------------------------

func TestUserHandler_Signup_Success(t *testing.T) {
	stub := &stubUserService{
		signupFn: func(_ context.Context, in ports.CreateUserInput) (*domain.User, string, error) {
			if in.Name != "Ann" || in.Email != "ann@x.com" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{
				ID:       "user_1",
				Name:     in.Name,
				Email:    in.Email,
				Password: "$2a$10$hash",
				Tokens:   []domain.AuthToken{{Token: "tok"}},
				Avatar:   []byte{1, 2, 3},
			}, "tok", nil
		},
	}
	h := NewUserHandler(stub, nil)

	c, rec := newTestContext(t, http.MethodPost, "/users",
		`{"name":"Ann","email":"ann@x.com","password":"longenough1"}`)
	if err := h.Signup(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if string(resp["token"]) != `"tok"` {
		t.Fatalf("token missing from response")
	}

	var user map[string]any
	if err := json.Unmarshal(resp["user"], &user); err != nil {
		t.Fatalf("invalid user json: %v", err)
	}
	for _, private := range []string{"password", "tokens", "avatar"} {
		if _, leaked := user[private]; leaked {
			t.Fatalf("private field %q leaked in response: %s", private, resp["user"])
		}
	}
	if user["name"] != "Ann" {
		t.Fatalf("unexpected user payload: %v", user)
	}
}

func TestUserHandler_Signup_RejectsInvalidPayload(t *testing.T) {
	h := NewUserHandler(&stubUserService{
		signupFn: func(context.Context, ports.CreateUserInput) (*domain.User, string, error) {
			t.Fatalf("service should not be called")
			return nil, "", nil
		},
	}, nil)

	c, _ := newTestContext(t, http.MethodPost, "/users",
		`{"name":"Ann","email":"not-an-email","password":"longenough1"}`)
	err := h.Signup(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestUserHandler_Login_PropagatesGenericError(t *testing.T) {
	h := NewUserHandler(&stubUserService{
		loginFn: func(context.Context, string, string) (*domain.User, string, error) {
			return nil, "", domain.ErrUnableToLogin
		},
	}, nil)

	c, _ := newTestContext(t, http.MethodPost, "/users/login",
		`{"email":"ann@x.com","password":"wrong"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrUnableToLogin) {
		t.Fatalf("expected ErrUnableToLogin, got %v", err)
	}
}

func TestUserHandler_Login_RateLimited(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	h := NewUserHandler(&stubUserService{
		loginFn: func(context.Context, string, string) (*domain.User, string, error) {
			t.Fatalf("service should not be called when throttled")
			return nil, "", nil
		},
	}, limiter)

	c, _ := newTestContext(t, http.MethodPost, "/users/login",
		`{"email":"ann@x.com","password":"longenough1"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrTooManyLogins) {
		t.Fatalf("expected ErrTooManyLogins, got %v", err)
	}
	if len(limiter.keys) != 1 || !strings.HasPrefix(limiter.keys[0], "ann@x.com:") {
		t.Fatalf("limiter keyed wrong: %v", limiter.keys)
	}
}

// ---------------------------------------------------------------------------
// Self-service routes
// ---------------------------------------------------------------------------

func TestUserHandler_Me_RequiresAuthContext(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, nil)

	c, _ := newTestContext(t, http.MethodGet, "/users/me", "")
	err := h.Me(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestUserHandler_Me_ReturnsProfile(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, nil)

	c, rec := newTestContext(t, http.MethodGet, "/users/me", "")
	authenticate(c, &domain.User{ID: "user_1", Name: "Ann"}, "tok")

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"name":"Ann"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUserHandler_Update_UnknownKeyRejectsAll(t *testing.T) {
	h := NewUserHandler(&stubUserService{
		updateFn: func(context.Context, *domain.User, ports.UpdateUserInput) (*domain.User, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}, nil)

	c, _ := newTestContext(t, http.MethodPatch, "/users/me",
		`{"name":"Anna","location":"somewhere"}`)
	authenticate(c, &domain.User{ID: "user_1"}, "tok")

	if err := h.Update(c); !errors.Is(err, domain.ErrInvalidUpdates) {
		t.Fatalf("expected ErrInvalidUpdates, got %v", err)
	}
}

func TestUserHandler_Update_PassesOnlyPresentFields(t *testing.T) {
	var got ports.UpdateUserInput
	h := NewUserHandler(&stubUserService{
		updateFn: func(_ context.Context, user *domain.User, in ports.UpdateUserInput) (*domain.User, error) {
			got = in
			return user, nil
		},
	}, nil)

	c, rec := newTestContext(t, http.MethodPatch, "/users/me", `{"age":31}`)
	authenticate(c, &domain.User{ID: "user_1"}, "tok")

	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Age == nil || *got.Age != 31 {
		t.Fatalf("age not passed: %+v", got)
	}
	if got.Name != nil || got.Email != nil || got.Password != nil {
		t.Fatalf("absent fields should stay nil: %+v", got)
	}
}

func TestUserHandler_Update_EmptyBodyChangesNothing(t *testing.T) {
	h := NewUserHandler(&stubUserService{
		updateFn: func(_ context.Context, user *domain.User, in ports.UpdateUserInput) (*domain.User, error) {
			if in.Name != nil || in.Email != nil || in.Password != nil || in.Age != nil {
				t.Fatalf("empty body must apply nothing: %+v", in)
			}
			return user, nil
		},
	}, nil)

	c, rec := newTestContext(t, http.MethodPatch, "/users/me", "")
	authenticate(c, &domain.User{ID: "user_1", Name: "Ann"}, "tok")

	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Logout_UsesRequestToken(t *testing.T) {
	stub := &stubUserService{}
	h := NewUserHandler(stub, nil)

	c, rec := newTestContext(t, http.MethodPost, "/users/logout", "")
	authenticate(c, &domain.User{ID: "user_1"}, "tok")

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.logoutCalls != 1 {
		t.Fatalf("logout not delegated to service")
	}
}

func TestUserHandler_Remove_ReturnsDeletedUser(t *testing.T) {
	stub := &stubUserService{}
	h := NewUserHandler(stub, nil)

	c, rec := newTestContext(t, http.MethodDelete, "/users/me", "")
	authenticate(c, &domain.User{ID: "user_1", Name: "Ann"}, "tok")

	if err := h.Remove(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.removeCalls != 1 {
		t.Fatalf("remove not delegated to service")
	}
	if !strings.Contains(rec.Body.String(), `"name":"Ann"`) {
		t.Fatalf("deleted user not echoed: %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Avatar
// ---------------------------------------------------------------------------

func TestUserHandler_UploadAvatar_PassesFileToService(t *testing.T) {
	var gotFilename string
	var gotData []byte
	h := NewUserHandler(&stubUserService{
		setAvatarFn: func(_ context.Context, _ *domain.User, filename string, data []byte) error {
			gotFilename = filename
			gotData = data
			return nil
		},
	}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "photo.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("image-bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	authenticate(c, &domain.User{ID: "user_1"}, "tok")

	if err := h.UploadAvatar(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotFilename != "photo.png" || string(gotData) != "image-bytes" {
		t.Fatalf("file not passed through: %q %q", gotFilename, gotData)
	}
}

func TestUserHandler_UploadAvatar_RejectsOversizeBeforeReading(t *testing.T) {
	h := NewUserHandler(&stubUserService{
		setAvatarFn: func(context.Context, *domain.User, string, []byte) error {
			t.Fatalf("oversized upload must not reach the service")
			return nil
		},
	}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "huge.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(make([]byte, domain.MaxAvatarBytes+1)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	authenticate(c, &domain.User{ID: "user_1"}, "tok")

	if err := h.UploadAvatar(c); !errors.Is(err, domain.ErrBadUpload) {
		t.Fatalf("expected ErrBadUpload, got %v", err)
	}
}

func TestUserHandler_UploadAvatar_MissingFile(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, nil)

	c, _ := newTestContext(t, http.MethodPost, "/users/me/avatar", "")
	authenticate(c, &domain.User{ID: "user_1"}, "tok")

	err := h.UploadAvatar(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestUserHandler_GetAvatar_ServesPNG(t *testing.T) {
	h := NewUserHandler(&stubUserService{
		avatarFn: func(_ context.Context, userID string) ([]byte, error) {
			if userID != "user_1" {
				t.Fatalf("unexpected id: %s", userID)
			}
			return []byte("png-bytes"), nil
		},
	}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/users/user_1/avatar", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/users/:id/avatar")
	c.SetParamNames("id")
	c.SetParamValues("user_1")

	if err := h.GetAvatar(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestUserHandler_GetAvatar_NotFound(t *testing.T) {
	h := NewUserHandler(&stubUserService{
		avatarFn: func(context.Context, string) ([]byte, error) {
			return nil, domain.ErrAvatarNotFound
		},
	}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/users/ghost/avatar", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("ghost")

	if err := h.GetAvatar(c); !errors.Is(err, domain.ErrAvatarNotFound) {
		t.Fatalf("expected ErrAvatarNotFound, got %v", err)
	}
}

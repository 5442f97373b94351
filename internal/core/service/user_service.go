package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/task-api/internal/api/metrics"
	"github.com/taskhive/task-api/internal/core/domain"
	"github.com/taskhive/task-api/internal/core/ports"
)

// UserService implements account lifecycle, credentials and avatar policy.
type UserService struct {
	users     ports.UserRepository
	tasks     ports.TaskRepository
	notifier  ports.Notifier
	images    ports.ImageProcessor
	validate  *validator.Validate
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewUserService(
	users ports.UserRepository,
	tasks ports.TaskRepository,
	notifier ports.Notifier,
	images ports.ImageProcessor,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = 72 * time.Hour
	}
	return &UserService{
		users:     users,
		tasks:     tasks,
		notifier:  notifier,
		images:    images,
		validate:  validator.New(),
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

func (s *UserService) Signup(ctx context.Context, in ports.CreateUserInput) (*domain.User, string, error) {
	now := time.Now().UTC()
	user := &domain.User{
		Name:      strings.TrimSpace(in.Name),
		Email:     normalizeEmail(in.Email),
		Age:       in.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.validateProfile(user); err != nil {
		return nil, "", err
	}

	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error().Err(err).Msg("password hashing failed")
		return nil, "", domain.ErrUnableToLogin
	}
	user.Password = string(hash)

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	if err := s.notifier.SendWelcome(created.Email, created.Name); err != nil {
		s.log.Warn().Err(err).Str("email", created.Email).Msg("welcome notification failed")
	}

	token, err := s.issueToken(ctx, created)
	if err != nil {
		return nil, "", err
	}

	metrics.UsersRegisteredTotal.Inc()
	s.log.Info().Str("user_id", created.ID).Msg("user registered")

	return created, token, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	// Unknown email and wrong password are deliberately indistinguishable so
	// that login probing cannot reveal whether an account exists.
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, "", domain.ErrUnableToLogin
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, "", domain.ErrUnableToLogin
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return user, token, nil
}

func (s *UserService) Logout(ctx context.Context, user *domain.User, token string) error {
	user.RemoveToken(token)
	user.UpdatedAt = time.Now().UTC()
	return s.users.Update(ctx, user)
}

func (s *UserService) LogoutAll(ctx context.Context, user *domain.User) error {
	user.Tokens = nil
	user.UpdatedAt = time.Now().UTC()
	return s.users.Update(ctx, user)
}

func (s *UserService) Update(ctx context.Context, user *domain.User, in ports.UpdateUserInput) (*domain.User, error) {
	updated := *user

	if in.Name != nil {
		updated.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		updated.Email = normalizeEmail(*in.Email)
	}
	if in.Age != nil {
		updated.Age = *in.Age
	}
	if err := s.validateProfile(&updated); err != nil {
		return nil, err
	}

	// Re-hash only when the password field itself changed.
	if in.Password != nil {
		password := strings.TrimSpace(*in.Password)
		if err := validatePassword(password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			s.log.Error().Err(err).Msg("password hashing failed")
			return nil, domain.ErrUnableToLogin
		}
		updated.Password = string(hash)
	}

	updated.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Remove cascades task deletion before removing the account. The two steps
// are not transactional: a failure in between leaves the account intact with
// its tasks already gone, never orphaned tasks.
func (s *UserService) Remove(ctx context.Context, user *domain.User) error {
	deleted, err := s.tasks.DeleteByOwner(ctx, user.ID)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	if err := s.notifier.SendCancellation(user.Email, user.Name); err != nil {
		s.log.Warn().Err(err).Str("email", user.Email).Msg("cancellation notification failed")
	}

	s.log.Info().Str("user_id", user.ID).Int64("tasks_deleted", deleted).Msg("user removed")
	return nil
}

func (s *UserService) SetAvatar(ctx context.Context, user *domain.User, filename string, data []byte) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
	default:
		metrics.AvatarUploadsTotal.WithLabelValues("rejected").Inc()
		return domain.ErrBadUpload
	}
	if len(data) > domain.MaxAvatarBytes {
		metrics.AvatarUploadsTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: file larger than 1MB", domain.ErrBadUpload)
	}

	normalized, err := s.images.Normalize(data)
	if err != nil {
		metrics.AvatarUploadsTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: %s", domain.ErrBadUpload, "could not process image")
	}

	user.Avatar = normalized
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	metrics.AvatarUploadsTotal.WithLabelValues("accepted").Inc()
	return nil
}

func (s *UserService) ClearAvatar(ctx context.Context, user *domain.User) error {
	user.Avatar = nil
	user.UpdatedAt = time.Now().UTC()
	return s.users.Update(ctx, user)
}

func (s *UserService) Avatar(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.ErrAvatarNotFound
	}
	if len(user.Avatar) == 0 {
		return nil, domain.ErrAvatarNotFound
	}
	return user.Avatar, nil
}

// issueToken signs a stateless-verifiable JWT carrying the user id, appends
// it to the user's active token list, and persists the list.
func (s *UserService) issueToken(ctx context.Context, user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		s.log.Error().Err(err).Msg("token signing failed")
		return "", domain.ErrUnableToLogin
	}

	user.Tokens = append(user.Tokens, domain.AuthToken{Token: token})
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}
	return token, nil
}

func (s *UserService) validateProfile(user *domain.User) error {
	if user.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if err := s.validate.Var(user.Email, "required,email"); err != nil {
		return fmt.Errorf("%w: email is invalid", domain.ErrValidation)
	}
	if user.Age < 0 {
		return fmt.Errorf("%w: age must be a positive number", domain.ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < 7 {
		return fmt.Errorf("%w: password must be at least 7 characters", domain.ErrValidation)
	}
	if strings.Contains(strings.ToLower(password), "password") {
		return fmt.Errorf(`%w: password cannot contain "password"`, domain.ErrValidation)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

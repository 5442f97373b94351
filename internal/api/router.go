package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/taskhive/task-api/docs"
	"github.com/taskhive/task-api/internal/api/handler"
	"github.com/taskhive/task-api/internal/api/middleware"
	"github.com/taskhive/task-api/internal/core/ports"
	"github.com/taskhive/task-api/internal/core/service"
	"github.com/taskhive/task-api/internal/infrastructure/config"
	mongodb "github.com/taskhive/task-api/internal/infrastructure/db/mongo"
	redisdb "github.com/taskhive/task-api/internal/infrastructure/db/redis"
	"github.com/taskhive/task-api/internal/infrastructure/images"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, notifier ports.Notifier, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("taskapi"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	taskRepo := mongodb.NewTaskRepository(db)

	userService := service.NewUserService(
		userRepo, taskRepo, notifier, images.NewProcessor(),
		cfg.JWTSecret, cfg.TokenTTL, log,
	)
	taskService := service.NewTaskService(taskRepo, log)

	limiter := redisdb.NewLoginLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.Window, log)
	userHandler := handler.NewUserHandler(userService, limiter)
	taskHandler := handler.NewTaskHandler(taskService)
	auth := middleware.Auth(cfg.JWTSecret, userRepo)

	// --- Root greeting ---
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "welcome to the task manager API")
	})

	// --- User routes ---
	e.POST("/users", userHandler.Signup)
	e.POST("/users/login", userHandler.Login)
	e.POST("/users/logout", userHandler.Logout, auth)
	e.POST("/users/logoutAll", userHandler.LogoutAll, auth)
	e.GET("/users/me", userHandler.Me, auth)
	e.PATCH("/users/me", userHandler.Update, auth)
	e.DELETE("/users/me", userHandler.Remove, auth)
	e.POST("/users/me/avatar", userHandler.UploadAvatar, auth, echomiddleware.BodyLimit("2M"))
	e.DELETE("/users/me/avatar", userHandler.DeleteAvatar, auth)
	e.GET("/users/:id/avatar", userHandler.GetAvatar)

	// --- Task routes (all protected) ---
	e.POST("/tasks", taskHandler.Create, auth)
	e.GET("/tasks", taskHandler.List, auth)
	e.GET("/tasks/:id", taskHandler.Get, auth)
	e.PATCH("/tasks/:id", taskHandler.Update, auth)
	e.DELETE("/tasks/:id", taskHandler.Delete, auth)

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/taskhive/task-api/internal/api/metrics"
	"github.com/taskhive/task-api/internal/core/ports"
)

// Auth validates the bearer token and injects the resolved user into context.
//
// A token passes only when its HS256 signature verifies AND it is still
// present in the user's stored token list. The second check is what makes
// selective logout work with stateless-signed tokens: a revoked token keeps a
// valid signature but is no longer in the list.
func Auth(jwtSecret string, users ports.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.AuthRejectedTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "please authenticate")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				metrics.AuthRejectedTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "please authenticate")
			}
			raw := strings.TrimSpace(parts[1])

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				metrics.AuthRejectedTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "please authenticate")
			}

			userID, _ := claims["sub"].(string)
			if userID == "" {
				metrics.AuthRejectedTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "please authenticate")
			}

			user, err := users.FindByIDAndToken(c.Request().Context(), userID, raw)
			if err != nil {
				metrics.AuthRejectedTotal.WithLabelValues("revoked").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "please authenticate")
			}

			c.Set("user", user)
			c.Set("token", raw)

			return next(c)
		}
	}
}

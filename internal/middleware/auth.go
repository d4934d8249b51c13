package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/goguixter/leads-backend/internal/tenant"
	"github.com/goguixter/leads-backend/pkg/jwtutil"
	"github.com/goguixter/leads-backend/pkg/logger"
	"github.com/goguixter/leads-backend/prometheus"
)

// ActorKey is the echo context key the authenticated tenant.Actor is stored
// under.
const ActorKey = "actor"

// AuthMiddleware validates the access token from the Authorization header and
// stores the authenticated actor in the request context.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"error":   echo.Map{"code": "UNAUTHORIZED", "message": "Token de acesso ausente"},
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"error":   echo.Map{"code": "UNAUTHORIZED", "message": "Formato de autorizacao invalido, use Bearer token"},
			})
		}

		claims, err := jwtutil.ValidateAccessToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"error":   echo.Map{"code": "UNAUTHORIZED", "message": "Token invalido ou expirado"},
			})
		}

		c.Set(ActorKey, tenant.Actor{
			UserID:    claims.UserID,
			Role:      claims.Role,
			PartnerID: claims.PartnerID,
		})
		return next(c)
	}
}

// ActorFromContext returns the actor stored by AuthMiddleware. The zero Actor
// comes back on routes that skipped authentication.
func ActorFromContext(c echo.Context) tenant.Actor {
	actor, _ := c.Get(ActorKey).(tenant.Actor)
	return actor
}

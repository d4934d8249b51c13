package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/goguixter/leads-backend/internal/middleware"
	"github.com/goguixter/leads-backend/internal/service"
	"github.com/goguixter/leads-backend/pkg/jwtutil"
	"github.com/goguixter/leads-backend/pkg/logger"
	"github.com/goguixter/leads-backend/prometheus"
)

// AuthHandler exposes login, token refresh and logout.
type AuthHandler struct {
	users service.UserRepository
}

func NewAuthHandler(users service.UserRepository) *AuthHandler {
	return &AuthHandler{users: users}
}

// Login verifies credentials and issues an access/refresh token pair. All
// credential failures answer the same message so the endpoint does not reveal
// which part was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "Requisicao invalida",
		}})
	}

	user, err := h.users.FindByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		log.Warn("Login rejected", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: errorBody{
			Code:    "UNAUTHORIZED",
			Message: "Credenciais invalidas",
		}})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: errorBody{
			Code:    "UNAUTHORIZED",
			Message: "Credenciais invalidas",
		}})
	}

	accessToken, err := jwtutil.GenerateAccessToken(user.ID, user.Role, user.PartnerID)
	if err != nil {
		log.Error("Failed to generate access token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return err
	}
	refreshToken, err := jwtutil.GenerateRefreshToken(user.ID, user.Role, user.PartnerID)
	if err != nil {
		log.Error("Failed to generate refresh token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return err
	}

	log.Info("User logged in",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": echo.Map{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"role":       user.Role,
			"partner_id": user.PartnerID,
		},
	})
}

// Refresh exchanges a valid refresh token for a fresh token pair. The claims
// are re-read from the database so deactivated users cannot rotate forever.
func (h *AuthHandler) Refresh(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "Requisicao invalida",
		}})
	}

	claims, err := jwtutil.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		log.Warn("Invalid refresh token", zap.Error(err))
		prometheus.RecordAuthError("invalid_refresh_token")
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: errorBody{
			Code:    "UNAUTHORIZED",
			Message: "Token invalido ou expirado",
		}})
	}

	user, err := h.users.FindByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		prometheus.RecordAuthError("invalid_refresh_token")
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: errorBody{
			Code:    "UNAUTHORIZED",
			Message: "Token invalido ou expirado",
		}})
	}

	accessToken, err := jwtutil.GenerateAccessToken(user.ID, user.Role, user.PartnerID)
	if err != nil {
		return err
	}
	refreshToken, err := jwtutil.GenerateRefreshToken(user.ID, user.Role, user.PartnerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Logout is stateless: tokens simply expire. The endpoint exists so clients
// have a uniform place to end a session.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	user, err := h.users.FindByID(c.Request().Context(), actor.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: errorBody{
			Code:    "UNAUTHORIZED",
			Message: "Token invalido ou expirado",
		}})
	}
	return c.JSON(http.StatusOK, user)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/goguixter/leads-backend/internal/apperror"
	"github.com/goguixter/leads-backend/internal/middleware"
	"github.com/goguixter/leads-backend/internal/model"
	"github.com/goguixter/leads-backend/internal/service"
	"github.com/goguixter/leads-backend/internal/tenant"
	"github.com/goguixter/leads-backend/pkg/logger"
)

// UserHandler exposes account management. Creation and listing are
// MASTER-only.
type UserHandler struct {
	users    service.UserRepository
	partners service.PartnerRepository
}

func NewUserHandler(users service.UserRepository, partners service.PartnerRepository) *UserHandler {
	return &UserHandler{users: users, partners: partners}
}

// Create registers an account. The role/partner pairing is validated here:
// PARTNER users must name an existing partner and MASTER users must not name
// any.
func (h *UserHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	actor := middleware.ActorFromContext(c)
	if err := tenant.RequireMaster(actor); err != nil {
		return err
	}

	var req struct {
		Name      string  `json:"name"`
		Email     string  `json:"email"`
		Password  string  `json:"password"`
		Role      string  `json:"role"`
		PartnerID *string `json:"partner_id"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Requisicao invalida")
	}

	if len(req.Name) < 2 || len(req.Password) < 8 {
		return apperror.BadRequest("Nome ou senha invalidos")
	}
	if req.Role != model.RoleMaster && req.Role != model.RolePartner {
		return apperror.BadRequest("Role invalida")
	}

	switch req.Role {
	case model.RolePartner:
		if req.PartnerID == nil || *req.PartnerID == "" {
			return apperror.BadRequest("partner_id e obrigatorio para usuario PARTNER")
		}
		partner, err := h.partners.FindByID(c.Request().Context(), *req.PartnerID)
		if err != nil {
			return err
		}
		if partner == nil {
			return apperror.NotFound("Partner nao encontrado")
		}
	case model.RoleMaster:
		if req.PartnerID != nil && *req.PartnerID != "" {
			return apperror.BadRequest("Usuario MASTER nao pode ter partner_id")
		}
		req.PartnerID = nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		PartnerID:    req.PartnerID,
		IsActive:     true,
	}
	if err := h.users.Create(c.Request().Context(), user); err != nil {
		return err
	}

	log.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) List(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	if err := tenant.RequireMaster(actor); err != nil {
		return err
	}

	var partnerID *string
	if id := c.QueryParam("partner_id"); id != "" {
		partnerID = &id
	}
	users, err := h.users.List(c.Request().Context(), partnerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

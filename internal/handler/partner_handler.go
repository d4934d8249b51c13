package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/goguixter/leads-backend/internal/apperror"
	"github.com/goguixter/leads-backend/internal/middleware"
	"github.com/goguixter/leads-backend/internal/model"
	"github.com/goguixter/leads-backend/internal/service"
	"github.com/goguixter/leads-backend/internal/tenant"
	"github.com/goguixter/leads-backend/pkg/logger"
)

// PartnerHandler exposes tenant management. Everything except Me is
// MASTER-only.
type PartnerHandler struct {
	partners service.PartnerRepository
}

func NewPartnerHandler(partners service.PartnerRepository) *PartnerHandler {
	return &PartnerHandler{partners: partners}
}

// Me returns the partner the authenticated PARTNER user belongs to. MASTER
// users are not bound to a tenant and get a pseudo-partner instead.
func (h *PartnerHandler) Me(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	if actor.IsMaster() {
		return c.JSON(http.StatusOK, echo.Map{
			"id":        nil,
			"name":      "MASTER",
			"is_active": true,
		})
	}
	if actor.PartnerID == nil {
		return apperror.NotFound("Usuario nao esta vinculado a um partner")
	}
	partner, err := h.partners.FindByID(c.Request().Context(), *actor.PartnerID)
	if err != nil {
		return err
	}
	if partner == nil {
		return apperror.NotFound("Partner nao encontrado")
	}
	return c.JSON(http.StatusOK, partner)
}

func (h *PartnerHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	actor := middleware.ActorFromContext(c)
	if err := tenant.RequireMaster(actor); err != nil {
		return err
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || len(req.Name) < 2 {
		return apperror.BadRequest("Nome do partner invalido")
	}

	partner := &model.Partner{Name: req.Name, IsActive: true}
	if err := h.partners.Create(c.Request().Context(), partner); err != nil {
		return err
	}

	log.Info("partner created", zap.String("partner_id", partner.ID))
	return c.JSON(http.StatusCreated, partner)
}

func (h *PartnerHandler) List(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	if err := tenant.RequireMaster(actor); err != nil {
		return err
	}
	partners, err := h.partners.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": partners})
}

func (h *PartnerHandler) Get(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	if _, err := tenant.Resolve(actor, strPtr(c.Param("id"))); err != nil {
		return err
	}
	partner, err := h.partners.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if partner == nil {
		return apperror.NotFound("Partner nao encontrado")
	}
	return c.JSON(http.StatusOK, partner)
}

func (h *PartnerHandler) Patch(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	if err := tenant.RequireMaster(actor); err != nil {
		return err
	}

	var req struct {
		Name     *string `json:"name"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Requisicao invalida")
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		if len(*req.Name) < 2 {
			return apperror.BadRequest("Nome do partner invalido")
		}
		changes["name"] = *req.Name
	}
	if req.IsActive != nil {
		changes["is_active"] = *req.IsActive
	}
	if len(changes) == 0 {
		return apperror.BadRequest("Informe ao menos um campo para atualizar")
	}

	existing, err := h.partners.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if existing == nil {
		return apperror.NotFound("Partner nao encontrado")
	}

	if err := h.partners.Update(c.Request().Context(), existing.ID, changes); err != nil {
		return err
	}
	updated, err := h.partners.FindByID(c.Request().Context(), existing.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func strPtr(s string) *string {
	return &s
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/goguixter/leads-backend/internal/apperror"
	"github.com/goguixter/leads-backend/internal/middleware"
	"github.com/goguixter/leads-backend/internal/service"
)

// LeadHandler exposes the lead lifecycle endpoints.
type LeadHandler struct {
	leads *service.LeadService
}

func NewLeadHandler(leads *service.LeadService) *LeadHandler {
	return &LeadHandler{leads: leads}
}

func (h *LeadHandler) Create(c echo.Context) error {
	actor := middleware.ActorFromContext(c)

	var req service.CreateLeadInput
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Requisicao invalida")
	}

	lead, err := h.leads.Create(c.Request().Context(), actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lead)
}

func (h *LeadHandler) List(c echo.Context) error {
	actor := middleware.ActorFromContext(c)

	filter := service.LeadFilter{
		Status: c.QueryParam("status"),
		School: c.QueryParam("school"),
		City:   c.QueryParam("city"),
		Search: c.QueryParam("search"),
		Page:   queryInt(c, "page", 1),
	}
	filter.PageSize = queryInt(c, "page_size", 20)
	if id := c.QueryParam("partner_id"); id != "" {
		filter.PartnerID = &id
	}

	page, err := h.leads.List(c.Request().Context(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *LeadHandler) Get(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	lead, err := h.leads.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) History(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	history, err := h.leads.History(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, history)
}

func (h *LeadHandler) Patch(c echo.Context) error {
	actor := middleware.ActorFromContext(c)

	var req service.PatchLeadInput
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Requisicao invalida")
	}

	lead, err := h.leads.Patch(c.Request().Context(), actor, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) GenerateMessage(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	msg, err := h.leads.GenerateMessage(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

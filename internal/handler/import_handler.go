package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/goguixter/leads-backend/internal/apperror"
	"github.com/goguixter/leads-backend/internal/middleware"
	"github.com/goguixter/leads-backend/internal/service"
	"github.com/goguixter/leads-backend/internal/spreadsheet"
	"github.com/goguixter/leads-backend/internal/tenant"
	"github.com/goguixter/leads-backend/pkg/logger"
)

// ImportHandler exposes the spreadsheet import pipeline over HTTP.
type ImportHandler struct {
	imports          *service.ImportService
	maxUploadBytes   int64
	defaultPartnerID string
}

func NewImportHandler(imports *service.ImportService, maxUploadBytes int64, defaultPartnerID string) *ImportHandler {
	return &ImportHandler{
		imports:          imports,
		maxUploadBytes:   maxUploadBytes,
		defaultPartnerID: defaultPartnerID,
	}
}

// Preview accepts a multipart xlsx upload and returns the per-row verdicts
// without creating any lead.
func (h *ImportHandler) Preview(c echo.Context) error {
	log := logger.FromContext(c)
	actor := middleware.ActorFromContext(c)

	var requested *string
	if id := c.FormValue("partner_id"); id != "" {
		requested = &id
	}
	scope, err := tenant.Resolve(actor, requested)
	if err != nil {
		return err
	}
	if scope == nil || *scope == "" {
		if h.defaultPartnerID == "" {
			return apperror.BadRequest("DEFAULT_PARTNER_ID obrigatorio para importar como MASTER")
		}
		scope = &h.defaultPartnerID
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperror.BadRequest("Arquivo da planilha e obrigatorio")
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".xlsx" && ext != ".xls" {
		return apperror.BadRequest("Apenas arquivos .xls ou .xlsx sao aceitos")
	}
	if fileHeader.Size > h.maxUploadBytes {
		return apperror.BadRequest("Arquivo excede o tamanho maximo permitido")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return apperror.BadRequest("Falha ao ler o arquivo enviado")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes+1))
	if err != nil {
		return apperror.BadRequest("Falha ao ler o arquivo enviado")
	}
	if int64(len(data)) > h.maxUploadBytes {
		return apperror.BadRequest("Arquivo excede o tamanho maximo permitido")
	}

	sheet, err := spreadsheet.ReadFirstSheet(data)
	if err != nil {
		return err
	}

	res, err := h.imports.Preview(c.Request().Context(), *scope, actor.UserID, fileHeader.Filename, sheet)
	if err != nil {
		return err
	}

	log.Info("import preview",
		zap.String("import_id", res.ImportID),
		zap.String("filename", fileHeader.Filename))
	return c.JSON(http.StatusOK, res)
}

// Confirm materializes a previewed batch into leads.
func (h *ImportHandler) Confirm(c echo.Context) error {
	actor := middleware.ActorFromContext(c)

	// ignore_duplicates defaults to true; clients opt in to strict mode.
	var req struct {
		IgnoreDuplicates *bool `json:"ignore_duplicates"`
	}
	if err := c.Bind(&req); err != nil {
		return apperror.BadRequest("Requisicao invalida")
	}
	ignoreDuplicates := true
	if req.IgnoreDuplicates != nil {
		ignoreDuplicates = *req.IgnoreDuplicates
	}

	res, err := h.imports.Confirm(c.Request().Context(), actor, c.Param("id"), ignoreDuplicates)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Cancel discards a draft batch.
func (h *ImportHandler) Cancel(c echo.Context) error {
	actor := middleware.ActorFromContext(c)
	if err := h.imports.Cancel(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

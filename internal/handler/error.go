package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/goguixter/leads-backend/internal/apperror"
	"github.com/goguixter/leads-backend/pkg/logger"
)

// errorBody is the envelope every failed request answers with.
type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// HTTPErrorHandler is the central echo error handler. Domain errors keep
// their status, code and details; anything unexpected answers a generic 500
// so internals never leak to clients.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	log := logger.FromContext(c)

	if appErr, ok := apperror.Is(err); ok {
		if appErr.Status >= http.StatusInternalServerError {
			log.Error("request failed", zap.Error(err))
		}
		_ = c.JSON(appErr.Status, errorResponse{Error: errorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}})
		return
	}

	if httpErr, ok := err.(*echo.HTTPError); ok {
		message, _ := httpErr.Message.(string)
		if message == "" {
			message = http.StatusText(httpErr.Code)
		}
		_ = c.JSON(httpErr.Code, errorResponse{Error: errorBody{
			Code:    http.StatusText(httpErr.Code),
			Message: message,
		}})
		return
	}

	log.Error("unhandled error", zap.Error(err))
	_ = c.JSON(http.StatusInternalServerError, errorResponse{Error: errorBody{
		Code:    "INTERNAL_ERROR",
		Message: "Erro interno do servidor",
	}})
}

// Package http provides operator endpoints for the dead-letter holding area.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/appointments/internal/deadletter/http/dto"
	deadLetterUseCase "github.com/allisson/appointments/internal/deadletter/usecase"
	"github.com/allisson/appointments/internal/httputil"
)

// DeadLetterHandler handles HTTP requests for dead-letter inspection and requeue.
type DeadLetterHandler struct {
	useCase deadLetterUseCase.UseCase
	logger  *slog.Logger
}

// NewDeadLetterHandler creates a new dead-letter handler.
func NewDeadLetterHandler(useCase deadLetterUseCase.UseCase, logger *slog.Logger) *DeadLetterHandler {
	return &DeadLetterHandler{
		useCase: useCase,
		logger:  logger,
	}
}

// ListHandler lists dead letters with pagination.
// GET /v1/dead-letters?channel=dispatch.pe&offset=0&limit=50
func (h *DeadLetterHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c, httputil.DeadLetterPage)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	deadLetters, err := h.useCase.List(c.Request.Context(), c.Query("channel"), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeadLettersToListResponse(deadLetters))
}

// RequeueHandler republishes a dead letter on its original channel.
// POST /v1/dead-letters/:id/requeue
func (h *DeadLetterHandler) RequeueHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid dead letter id: %w", err), h.logger)
		return
	}

	deadLetter, err := h.useCase.Requeue(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeadLetterToResponse(deadLetter))
}

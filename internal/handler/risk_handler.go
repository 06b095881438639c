package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/dto"
	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/response"
)

type riskService interface {
	Assess(ctx context.Context, req dto.RiskCheckRequest) (*dto.RiskAssessment, error)
}

// RiskHandler serves the advisory outpass risk check.
type RiskHandler struct {
	service riskService
}

// NewRiskHandler builds a new handler.
func NewRiskHandler(service riskService) *RiskHandler {
	return &RiskHandler{service: service}
}

// Check godoc
// @Summary Score a prospective outpass
// @Description Advisory only; no request is created or changed.
// @Tags Outpasses
// @Accept json
// @Produce json
// @Param payload body dto.RiskCheckRequest true "Risk check payload"
// @Success 200 {object} response.Envelope
// @Router /outpasses/risk-check [post]
func (h *RiskHandler) Check(c *gin.Context) {
	var req dto.RiskCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid risk check payload"))
		return
	}
	result, err := h.service.Assess(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

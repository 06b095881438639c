package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/dto"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/workflow"
	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/export"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/response"
)

type outpassService interface {
	Submit(ctx context.Context, req dto.SubmitOutpassRequest, actor *models.JWTClaims) (*dto.OutpassView, error)
	Act(ctx context.Context, requestID string, stage models.OutpassStage, decision models.OutpassAction, actor *models.JWTClaims) (*dto.ActOutpassResponse, error)
	ListForRequester(ctx context.Context, studentID string, actor *models.JWTClaims) ([]dto.OutpassView, error)
	ListPendingForStage(ctx context.Context, stage models.OutpassStage, actor *models.JWTClaims) ([]dto.PendingOutpassView, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.OutpassView, error)
	History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.OutpassEvent, error)
}

type gatePassService interface {
	Render(ctx context.Context, id string, actor *models.JWTClaims) (string, []byte, error)
	Link(ctx context.Context, id string, actor *models.JWTClaims) (*dto.GatePassLink, error)
	Download(ctx context.Context, token string) (string, []byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// OutpassHandler exposes the outpass approval workflow.
type OutpassHandler struct {
	service  outpassService
	gatePass gatePassService
	csv      csvRenderer
}

// NewOutpassHandler builds a new handler. gatePass may be nil when gate passes are disabled.
func NewOutpassHandler(service outpassService, gatePass gatePassService, csv csvRenderer) *OutpassHandler {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &OutpassHandler{service: service, gatePass: gatePass, csv: csv}
}

// Submit godoc
// @Summary Apply for an outpass
// @Description Resident students only. Send an Idempotency-Key header to make retries safe.
// @Tags Outpasses
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client retry key"
// @Param payload body dto.SubmitOutpassRequest true "Outpass payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /outpasses [post]
func (h *OutpassHandler) Submit(c *gin.Context) {
	var req dto.SubmitOutpassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid outpass payload"))
		return
	}
	view, err := h.service.Submit(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Mine godoc
// @Summary List my outpasses
// @Tags Outpasses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /outpasses/mine [get]
func (h *OutpassHandler) Mine(c *gin.Context) {
	items, err := h.service.ListForRequester(c.Request.Context(), "", claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// ListForStudent godoc
// @Summary List a student's outpasses
// @Tags Outpasses
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/outpasses [get]
func (h *OutpassHandler) ListForStudent(c *gin.Context) {
	items, err := h.service.ListForRequester(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Pending godoc
// @Summary List outpasses waiting at a stage
// @Description Each entry carries the requester's attendance shortfall. can_approve is advisory.
// @Tags Outpasses
// @Produce json
// @Produce text/csv
// @Param stage query string true "Stage (faculty-advisor, hostel-coordinator, hod, warden)"
// @Param format query string false "json (default) or csv"
// @Success 200 {object} response.Envelope
// @Router /outpasses/pending [get]
func (h *OutpassHandler) Pending(c *gin.Context) {
	stage, err := workflow.ParseStage(c.Query("stage"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "stage must be one of faculty-advisor, hostel-coordinator, hod, warden"))
		return
	}
	items, err := h.service.ListPendingForStage(c.Request.Context(), stage, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "csv":
		data, err := h.csv.Render(pendingDataset(items))
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export pending outpasses"))
			return
		}
		filename := fmt.Sprintf("pending-%s.csv", strings.ToLower(string(stage)))
		response.Attachment(c, filename, "text/csv", data)
	case "json":
		response.JSON(c, http.StatusOK, items, map[string]interface{}{"stage": stage, "total": len(items)})
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json or csv"))
	}
}

// Get godoc
// @Summary Get an outpass
// @Tags Outpasses
// @Produce json
// @Param id path string true "Outpass ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /outpasses/{id} [get]
func (h *OutpassHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// History godoc
// @Summary Outpass event log
// @Tags Outpasses
// @Produce json
// @Param id path string true "Outpass ID"
// @Success 200 {object} response.Envelope
// @Router /outpasses/{id}/history [get]
func (h *OutpassHandler) History(c *gin.Context) {
	events, err := h.service.History(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events)
}

// Act godoc
// @Summary Approve or reject a stage
// @Tags Outpasses
// @Produce json
// @Param id path string true "Outpass ID"
// @Param stage path string true "Stage (faculty-advisor, hostel-coordinator, hod, warden)"
// @Param action path string true "approve or reject"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /outpasses/{id}/stages/{stage}/{action} [post]
func (h *OutpassHandler) Act(c *gin.Context) {
	stage, err := workflow.ParseStage(c.Param("stage"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown stage"))
		return
	}
	decision, err := workflow.ParseDecision(c.Param("action"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "action must be approve or reject"))
		return
	}
	result, err := h.service.Act(c.Request.Context(), c.Param("id"), stage, decision, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// GatePass godoc
// @Summary Download the gate pass of an approved outpass
// @Tags Outpasses
// @Produce application/pdf
// @Param id path string true "Outpass ID"
// @Success 200 {file} file
// @Failure 412 {object} response.Envelope
// @Router /outpasses/{id}/gate-pass [get]
func (h *OutpassHandler) GatePass(c *gin.Context) {
	if h.gatePass == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "gate passes are disabled"))
		return
	}
	name, data, err := h.gatePass.Render(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, name, "application/pdf", data)
}

// GatePassLink godoc
// @Summary Create a signed gate pass download link
// @Tags Outpasses
// @Produce json
// @Param id path string true "Outpass ID"
// @Success 200 {object} response.Envelope
// @Router /outpasses/{id}/gate-pass/link [get]
func (h *OutpassHandler) GatePassLink(c *gin.Context) {
	if h.gatePass == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "gate passes are disabled"))
		return
	}
	link, err := h.gatePass.Link(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

// DownloadGatePass godoc
// @Summary Download a gate pass through a signed link
// @Tags Outpasses
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /gate-passes/{token} [get]
func (h *OutpassHandler) DownloadGatePass(c *gin.Context) {
	if h.gatePass == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "gate passes are disabled"))
		return
	}
	name, data, err := h.gatePass.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, name, "application/pdf", data)
}

func pendingDataset(items []dto.PendingOutpassView) export.Dataset {
	data := export.Dataset{
		Columns: []export.Column{
			{Key: "id", Title: "Outpass ID"},
			{Key: "reg_no", Title: "Register No"},
			{Key: "name", Title: "Student"},
			{Key: "department", Title: "Department"},
			{Key: "year", Title: "Year"},
			{Key: "section", Title: "Section"},
			{Key: "destination", Title: "Destination"},
			{Key: "reason", Title: "Reason"},
			{Key: "out", Title: "Out"},
			{Key: "return", Title: "Return"},
			{Key: "shortfall", Title: "Subjects Below Threshold"},
			{Key: "submitted_at", Title: "Submitted At"},
		},
		Rows: make([]map[string]string, 0, len(items)),
	}
	for _, item := range items {
		data.Rows = append(data.Rows, map[string]string{
			"id":           item.ID,
			"reg_no":       item.Student.RegNo,
			"name":         item.Student.Name,
			"department":   item.Student.Department,
			"year":         strconv.Itoa(item.Student.Year),
			"section":      item.Student.Section,
			"destination":  item.Destination,
			"reason":       item.Reason,
			"out":          item.OutDate + " " + item.OutTime,
			"return":       item.ReturnDate + " " + item.ReturnTime,
			"shortfall":    strconv.Itoa(item.ShortfallCount),
			"submitted_at": item.SubmittedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	return data
}

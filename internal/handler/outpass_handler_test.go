package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/dto"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/middleware"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
)

type outpassServiceMock struct {
	submitResp  *dto.OutpassView
	submitErr   error
	actResp     *dto.ActOutpassResponse
	actErr      error
	pending     []dto.PendingOutpassView
	listResp    []dto.OutpassView
	getErr      error
	lastStage   models.OutpassStage
	lastAction  models.OutpassAction
	lastStudent string
	lastActor   *models.JWTClaims
	submitted   bool
}

func (m *outpassServiceMock) Submit(ctx context.Context, req dto.SubmitOutpassRequest, actor *models.JWTClaims) (*dto.OutpassView, error) {
	m.submitted = true
	m.lastActor = actor
	return m.submitResp, m.submitErr
}

func (m *outpassServiceMock) Act(ctx context.Context, requestID string, stage models.OutpassStage, decision models.OutpassAction, actor *models.JWTClaims) (*dto.ActOutpassResponse, error) {
	m.lastStage, m.lastAction, m.lastActor = stage, decision, actor
	return m.actResp, m.actErr
}

func (m *outpassServiceMock) ListForRequester(ctx context.Context, studentID string, actor *models.JWTClaims) ([]dto.OutpassView, error) {
	m.lastStudent = studentID
	return m.listResp, nil
}

func (m *outpassServiceMock) ListPendingForStage(ctx context.Context, stage models.OutpassStage, actor *models.JWTClaims) ([]dto.PendingOutpassView, error) {
	m.lastStage = stage
	return m.pending, nil
}

func (m *outpassServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.OutpassView, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &dto.OutpassView{ID: id}, nil
}

func (m *outpassServiceMock) History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.OutpassEvent, error) {
	return []models.OutpassEvent{{ID: "evt-1", RequestID: id, Action: models.OutpassActionSubmit}}, nil
}

type gatePassMock struct {
	token string
}

func (g *gatePassMock) Render(ctx context.Context, id string, actor *models.JWTClaims) (string, []byte, error) {
	return "gate-pass-" + id + ".pdf", []byte("%PDF-1.3"), nil
}

func (g *gatePassMock) Link(ctx context.Context, id string, actor *models.JWTClaims) (*dto.GatePassLink, error) {
	return &dto.GatePassLink{URL: "/api/v1/gate-passes/tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (g *gatePassMock) Download(ctx context.Context, token string) (string, []byte, error) {
	g.token = token
	if token != "good" {
		return "", nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}
	return "gate-pass.pdf", []byte("%PDF-1.3"), nil
}

type claimsValidator map[string]*models.JWTClaims

func (v claimsValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var testTokens = claimsValidator{
	"student": {UserID: "u-stu", Role: models.RoleStudent, FullName: "Asha"},
	"teacher": {UserID: "u-fa", Role: models.RoleTeacher, FullName: "Dr. Advisor"},
}

func newTestRouter(svc *outpassServiceMock, gate *gatePassMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), Routes{
		Outpass: NewOutpassHandler(svc, gate, nil),
		Risk:    NewRiskHandler(riskServiceMock{}),
		Auth:    middleware.JWT(testTokens),
	})
	return r
}

func doRequest(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const submitBody = `{"reason":"Doctor","destination":"Hospital","out_date":"2026-10-20","out_time":"09:00","return_date":"2026-10-20","return_time":"18:00"}`

func TestOutpassHandlerSubmit(t *testing.T) {
	svc := &outpassServiceMock{submitResp: &dto.OutpassView{ID: "req-1", OverallStatus: models.OutpassStatusPending}}
	r := newTestRouter(svc, &gatePassMock{})

	w := doRequest(r, http.MethodPost, "/api/v1/outpasses", "student", submitBody)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"req-1"`)
	require.NotNil(t, svc.lastActor)
	assert.Equal(t, "u-stu", svc.lastActor.UserID)

	w = doRequest(r, http.MethodPost, "/api/v1/outpasses", "teacher", submitBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/outpasses", "", submitBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOutpassHandlerSubmitErrors(t *testing.T) {
	svc := &outpassServiceMock{submitErr: appErrors.Clone(appErrors.ErrIneligibleRequester, "")}
	r := newTestRouter(svc, &gatePassMock{})

	w := doRequest(r, http.MethodPost, "/api/v1/outpasses", "student", submitBody)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "INELIGIBLE_REQUESTER", envelope.Error.Code)
	assert.Equal(t, "Non-hostelers cannot apply for outpass.", envelope.Error.Message)

	svc.submitted = false
	w = doRequest(r, http.MethodPost, "/api/v1/outpasses", "student", `{"reason":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, svc.submitted)
}

func TestOutpassHandlerAct(t *testing.T) {
	svc := &outpassServiceMock{actResp: &dto.ActOutpassResponse{Message: "Approved! Moved to Hostel Coordinator.", Outpass: &dto.OutpassView{ID: "req-1"}}}
	r := newTestRouter(svc, &gatePassMock{})

	w := doRequest(r, http.MethodPost, "/api/v1/outpasses/req-1/stages/faculty-advisor/approve", "teacher", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StageFacultyAdvisor, svc.lastStage)
	assert.Equal(t, models.OutpassActionApprove, svc.lastAction)
	assert.Contains(t, w.Body.String(), "Moved to Hostel Coordinator")

	w = doRequest(r, http.MethodPost, "/api/v1/outpasses/req-1/stages/dean/approve", "teacher", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/outpasses/req-1/stages/hod/escalate", "teacher", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/outpasses/req-1/stages/hod/approve", "student", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.actErr = appErrors.Clone(appErrors.ErrStageMismatch, "")
	w = doRequest(r, http.MethodPost, "/api/v1/outpasses/req-1/stages/hod/reject", "teacher", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "STAGE_MISMATCH")
	assert.Equal(t, models.OutpassActionReject, svc.lastAction)
}

func TestOutpassHandlerPending(t *testing.T) {
	svc := &outpassServiceMock{pending: []dto.PendingOutpassView{{
		OutpassView:    dto.OutpassView{ID: "req-1", Destination: "Home", OutDate: "2026-10-20", OutTime: "09:00"},
		Student:        dto.StudentSummary{Name: "Asha", RegNo: "21CS001", Year: 3},
		ShortfallCount: 2,
	}}}
	r := newTestRouter(svc, &gatePassMock{})

	w := doRequest(r, http.MethodGet, "/api/v1/outpasses/pending?stage=hostel-coordinator", "teacher", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StageHostelCoordinator, svc.lastStage)
	assert.Contains(t, w.Body.String(), `"shortfall_count":2`)

	w = doRequest(r, http.MethodGet, "/api/v1/outpasses/pending?stage=hod&format=csv", "teacher", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "pending-hod.csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "21CS001")

	w = doRequest(r, http.MethodGet, "/api/v1/outpasses/pending", "teacher", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/outpasses/pending?stage=hod&format=xml", "teacher", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/outpasses/pending?stage=hod", "student", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOutpassHandlerReads(t *testing.T) {
	svc := &outpassServiceMock{listResp: []dto.OutpassView{{ID: "a"}, {ID: "b"}}}
	r := newTestRouter(svc, &gatePassMock{})

	w := doRequest(r, http.MethodGet, "/api/v1/outpasses/mine", "student", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
	assert.Equal(t, "", svc.lastStudent)

	w = doRequest(r, http.MethodGet, "/api/v1/students/stu-9/outpasses", "teacher", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-9", svc.lastStudent)

	w = doRequest(r, http.MethodGet, "/api/v1/outpasses/req-7", "student", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"req-7"`)

	w = doRequest(r, http.MethodGet, "/api/v1/outpasses/req-7/history", "student", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SUBMIT")

	svc.getErr = appErrors.Clone(appErrors.ErrNotFound, "outpass not found")
	w = doRequest(r, http.MethodGet, "/api/v1/outpasses/missing", "student", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOutpassHandlerGatePass(t *testing.T) {
	gate := &gatePassMock{}
	r := newTestRouter(&outpassServiceMock{}, gate)

	w := doRequest(r, http.MethodGet, "/api/v1/outpasses/req-1/gate-pass", "student", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "gate-pass-req-1.pdf")

	w = doRequest(r, http.MethodGet, "/api/v1/outpasses/req-1/gate-pass/link", "student", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/gate-passes/tok")

	w = doRequest(r, http.MethodGet, "/api/v1/gate-passes/good", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "good", gate.token)

	w = doRequest(r, http.MethodGet, "/api/v1/gate-passes/forged", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOutpassHandlerGatePassDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewOutpassHandler(&outpassServiceMock{}, nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/outpasses/req-1/gate-pass", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-stu", Role: models.RoleStudent})

	h.GatePass(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

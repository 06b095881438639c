package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/dto"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/export"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/storage"
)

type approvedOutpassLoader interface {
	LoadApproved(ctx context.Context, id string, actor *models.JWTClaims) (*models.OutpassRequest, *models.StudentProfile, error)
}

type gatePassRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// GatePassService renders printable gate passes for fully approved outpasses and hands out
// signed, expiring download links for them.
type GatePassService struct {
	outpasses approvedOutpassLoader
	renderer  gatePassRenderer
	storage   *storage.LocalStorage
	signer    *storage.SignedURLSigner
	baseURL   string
	logger    *zap.Logger
}

// NewGatePassService constructs the service. baseURL prefixes generated download links.
func NewGatePassService(outpasses approvedOutpassLoader, renderer gatePassRenderer, store *storage.LocalStorage, signer *storage.SignedURLSigner, baseURL string, logger *zap.Logger) *GatePassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewPDFExporter()
	}
	return &GatePassService{
		outpasses: outpasses,
		renderer:  renderer,
		storage:   store,
		signer:    signer,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// Render returns the gate pass PDF of an approved request, generating it on first use.
func (s *GatePassService) Render(ctx context.Context, id string, actor *models.JWTClaims) (string, []byte, error) {
	name, err := s.ensure(ctx, id, actor)
	if err != nil {
		return "", nil, err
	}
	data, err := s.read(name)
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}

// Link returns a signed download link for the gate pass of an approved request.
func (s *GatePassService) Link(ctx context.Context, id string, actor *models.JWTClaims) (*dto.GatePassLink, error) {
	name, err := s.ensure(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(id, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign gate pass link")
	}
	return &dto.GatePassLink{URL: s.baseURL + "/gate-passes/" + token, ExpiresAt: expiresAt}, nil
}

// Download resolves a signed token into the stored gate pass.
func (s *GatePassService) Download(ctx context.Context, token string) (string, []byte, error) {
	_, name, _, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return "", nil, appErrors.Clone(appErrors.ErrUnauthorized, "download link expired")
		}
		return "", nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}
	data, err := s.read(name)
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}

// Purge removes cached gate pass files older than retention. They are re-rendered on demand.
func (s *GatePassService) Purge(retention time.Duration) (int, error) {
	removed, err := s.storage.CleanupOlderThan(retention)
	if err != nil {
		return len(removed), fmt.Errorf("purge gate passes: %w", err)
	}
	if len(removed) > 0 {
		s.logger.Info("gate passes purged", zap.Int("count", len(removed)))
	}
	return len(removed), nil
}

func (s *GatePassService) ensure(ctx context.Context, id string, actor *models.JWTClaims) (string, error) {
	req, student, err := s.outpasses.LoadApproved(ctx, id, actor)
	if err != nil {
		return "", err
	}
	name := gatePassFileName(req.ID)
	exists, err := s.storage.Exists(name)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check gate pass")
	}
	if exists {
		return name, nil
	}

	data, err := s.renderer.Render(gatePassDocument(*req, *student))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render gate pass")
	}
	if _, err := s.storage.Save(name, data); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store gate pass")
	}
	s.logger.Info("gate pass generated", zap.String("request_id", req.ID), zap.String("file", name))
	return name, nil
}

func (s *GatePassService) read(name string) ([]byte, error) {
	f, err := s.storage.Open(name)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "gate pass not found")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read gate pass")
	}
	return data, nil
}

func gatePassFileName(id string) string {
	return fmt.Sprintf("gate-pass-%s.pdf", id)
}

func gatePassDocument(req models.OutpassRequest, student models.StudentProfile) export.Document {
	approvals := &export.Dataset{
		Columns: []export.Column{
			{Key: "stage", Title: "Stage"},
			{Key: "approver", Title: "Approved By"},
			{Key: "at", Title: "Approved At"},
		},
	}
	for i, stage := range models.ApprovalStages {
		state := req.Stages[i]
		row := map[string]string{"stage": stage.Label()}
		if state.ApproverName != nil {
			row["approver"] = *state.ApproverName
		}
		if state.ActedAt != nil {
			row["at"] = state.ActedAt.Format("2006-01-02 15:04")
		}
		approvals.Rows = append(approvals.Rows, row)
	}

	return export.Document{
		Title:    "SmartCampus Gate Pass",
		Subtitle: "Outpass " + req.ID,
		Fields: []export.Field{
			{Label: "Student", Value: student.FullName},
			{Label: "Register No", Value: student.RegNo},
			{Label: "Department", Value: student.Department},
			{Label: "Hostel", Value: student.Hostel},
			{Label: "Destination", Value: req.Destination},
			{Label: "Reason", Value: req.Reason},
			{Label: "Out", Value: req.OutDate + " " + req.OutTime},
			{Label: "Return", Value: req.ReturnDate + " " + req.ReturnTime},
		},
		Table:  approvals,
		Footer: "Issued " + req.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

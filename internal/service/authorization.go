package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
)

type facultyRoleReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.FacultyRole, error)
}

// AuthorizationPolicy decides whether an authenticated principal may act on a stage
// of a given student's request. Every failure path denies.
type AuthorizationPolicy struct {
	roles  facultyRoleReader
	logger *zap.Logger
}

// NewAuthorizationPolicy constructs the policy.
func NewAuthorizationPolicy(roles facultyRoleReader, logger *zap.Logger) *AuthorizationPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorizationPolicy{roles: roles, logger: logger}
}

// Authorize returns nil when principal holds the stage's faculty role within the
// student's department (advisor, HOD) or hostel (coordinator, warden).
func (p *AuthorizationPolicy) Authorize(ctx context.Context, principal *models.JWTClaims, stage models.OutpassStage, student *models.StudentProfile) error {
	if principal == nil || principal.UserID == "" || !principal.Role.IsStaff() {
		return appErrors.Clone(appErrors.ErrNotAuthorized, "only faculty may act on outpass stages")
	}
	required, ok := stage.RequiredRole()
	if !ok || student == nil {
		return appErrors.Clone(appErrors.ErrNotAuthorized, "")
	}
	roles, err := p.RolesFor(ctx, principal)
	if err != nil {
		return appErrors.Clone(appErrors.ErrNotAuthorized, "unable to verify approver role")
	}
	if Covers(roles, stage, student) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrNotAuthorized, fmt.Sprintf("%s role for %s required", required, scopeOf(stage, student)))
}

// RolesFor loads the faculty roles held by principal.
func (p *AuthorizationPolicy) RolesFor(ctx context.Context, principal *models.JWTClaims) ([]models.FacultyRole, error) {
	if principal == nil || principal.UserID == "" {
		return nil, nil
	}
	if p.roles == nil {
		return nil, fmt.Errorf("faculty role store not configured")
	}
	roles, err := p.roles.ListByUser(ctx, principal.UserID)
	if err != nil {
		p.logger.Warn("faculty role lookup failed", zap.String("user_id", principal.UserID), zap.Error(err))
		return nil, err
	}
	return roles, nil
}

// Covers reports whether any of roles grants the stage for student.
func Covers(roles []models.FacultyRole, stage models.OutpassStage, student *models.StudentProfile) bool {
	required, ok := stage.RequiredRole()
	if !ok || student == nil {
		return false
	}
	for _, role := range roles {
		if role.RoleType != required {
			continue
		}
		switch required {
		case models.FacultyRoleAdvisor, models.FacultyRoleHOD:
			if sameScope(role.Department, student.Department) {
				return true
			}
		case models.FacultyRoleHostelCoordinator, models.FacultyRoleWarden:
			if sameScope(role.Hostel, student.Hostel) {
				return true
			}
		}
	}
	return false
}

func sameScope(granted, actual string) bool {
	granted = strings.TrimSpace(granted)
	return granted != "" && strings.EqualFold(granted, strings.TrimSpace(actual))
}

func scopeOf(stage models.OutpassStage, student *models.StudentProfile) string {
	switch stage {
	case models.StageHostelCoordinator, models.StageWarden:
		return "hostel " + student.Hostel
	default:
		return "department " + student.Department
	}
}

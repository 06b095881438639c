package service

import "github.com/Dharnipatel21/SmartCampus-AI/internal/models"

// EligibilityGate decides who may apply for an outpass. Only active hostel residents may;
// day scholars have nothing to leave. It is consulted at submission time only.
type EligibilityGate struct{}

// NewEligibilityGate constructs the gate.
func NewEligibilityGate() EligibilityGate {
	return EligibilityGate{}
}

// CanRequest reports whether the profile may submit a new request.
func (EligibilityGate) CanRequest(profile *models.StudentProfile) bool {
	return profile != nil && profile.Active && profile.IsResident
}

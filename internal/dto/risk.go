package dto

// RiskCheckRequest asks for an advisory score on a prospective outpass.
type RiskCheckRequest struct {
	Reason      string `json:"reason" validate:"max=500"`
	Destination string `json:"destination" validate:"max=200"`
	OutTime     string `json:"out_time"`
	StudentID   string `json:"student_id"`
}

// RiskAssessment is the advisory outcome. It never changes any request.
type RiskAssessment struct {
	Score          int      `json:"risk_score"`
	Decision       string   `json:"decision"`
	RiskLevel      string   `json:"risk_level"`
	Color          string   `json:"decision_color"`
	Recommendation string   `json:"recommendation"`
	Flags          []string `json:"risk_factors"`
	Positives      []string `json:"positive_factors"`
}

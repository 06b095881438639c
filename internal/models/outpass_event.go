package models

import "time"

// OutpassAction is a decision recorded against a request.
type OutpassAction string

const (
	OutpassActionSubmit  OutpassAction = "SUBMIT"
	OutpassActionApprove OutpassAction = "APPROVE"
	OutpassActionReject  OutpassAction = "REJECT"
)

// OutpassEvent is one append-only history entry for a request.
type OutpassEvent struct {
	ID           string        `db:"id" json:"id"`
	RequestID    string        `db:"request_id" json:"request_id"`
	Stage        OutpassStage  `db:"stage" json:"stage"`
	Action       OutpassAction `db:"action" json:"action"`
	FromStatus   StageStatus   `db:"from_status" json:"from_status"`
	ToStatus     StageStatus   `db:"to_status" json:"to_status"`
	OverallAfter OutpassStatus `db:"overall_after" json:"overall_after"`
	ActorID      string        `db:"actor_id" json:"actor_id"`
	ActorName    string        `db:"actor_name" json:"actor_name"`
	OccurredAt   time.Time     `db:"occurred_at" json:"occurred_at"`
}

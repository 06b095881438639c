package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/jobs"
)

const outpassNotificationJob = "outpass.transition"

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// OutpassNotification describes a committed outpass event for background processing.
type OutpassNotification struct {
	Event     models.OutpassEvent `json:"event"`
	StudentID string              `json:"student_id"`
}

// OutpassNotifier writes audit entries and requester notifications off the request path.
// Delivery is best effort: a full or stopped queue is logged, never surfaced to the caller.
type OutpassNotifier struct {
	queue  *jobs.Queue
	audit  auditLogger
	logger *zap.Logger
}

// NewOutpassNotifier builds the notifier and its worker queue.
func NewOutpassNotifier(audit auditLogger, logger *zap.Logger, cfg jobs.QueueConfig) *OutpassNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	n := &OutpassNotifier{audit: audit, logger: logger}
	n.queue = jobs.NewQueue("outpass-notifications", n.handle, cfg)
	return n
}

// Start launches the workers.
func (n *OutpassNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains pending notifications and stops the workers.
func (n *OutpassNotifier) Stop() {
	n.queue.Stop()
}

// Notify enqueues a notification.
func (n *OutpassNotifier) Notify(_ context.Context, note OutpassNotification) {
	err := n.queue.Enqueue(jobs.Job{ID: note.Event.ID, Type: outpassNotificationJob, Payload: note})
	if err != nil {
		n.logger.Warn("outpass notification dropped", zap.String("request_id", note.Event.RequestID), zap.String("event_id", note.Event.ID), zap.Error(err))
	}
}

func (n *OutpassNotifier) handle(ctx context.Context, job jobs.Job) error {
	note, ok := job.Payload.(OutpassNotification)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	if n.audit != nil {
		payload, err := json.Marshal(note.Event)
		if err != nil {
			return fmt.Errorf("marshal outpass event: %w", err)
		}
		actorID := note.Event.ActorID
		requestID := note.Event.RequestID
		entry := &models.AuditLog{
			ID:         note.Event.ID,
			UserID:     &actorID,
			Action:     auditActionFor(note.Event.Action),
			Resource:   models.AuditResourceOutpass,
			ResourceID: &requestID,
			NewValues:  payload,
			CreatedAt:  note.Event.OccurredAt,
		}
		if err := n.audit.CreateAuditLog(ctx, entry); err != nil {
			return err
		}
	}
	n.logger.Info("outpass status changed",
		zap.String("request_id", note.Event.RequestID),
		zap.String("student_id", note.StudentID),
		zap.String("stage", string(note.Event.Stage)),
		zap.String("action", string(note.Event.Action)),
		zap.String("overall", string(note.Event.OverallAfter)),
	)
	return nil
}

func auditActionFor(action models.OutpassAction) string {
	switch action {
	case models.OutpassActionApprove:
		return models.AuditActionOutpassApprove
	case models.OutpassActionReject:
		return models.AuditActionOutpassReject
	default:
		return models.AuditActionOutpassSubmit
	}
}

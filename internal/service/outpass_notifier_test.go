package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/jobs"
)

type auditRecorder struct {
	mu       sync.Mutex
	entries  []models.AuditLog
	failures int
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failures > 0 {
		a.failures--
		return errors.New("temporary failure")
	}
	a.entries = append(a.entries, *log)
	return nil
}

func (a *auditRecorder) snapshot() []models.AuditLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.AuditLog(nil), a.entries...)
}

func TestOutpassNotifierWritesAuditLog(t *testing.T) {
	audit := &auditRecorder{failures: 1}
	notifier := NewOutpassNotifier(audit, zap.NewNop(), jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	notifier.Start(context.Background())

	event := models.OutpassEvent{
		ID:           "evt-1",
		RequestID:    "req-1",
		Stage:        models.StageHOD,
		Action:       models.OutpassActionReject,
		FromStatus:   models.StageStatusPending,
		ToStatus:     models.StageStatusRejected,
		OverallAfter: models.OutpassStatusRejected,
		ActorID:      "u-hod",
		ActorName:    "Dr. Head",
		OccurredAt:   time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}
	notifier.Notify(context.Background(), OutpassNotification{Event: event, StudentID: "stu-1"})
	require.Eventually(t, func() bool { return len(audit.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	notifier.Stop()

	entries := audit.snapshot()
	entry := entries[0]
	assert.Equal(t, "evt-1", entry.ID)
	assert.Equal(t, models.AuditActionOutpassReject, entry.Action)
	assert.Equal(t, models.AuditResourceOutpass, entry.Resource)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "req-1", *entry.ResourceID)

	var stored models.OutpassEvent
	require.NoError(t, json.Unmarshal(entry.NewValues, &stored))
	assert.Equal(t, models.StageHOD, stored.Stage)
}

func TestOutpassNotifierAfterStopIsDropped(t *testing.T) {
	audit := &auditRecorder{}
	notifier := NewOutpassNotifier(audit, nil, jobs.QueueConfig{Workers: 1})
	notifier.Start(context.Background())
	notifier.Stop()

	notifier.Notify(context.Background(), OutpassNotification{Event: models.OutpassEvent{ID: "evt-2", RequestID: "req-2"}})
	assert.Empty(t, audit.snapshot())
}

func TestAuditActionFor(t *testing.T) {
	assert.Equal(t, models.AuditActionOutpassApprove, auditActionFor(models.OutpassActionApprove))
	assert.Equal(t, models.AuditActionOutpassSubmit, auditActionFor(models.OutpassActionSubmit))
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

// OutpassEventRepository reads the append-only outpass history. Writes go through
// OutpassRepository so they share the request transaction.
type OutpassEventRepository struct {
	db *sqlx.DB
}

// NewOutpassEventRepository constructs the repository.
func NewOutpassEventRepository(db *sqlx.DB) *OutpassEventRepository {
	return &OutpassEventRepository{db: db}
}

// ListByRequest returns the events of a request in the order they happened.
func (r *OutpassEventRepository) ListByRequest(ctx context.Context, requestID string) ([]models.OutpassEvent, error) {
	const query = `SELECT id, request_id, stage, action, from_status, to_status, overall_after, actor_id, actor_name, occurred_at
	FROM outpass_events WHERE request_id = $1 ORDER BY occurred_at ASC, id ASC`
	var events []models.OutpassEvent
	if err := r.db.SelectContext(ctx, &events, query, requestID); err != nil {
		return nil, fmt.Errorf("list outpass events: %w", err)
	}
	return events, nil
}

func insertOutpassEvent(ctx context.Context, ext sqlx.ExtContext, event *models.OutpassEvent) error {
	const query = `INSERT INTO outpass_events (id, request_id, stage, action, from_status, to_status, overall_after, actor_id, actor_name, occurred_at)
	VALUES (:id, :request_id, :stage, :action, :from_status, :to_status, :overall_after, :actor_id, :actor_name, :occurred_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, event); err != nil {
		return fmt.Errorf("append outpass event: %w", err)
	}
	return nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// FeedbackHistoryRepository stores triage audit entries.
type FeedbackHistoryRepository interface {
	Create(ctx context.Context, history *domain.FeedbackHistory) error
	ListByFeedback(ctx context.Context, feedbackID string) ([]domain.FeedbackHistory, error)
}

type feedbackHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackHistoryRepository builds repository.
func NewFeedbackHistoryRepository(pool *pgxpool.Pool) FeedbackHistoryRepository {
	return &feedbackHistoryRepository{pool: pool}
}

func (r *feedbackHistoryRepository) Create(ctx context.Context, history *domain.FeedbackHistory) error {
	const query = `
        INSERT INTO feedback_history (feedback_id, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.FeedbackID,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *feedbackHistoryRepository) ListByFeedback(ctx context.Context, feedbackID string) ([]domain.FeedbackHistory, error) {
	const query = `
        SELECT id, feedback_id, changed_by_id, change_type, old_value, new_value, created_at
        FROM feedback_history WHERE feedback_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, feedbackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FeedbackHistory
	for rows.Next() {
		var history domain.FeedbackHistory
		if err := rows.Scan(
			&history.ID,
			&history.FeedbackID,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

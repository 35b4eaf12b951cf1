package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// FeedbackRepository encapsulates feedback persistence. View methods join the
// referenced user and product so display names come back with the record.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	Update(ctx context.Context, feedback *domain.Feedback) error
	GetByID(ctx context.Context, id string) (*domain.Feedback, error)
	GetViewByID(ctx context.Context, id string) (*domain.FeedbackView, error)
	ListViews(ctx context.Context) ([]domain.FeedbackView, error)
	ListViewsByUser(ctx context.Context, userID string) ([]domain.FeedbackView, error)
	Delete(ctx context.Context, id string) error
	DeleteByProduct(ctx context.Context, productID string) (int64, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository instantiates repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	const query = `
        INSERT INTO feedback (user_id, product_id, comment, rating, status, admin_comment)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		feedback.UserID,
		feedback.ProductID,
		feedback.Comment,
		feedback.Rating,
		feedback.Status,
		feedback.AdminComment,
	).Scan(&feedback.ID, &feedback.CreatedAt, &feedback.UpdatedAt)
}

func (r *feedbackRepository) Update(ctx context.Context, feedback *domain.Feedback) error {
	const query = `
        UPDATE feedback SET comment=$1, rating=$2, status=$3, admin_comment=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		feedback.Comment,
		feedback.Rating,
		feedback.Status,
		feedback.AdminComment,
		feedback.ID,
	).Scan(&feedback.UpdatedAt)
}

func (r *feedbackRepository) GetByID(ctx context.Context, id string) (*domain.Feedback, error) {
	const query = `
        SELECT id, user_id, product_id, comment, rating, status, admin_comment, created_at, updated_at
        FROM feedback WHERE id=$1`
	var feedback domain.Feedback
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&feedback.ID,
		&feedback.UserID,
		&feedback.ProductID,
		&feedback.Comment,
		&feedback.Rating,
		&feedback.Status,
		&feedback.AdminComment,
		&feedback.CreatedAt,
		&feedback.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &feedback, nil
}

const feedbackViewSelect = `
        SELECT f.id, f.user_id, f.product_id, f.comment, f.rating, f.status, f.admin_comment,
               f.created_at, f.updated_at, u.name, p.name
        FROM feedback f
        JOIN users u ON u.id = f.user_id
        JOIN products p ON p.id = f.product_id`

func (r *feedbackRepository) GetViewByID(ctx context.Context, id string) (*domain.FeedbackView, error) {
	rows, err := r.pool.Query(ctx, feedbackViewSelect+` WHERE f.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	views, err := scanFeedbackViews(rows)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &views[0], nil
}

func (r *feedbackRepository) ListViews(ctx context.Context) ([]domain.FeedbackView, error) {
	rows, err := r.pool.Query(ctx, feedbackViewSelect+` ORDER BY f.created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeedbackViews(rows)
}

func (r *feedbackRepository) ListViewsByUser(ctx context.Context, userID string) ([]domain.FeedbackView, error) {
	rows, err := r.pool.Query(ctx, feedbackViewSelect+` WHERE f.user_id=$1 ORDER BY f.created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeedbackViews(rows)
}

func (r *feedbackRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM feedback WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *feedbackRepository) DeleteByProduct(ctx context.Context, productID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM feedback WHERE product_id=$1`, productID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanFeedbackViews(rows pgx.Rows) ([]domain.FeedbackView, error) {
	var result []domain.FeedbackView
	for rows.Next() {
		var view domain.FeedbackView
		if err := rows.Scan(
			&view.ID,
			&view.UserID,
			&view.ProductID,
			&view.Comment,
			&view.Rating,
			&view.Status,
			&view.AdminComment,
			&view.CreatedAt,
			&view.UpdatedAt,
			&view.UserName,
			&view.ProductName,
		); err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, rows.Err()
}

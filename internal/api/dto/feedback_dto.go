package dto

import (
	"time"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// CreateFeedbackRequest payload.
type CreateFeedbackRequest struct {
	UserID    string                 `json:"user_id"`
	ProductID string                 `json:"product_id"`
	Comment   string                 `json:"comment"`
	Rating    int                    `json:"rating"`
	Status    *domain.FeedbackStatus `json:"status"`
}

// UpdateFeedbackRequest is the merge-style PUT payload: nil fields are left
// untouched.
type UpdateFeedbackRequest struct {
	Comment      *string                `json:"comment"`
	Rating       *int                   `json:"rating"`
	Status       *domain.FeedbackStatus `json:"status"`
	AdminComment *string                `json:"admin_comment"`
}

// PatchFeedbackRequest is the triage payload. An absent admin_comment clears
// the stored reply.
type PatchFeedbackRequest struct {
	Status       *domain.FeedbackStatus `json:"status"`
	AdminComment *string                `json:"admin_comment"`
}

// FeedbackResponse is the flattened view: display names are inlined so a
// single feedback item never drags the full product (and its own feedback
// list) into the payload.
type FeedbackResponse struct {
	ID           string                `json:"id"`
	UserID       string                `json:"user_id"`
	UserName     string                `json:"user_name"`
	ProductID    string                `json:"product_id"`
	ProductName  string                `json:"product_name"`
	Comment      string                `json:"comment"`
	Rating       int                   `json:"rating"`
	Status       domain.FeedbackStatus `json:"status"`
	AdminComment *string               `json:"admin_comment"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// FeedbackHistoryResponse is one triage audit entry.
type FeedbackHistoryResponse struct {
	ID          string                    `json:"id"`
	ChangedByID *string                   `json:"changed_by_id"`
	ChangeType  domain.FeedbackChangeType `json:"change_type"`
	OldValue    map[string]any            `json:"old_value"`
	NewValue    map[string]any            `json:"new_value"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// NewFeedbackResponse adapts a flattened view.
func NewFeedbackResponse(view *domain.FeedbackView) FeedbackResponse {
	return FeedbackResponse{
		ID:           view.ID,
		UserID:       view.UserID,
		UserName:     view.UserName,
		ProductID:    view.ProductID,
		ProductName:  view.ProductName,
		Comment:      view.Comment,
		Rating:       view.Rating,
		Status:       view.Status,
		AdminComment: view.AdminComment,
		CreatedAt:    view.CreatedAt,
		UpdatedAt:    view.UpdatedAt,
	}
}

// NewFeedbackHistoryResponse adapts an audit entry.
func NewFeedbackHistoryResponse(entry *domain.FeedbackHistory) FeedbackHistoryResponse {
	return FeedbackHistoryResponse{
		ID:          entry.ID,
		ChangedByID: entry.ChangedByID,
		ChangeType:  entry.ChangeType,
		OldValue:    entry.OldValue,
		NewValue:    entry.NewValue,
		CreatedAt:   entry.CreatedAt,
	}
}

package events

import (
	"time"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventFeedbackCreated       EventType = "feedback_created"
	EventFeedbackStatusChanged EventType = "feedback_status_changed"
	EventFeedbackReplyUpdated  EventType = "feedback_reply_updated"
	EventProductDeleted        EventType = "product_deleted"
)

// Actor encapsulates actor metadata for an event. UserID is nil for
// unattributed actions (open endpoints carry no principal).
type Actor struct {
	UserID *string         `json:"user_id,omitempty"`
	Role   domain.UserRole `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	FeedbackID string      `json:"feedback_id,omitempty"`
	ProductID  string      `json:"product_id,omitempty"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// FeedbackCreatedPayload payload.
type FeedbackCreatedPayload struct {
	ProductID      string                `json:"product_id"`
	Rating         int                   `json:"rating"`
	Status         domain.FeedbackStatus `json:"status"`
	CommentPreview string                `json:"comment_preview"`
}

// FeedbackStatusChangedPayload payload.
type FeedbackStatusChangedPayload struct {
	OldStatus domain.FeedbackStatus `json:"old_status"`
	NewStatus domain.FeedbackStatus `json:"new_status"`
}

// FeedbackReplyUpdatedPayload payload.
type FeedbackReplyUpdatedPayload struct {
	Cleared      bool   `json:"cleared"`
	ReplyPreview string `json:"reply_preview,omitempty"`
}

// ProductDeletedPayload payload.
type ProductDeletedPayload struct {
	Name            string `json:"name"`
	FeedbackRemoved int64  `json:"feedback_removed"`
}

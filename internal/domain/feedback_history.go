package domain

import "time"

// FeedbackChangeType identifies what a history entry recorded.
type FeedbackChangeType string

const (
	ChangeTypeStatus FeedbackChangeType = "STATUS"
	ChangeTypeReply  FeedbackChangeType = "REPLY"
)

// FeedbackHistory is an audit entry for a triage action on a feedback record.
type FeedbackHistory struct {
	ID          string
	FeedbackID  string
	ChangedByID *string
	ChangeType  FeedbackChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}

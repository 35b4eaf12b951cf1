package domain

import "time"

// FeedbackStatus enumerates triage states for customer feedback.
type FeedbackStatus string

const (
	FeedbackStatusPending  FeedbackStatus = "Pending"
	FeedbackStatusInReview FeedbackStatus = "InReview"
	FeedbackStatusResolved FeedbackStatus = "Resolved"
	FeedbackStatusRejected FeedbackStatus = "Rejected"
)

// Rating bounds accepted for feedback.
const (
	RatingMin = 1
	RatingMax = 5
)

// MaxCommentLength caps the customer comment and the admin reply.
const MaxCommentLength = 2000

// Feedback is a customer's rating and comment for one product, plus the
// triage state and optional admin reply. User and product references are set
// at creation and never change.
type Feedback struct {
	ID           string
	UserID       string
	ProductID    string
	Comment      string
	Rating       int
	Status       FeedbackStatus
	AdminComment *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FeedbackView is the flattened read model served to clients: display names
// are inlined instead of nesting the referenced entities, so no serialization
// cycle between feedback and product can arise.
type FeedbackView struct {
	Feedback
	UserName    string
	ProductName string
}

// IsValidStatus reports whether a status value belongs to the closed set.
func IsValidStatus(status FeedbackStatus) bool {
	switch status {
	case FeedbackStatusPending, FeedbackStatusInReview, FeedbackStatusResolved, FeedbackStatusRejected:
		return true
	}
	return false
}

var allowedStatusTransitions = map[FeedbackStatus][]FeedbackStatus{
	FeedbackStatusPending:  {FeedbackStatusInReview, FeedbackStatusResolved, FeedbackStatusRejected},
	FeedbackStatusInReview: {FeedbackStatusPending, FeedbackStatusResolved, FeedbackStatusRejected},
	FeedbackStatusResolved: {FeedbackStatusInReview},
	FeedbackStatusRejected: {FeedbackStatusInReview},
}

// IsValidStatusTransition reports whether moving from current to next is
// allowed. Re-asserting the current status is always a permitted no-op.
func IsValidStatusTransition(current, next FeedbackStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range allowedStatusTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

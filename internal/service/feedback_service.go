package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/events"
	"github.com/spec-kit/feedback-service/internal/repository"
	apperrors "github.com/spec-kit/feedback-service/pkg/util"
)

// FeedbackService coordinates the feedback lifecycle: creation against valid
// references, merge updates, triage (status and admin reply), and deletion.
type FeedbackService struct {
	feedback   repository.FeedbackRepository
	users      repository.UserRepository
	products   repository.ProductRepository
	history    repository.FeedbackHistoryRepository
	dispatcher events.Dispatcher
}

// FeedbackDependencies bundles repositories for the feedback service.
type FeedbackDependencies struct {
	FeedbackRepo repository.FeedbackRepository
	UserRepo     repository.UserRepository
	ProductRepo  repository.ProductRepository
	HistoryRepo  repository.FeedbackHistoryRepository
	Dispatcher   events.Dispatcher
}

// FeedbackCreateInput describes feedback creation payload.
type FeedbackCreateInput struct {
	UserID    string
	ProductID string
	Comment   string
	Rating    int
	Status    *domain.FeedbackStatus
}

// FeedbackUpdateInput describes the merge-style update: only non-nil fields
// are written.
type FeedbackUpdateInput struct {
	Comment      *string
	Rating       *int
	Status       *domain.FeedbackStatus
	AdminComment *string
}

// FeedbackPatchInput describes the triage update. Status is written only when
// supplied; AdminComment is written unconditionally, nil included, so an
// absent value clears the reply. This is the one way to clear it.
type FeedbackPatchInput struct {
	Status       *domain.FeedbackStatus
	AdminComment *string
}

// NewFeedbackService constructs the service.
func NewFeedbackService(deps FeedbackDependencies) *FeedbackService {
	return &FeedbackService{
		feedback:   deps.FeedbackRepo,
		users:      deps.UserRepo,
		products:   deps.ProductRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// ListAll returns every feedback record as a flattened view.
func (s *FeedbackService) ListAll(ctx context.Context) ([]domain.FeedbackView, error) {
	return s.feedback.ListViews(ctx)
}

// ListByUser returns the flattened views referencing one user.
func (s *FeedbackService) ListByUser(ctx context.Context, userID string) ([]domain.FeedbackView, error) {
	return s.feedback.ListViewsByUser(ctx, userID)
}

// Create validates both references and persists the record. Status defaults
// to Pending; timestamps are stamped by the ledger, never the caller.
func (s *FeedbackService) Create(ctx context.Context, input FeedbackCreateInput) (*domain.FeedbackView, error) {
	if input.UserID == "" {
		return nil, apperrors.NewValidationError("user must be provided", nil)
	}
	if input.ProductID == "" {
		return nil, apperrors.NewValidationError("product must be provided", nil)
	}
	if err := validateComment(input.Comment); err != nil {
		return nil, err
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("invalid user id", map[string]any{"user_id": input.UserID})
		}
		return nil, err
	}
	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("invalid product id", map[string]any{"product_id": input.ProductID})
		}
		return nil, err
	}

	status := domain.FeedbackStatusPending
	if input.Status != nil {
		if !domain.IsValidStatus(*input.Status) {
			return nil, unknownStatusError(*input.Status)
		}
		status = *input.Status
	}

	feedback := &domain.Feedback{
		UserID:    user.ID,
		ProductID: product.ID,
		Comment:   strings.TrimSpace(input.Comment),
		Rating:    input.Rating,
		Status:    status,
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventFeedbackCreated,
		FeedbackID: feedback.ID,
		Actor:      events.Actor{UserID: &feedback.UserID, Role: user.Role},
		Payload: events.FeedbackCreatedPayload{
			ProductID:      feedback.ProductID,
			Rating:         feedback.Rating,
			Status:         feedback.Status,
			CommentPreview: stringPreview(feedback.Comment, 120),
		},
	})

	return &domain.FeedbackView{
		Feedback:    *feedback,
		UserName:    user.Name,
		ProductName: product.Name,
	}, nil
}

// Update applies the merge-style update: each supplied field overwrites the
// stored one, everything else is untouched. References never change.
func (s *FeedbackService) Update(ctx context.Context, id string, input FeedbackUpdateInput) (*domain.FeedbackView, error) {
	feedback, err := s.getFeedback(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Comment != nil {
		if err := validateComment(*input.Comment); err != nil {
			return nil, err
		}
		feedback.Comment = strings.TrimSpace(*input.Comment)
	}
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		feedback.Rating = *input.Rating
	}
	oldStatus := feedback.Status
	if input.Status != nil {
		if err := s.applyStatus(feedback, *input.Status); err != nil {
			return nil, err
		}
	}
	if input.AdminComment != nil {
		if err := validateReply(*input.AdminComment); err != nil {
			return nil, err
		}
		feedback.AdminComment = input.AdminComment
	}

	if err := s.feedback.Update(ctx, feedback); err != nil {
		return nil, err
	}
	if feedback.Status != oldStatus {
		s.recordStatusChange(ctx, nil, feedback.ID, oldStatus, feedback.Status)
		s.publishStatusChanged(ctx, nil, feedback.ID, oldStatus, feedback.Status)
	}
	return s.feedback.GetViewByID(ctx, id)
}

// Patch applies the triage update. The admin comment is overwritten with
// whatever was supplied, including nothing at all.
func (s *FeedbackService) Patch(ctx context.Context, actorID *string, id string, input FeedbackPatchInput) (*domain.FeedbackView, error) {
	feedback, err := s.getFeedback(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := feedback.Status
	if input.Status != nil {
		if err := s.applyStatus(feedback, *input.Status); err != nil {
			return nil, err
		}
	}

	oldReply := feedback.AdminComment
	if input.AdminComment != nil {
		if err := validateReply(*input.AdminComment); err != nil {
			return nil, err
		}
	}
	feedback.AdminComment = input.AdminComment

	if err := s.feedback.Update(ctx, feedback); err != nil {
		return nil, err
	}

	if feedback.Status != oldStatus {
		s.recordStatusChange(ctx, actorID, feedback.ID, oldStatus, feedback.Status)
		s.publishStatusChanged(ctx, actorID, feedback.ID, oldStatus, feedback.Status)
	}
	if !equalReply(oldReply, feedback.AdminComment) {
		s.recordReplyChange(ctx, actorID, feedback.ID, oldReply, feedback.AdminComment)
		payload := events.FeedbackReplyUpdatedPayload{Cleared: feedback.AdminComment == nil}
		if feedback.AdminComment != nil {
			payload.ReplyPreview = stringPreview(*feedback.AdminComment, 120)
		}
		s.publishEvent(ctx, events.Event{
			Type:       events.EventFeedbackReplyUpdated,
			FeedbackID: feedback.ID,
			Actor:      adminActor(actorID),
			Payload:    payload,
		})
	}

	return s.feedback.GetViewByID(ctx, id)
}

// Delete removes one feedback record.
func (s *FeedbackService) Delete(ctx context.Context, id string) error {
	if err := s.feedback.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("feedback", map[string]any{"id": id})
		}
		return err
	}
	return nil
}

// History lists the triage audit entries for one feedback record.
func (s *FeedbackService) History(ctx context.Context, id string) ([]domain.FeedbackHistory, error) {
	if _, err := s.getFeedback(ctx, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.FeedbackHistory{}, nil
	}
	return s.history.ListByFeedback(ctx, id)
}

func (s *FeedbackService) getFeedback(ctx context.Context, id string) (*domain.Feedback, error) {
	feedback, err := s.feedback.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("feedback", map[string]any{"id": id})
		}
		return nil, err
	}
	return feedback, nil
}

func (s *FeedbackService) applyStatus(feedback *domain.Feedback, next domain.FeedbackStatus) error {
	if !domain.IsValidStatus(next) {
		return unknownStatusError(next)
	}
	if !domain.IsValidStatusTransition(feedback.Status, next) {
		return apperrors.NewValidationError(
			fmt.Sprintf("cannot move feedback from %s to %s", feedback.Status, next),
			map[string]any{"from": feedback.Status, "to": next},
		)
	}
	feedback.Status = next
	return nil
}

func (s *FeedbackService) recordStatusChange(ctx context.Context, actorID *string, feedbackID string, oldStatus, newStatus domain.FeedbackStatus) {
	if s.history == nil {
		return
	}
	entry := &domain.FeedbackHistory{
		FeedbackID:  feedbackID,
		ChangedByID: actorID,
		ChangeType:  domain.ChangeTypeStatus,
		OldValue:    map[string]any{"status": oldStatus},
		NewValue:    map[string]any{"status": newStatus},
	}
	_ = s.history.Create(ctx, entry)
}

func (s *FeedbackService) recordReplyChange(ctx context.Context, actorID *string, feedbackID string, oldReply, newReply *string) {
	if s.history == nil {
		return
	}
	entry := &domain.FeedbackHistory{
		FeedbackID:  feedbackID,
		ChangedByID: actorID,
		ChangeType:  domain.ChangeTypeReply,
		OldValue:    map[string]any{"admin_comment": replyValue(oldReply)},
		NewValue:    map[string]any{"admin_comment": replyValue(newReply)},
	}
	_ = s.history.Create(ctx, entry)
}

func (s *FeedbackService) publishStatusChanged(ctx context.Context, actorID *string, feedbackID string, oldStatus, newStatus domain.FeedbackStatus) {
	s.publishEvent(ctx, events.Event{
		Type:       events.EventFeedbackStatusChanged,
		FeedbackID: feedbackID,
		Actor:      adminActor(actorID),
		Payload: events.FeedbackStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
}

func (s *FeedbackService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validateComment(comment string) error {
	trimmed := strings.TrimSpace(comment)
	if trimmed == "" {
		return apperrors.NewValidationError("comment required", nil)
	}
	if len(trimmed) > domain.MaxCommentLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("comment exceeds %d characters", domain.MaxCommentLength), nil)
	}
	return nil
}

// validateReply caps the admin reply but allows it to be empty; an empty or
// absent reply is how the triage endpoint clears it.
func validateReply(reply string) error {
	if len(reply) > domain.MaxCommentLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("admin comment exceeds %d characters", domain.MaxCommentLength), nil)
	}
	return nil
}

func validateRating(rating int) error {
	if rating < domain.RatingMin || rating > domain.RatingMax {
		return apperrors.NewValidationError(
			fmt.Sprintf("rating must be between %d and %d", domain.RatingMin, domain.RatingMax), nil)
	}
	return nil
}

func unknownStatusError(status domain.FeedbackStatus) error {
	return apperrors.NewValidationError(
		fmt.Sprintf("unknown status %q", status),
		map[string]any{"status": status},
	)
}

func adminActor(actorID *string) events.Actor {
	return events.Actor{UserID: actorID, Role: domain.RoleAdmin}
}

func equalReply(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func replyValue(reply *string) any {
	if reply == nil {
		return nil
	}
	return *reply
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

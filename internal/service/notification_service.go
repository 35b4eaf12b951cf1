package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/feedback-service/internal/config"
	"github.com/spec-kit/feedback-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventFeedbackCreated, n.handleFeedbackCreated)
	n.dispatcher.Subscribe(events.EventFeedbackStatusChanged, n.handleFeedbackStatusChanged)
	n.dispatcher.Subscribe(events.EventFeedbackReplyUpdated, n.handleFeedbackReplyUpdated)
	n.dispatcher.Subscribe(events.EventProductDeleted, n.handleProductDeleted)
}

func (n *NotificationService) handleFeedbackCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("FeedbackCreated", zap.String("feedback_id", event.FeedbackID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleFeedbackStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("FeedbackStatusChanged", zap.String("feedback_id", event.FeedbackID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleFeedbackReplyUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("FeedbackReplyUpdated", zap.String("feedback_id", event.FeedbackID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleProductDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("ProductDeleted", zap.String("product_id", event.ProductID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("feedback_id", event.FeedbackID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("feedback_id", event.FeedbackID),
		zap.String("event_type", string(event.Type)))
}

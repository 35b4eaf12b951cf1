package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/api/dto"
	"github.com/spec-kit/feedback-service/internal/auth"
	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/service"
	apperrors "github.com/spec-kit/feedback-service/pkg/util"
)

// FeedbackHandler exposes the feedback ledger endpoints.
type FeedbackHandler struct {
	service *service.FeedbackService
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: feedbackService}
}

// List GET /api/feedback.
func (h *FeedbackHandler) List(c *fiber.Ctx) error {
	views, err := h.service.ListAll(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": feedbackResponses(views)})
}

// ListByUser GET /api/feedback/user/:userId.
func (h *FeedbackHandler) ListByUser(c *fiber.Ctx) error {
	views, err := h.service.ListByUser(c.Context(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": feedbackResponses(views)})
}

// Create POST /api/feedback.
func (h *FeedbackHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	view, err := h.service.Create(c.Context(), service.FeedbackCreateInput{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Comment:   req.Comment,
		Rating:    req.Rating,
		Status:    req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewFeedbackResponse(view)})
}

// Update PUT /api/feedback/:id. Despite the method, this is a merge update:
// only supplied fields are written.
func (h *FeedbackHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	view, err := h.service.Update(c.Context(), c.Params("id"), service.FeedbackUpdateInput{
		Comment:      req.Comment,
		Rating:       req.Rating,
		Status:       req.Status,
		AdminComment: req.AdminComment,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackResponse(view)})
}

// Patch PATCH /api/feedback/:id. Admin triage: status transition and reply.
func (h *FeedbackHandler) Patch(c *fiber.Ctx) error {
	var req dto.PatchFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var actorID *string
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		actorID = &principal.User.ID
	}

	view, err := h.service.Patch(c.Context(), actorID, c.Params("id"), service.FeedbackPatchInput{
		Status:       req.Status,
		AdminComment: req.AdminComment,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFeedbackResponse(view)})
}

// Delete DELETE /api/feedback/:id.
func (h *FeedbackHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "feedback deleted"}})
}

// History GET /api/feedback/:id/history.
func (h *FeedbackHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.FeedbackHistoryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewFeedbackHistoryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func feedbackResponses(views []domain.FeedbackView) []dto.FeedbackResponse {
	items := make([]dto.FeedbackResponse, 0, len(views))
	for i := range views {
		items = append(items, dto.NewFeedbackResponse(&views[i]))
	}
	return items
}

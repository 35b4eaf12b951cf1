package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/events"
	"github.com/spec-kit/feedback-service/internal/persistence"
	"github.com/spec-kit/feedback-service/internal/repository"
	"github.com/spec-kit/feedback-service/internal/uploads"
	apperrors "github.com/spec-kit/feedback-service/pkg/util"
)

const (
	catalogListCacheKey  = "catalog:products"
	catalogItemCachePref = "catalog:product:"
)

// CatalogService coordinates product management and image association.
type CatalogService struct {
	products   repository.ProductRepository
	feedback   repository.FeedbackRepository
	images     *uploads.Store
	cache      *persistence.Redis
	cacheTTL   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CatalogDependencies bundles collaborators for the catalog service.
type CatalogDependencies struct {
	ProductRepo  repository.ProductRepository
	FeedbackRepo repository.FeedbackRepository
	Images       *uploads.Store
	Cache        *persistence.Redis
	CacheTTL     time.Duration
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// ImageUpload carries a pending image file into the service.
type ImageUpload struct {
	FileName string
	Reader   io.Reader
}

// ProductInput describes product create/update payloads. Every scalar field
// is written unconditionally; only the image is optional.
type ProductInput struct {
	Name        string
	Price       float64
	Cost        float64
	Discount    int
	Category    string
	Description *string
	Image       *ImageUpload
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		products:   deps.ProductRepo,
		feedback:   deps.FeedbackRepo,
		images:     deps.Images,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// List returns every product, unfiltered. Reads go through the cache when one
// is configured.
func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	if cached, ok := s.cachedList(ctx); ok {
		return cached, nil
	}
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.storeListCache(ctx, products)
	return products, nil
}

// Get fetches one product.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if cached, ok := s.cachedItem(ctx, id); ok {
		return cached, nil
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return nil, err
	}
	s.storeItemCache(ctx, product)
	return product, nil
}

// Create validates the input, persists the optional image, and stores the
// product. Any storage failure around the image surfaces as a bad request,
// matching the upload endpoint's contract.
func (s *CatalogService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		Cost:        input.Cost,
		Discount:    input.Discount,
		Category:    strings.TrimSpace(input.Category),
		Description: input.Description,
	}

	if input.Image != nil {
		imagePath, err := s.saveImage(input.Image)
		if err != nil {
			return nil, err
		}
		product.Image = &imagePath
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, product.ID)
	return product, nil
}

// Update overwrites every scalar field of an existing product and optionally
// replaces its image. This is a full overwrite, not a merge.
func (s *CatalogService) Update(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return nil, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Price = input.Price
	product.Cost = input.Cost
	product.Discount = input.Discount
	product.Category = strings.TrimSpace(input.Category)
	product.Description = input.Description

	if input.Image != nil {
		imagePath, err := s.saveImage(input.Image)
		if err != nil {
			return nil, err
		}
		product.Image = &imagePath
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, product.ID)
	return product, nil
}

// Delete removes a product and cascades to its feedback records.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return err
	}

	removed, err := s.feedback.DeleteByProduct(ctx, id)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return apperrors.NewInternalError(err)
	}
	s.invalidateCache(ctx, id)

	s.publishEvent(ctx, events.Event{
		Type:      events.EventProductDeleted,
		ProductID: id,
		Payload: events.ProductDeletedPayload{
			Name:            product.Name,
			FeedbackRemoved: removed,
		},
	})
	return nil
}

func (s *CatalogService) saveImage(image *ImageUpload) (string, error) {
	imagePath, err := s.images.Save(image.FileName, image.Reader)
	if err != nil {
		s.logger.Error("image upload failed", zap.String("file", image.FileName), zap.Error(err))
		return "", apperrors.NewValidationError("could not store image", nil)
	}
	return imagePath, nil
}

func validateProductInput(input ProductInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(input.Category) == "" {
		details["category"] = "required"
	}
	if input.Price < 0 {
		details["price"] = "must not be negative"
	}
	if input.Cost < 0 {
		details["cost"] = "must not be negative"
	}
	if input.Discount < 0 || input.Discount > 100 {
		details["discount"] = "must be a percentage between 0 and 100"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid product payload", details)
	}
	return nil
}

func (s *CatalogService) cachedList(ctx context.Context) ([]domain.Product, bool) {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := s.cache.Client.Get(ctx, catalogListCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false
	}
	return products, true
}

func (s *CatalogService) storeListCache(ctx context.Context, products []domain.Product) {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, catalogListCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("catalog cache write failed", zap.Error(err))
	}
}

func (s *CatalogService) cachedItem(ctx context.Context, id string) (*domain.Product, bool) {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := s.cache.Client.Get(ctx, catalogItemCachePref+id).Bytes()
	if err != nil {
		return nil, false
	}
	var product domain.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, false
	}
	return &product, true
}

func (s *CatalogService) storeItemCache(ctx context.Context, product *domain.Product) {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, catalogItemCachePref+product.ID, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("catalog cache write failed", zap.Error(err))
	}
}

func (s *CatalogService) invalidateCache(ctx context.Context, id string) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	if err := s.cache.Client.Del(ctx, catalogListCacheKey, catalogItemCachePref+id).Err(); err != nil {
		s.logger.Debug("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *CatalogService) publishEvent(ctx context.Context, event events.Event) {
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

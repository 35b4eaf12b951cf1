package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// MemoryStores bundles the in-memory repository set. It backs the service
// when no POSTGRES_DSN is configured and is what the tests run against. The
// pgx.ErrNoRows sentinel is kept so callers see the same not-found error as
// with the Postgres implementations.
type MemoryStores struct {
	Users    *MemoryUserRepository
	Products *MemoryProductRepository
	Feedback *MemoryFeedbackRepository
	History  *MemoryFeedbackHistoryRepository
}

// NewMemoryStores wires the in-memory repositories together.
func NewMemoryStores() *MemoryStores {
	users := &MemoryUserRepository{items: map[string]domain.User{}}
	products := &MemoryProductRepository{items: map[string]domain.Product{}}
	feedback := &MemoryFeedbackRepository{
		items:    map[string]domain.Feedback{},
		users:    users,
		products: products,
	}
	history := &MemoryFeedbackHistoryRepository{}
	return &MemoryStores{Users: users, Products: products, Feedback: feedback, History: history}
}

// MemoryUserRepository is a map-backed UserRepository.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	items map[string]domain.User
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.items[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	r.items[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.items {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// MemoryProductRepository is a map-backed ProductRepository.
type MemoryProductRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

func (r *MemoryProductRepository) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	product.ID = uuid.NewString()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.items[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) Update(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[product.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	r.items[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &product, nil
}

func (r *MemoryProductRepository) ListAll(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Product, 0, len(r.items))
	for _, product := range r.items {
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

// MemoryFeedbackRepository is a map-backed FeedbackRepository. Views are
// resolved against the peer user and product repositories.
type MemoryFeedbackRepository struct {
	mu       sync.RWMutex
	items    map[string]domain.Feedback
	users    *MemoryUserRepository
	products *MemoryProductRepository
}

func (r *MemoryFeedbackRepository) Create(_ context.Context, feedback *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	feedback.ID = uuid.NewString()
	feedback.CreatedAt = now
	feedback.UpdatedAt = now
	r.items[feedback.ID] = *feedback
	return nil
}

func (r *MemoryFeedbackRepository) Update(_ context.Context, feedback *domain.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[feedback.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	feedback.CreatedAt = existing.CreatedAt
	feedback.UpdatedAt = time.Now()
	r.items[feedback.ID] = *feedback
	return nil
}

func (r *MemoryFeedbackRepository) GetByID(_ context.Context, id string) (*domain.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feedback, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &feedback, nil
}

func (r *MemoryFeedbackRepository) GetViewByID(ctx context.Context, id string) (*domain.FeedbackView, error) {
	feedback, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view, err := r.resolveView(ctx, *feedback)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *MemoryFeedbackRepository) ListViews(ctx context.Context) ([]domain.FeedbackView, error) {
	return r.listViews(ctx, nil)
}

func (r *MemoryFeedbackRepository) ListViewsByUser(ctx context.Context, userID string) ([]domain.FeedbackView, error) {
	return r.listViews(ctx, &userID)
}

func (r *MemoryFeedbackRepository) listViews(ctx context.Context, userID *string) ([]domain.FeedbackView, error) {
	r.mu.RLock()
	records := make([]domain.Feedback, 0, len(r.items))
	for _, feedback := range r.items {
		if userID != nil && feedback.UserID != *userID {
			continue
		}
		records = append(records, feedback)
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	result := make([]domain.FeedbackView, 0, len(records))
	for _, feedback := range records {
		view, err := r.resolveView(ctx, feedback)
		if err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, nil
}

func (r *MemoryFeedbackRepository) resolveView(ctx context.Context, feedback domain.Feedback) (domain.FeedbackView, error) {
	user, err := r.users.GetByID(ctx, feedback.UserID)
	if err != nil {
		return domain.FeedbackView{}, err
	}
	product, err := r.products.GetByID(ctx, feedback.ProductID)
	if err != nil {
		return domain.FeedbackView{}, err
	}
	return domain.FeedbackView{
		Feedback:    feedback,
		UserName:    user.Name,
		ProductName: product.Name,
	}, nil
}

func (r *MemoryFeedbackRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryFeedbackRepository) DeleteByProduct(_ context.Context, productID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, feedback := range r.items {
		if feedback.ProductID == productID {
			delete(r.items, id)
			removed++
		}
	}
	return removed, nil
}

// MemoryFeedbackHistoryRepository is a slice-backed FeedbackHistoryRepository.
type MemoryFeedbackHistoryRepository struct {
	mu      sync.RWMutex
	entries []domain.FeedbackHistory
}

func (r *MemoryFeedbackHistoryRepository) Create(_ context.Context, history *domain.FeedbackHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = time.Now()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *MemoryFeedbackHistoryRepository) ListByFeedback(_ context.Context, feedbackID string) ([]domain.FeedbackHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.FeedbackHistory
	for _, entry := range r.entries {
		if entry.FeedbackID == feedbackID {
			result = append(result, entry)
		}
	}
	return result, nil
}

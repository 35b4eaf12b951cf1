package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/repository"
	"github.com/spec-kit/feedback-service/internal/uploads"
)

func newCatalogFixture(t *testing.T) (*CatalogService, *repository.MemoryStores) {
	t.Helper()
	stores := repository.NewMemoryStores()
	svc := NewCatalogService(CatalogDependencies{
		ProductRepo:  stores.Products,
		FeedbackRepo: stores.Feedback,
		Images:       uploads.NewStore(t.TempDir(), "/images"),
	})
	return svc, stores
}

func TestCatalogCreate(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	ctx := context.Background()

	desc := "a fine widget"
	product, err := svc.Create(ctx, ProductInput{
		Name:        "  Widget  ",
		Price:       9.99,
		Cost:        4.5,
		Discount:    10,
		Category:    "Tools",
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if product.ID == "" {
		t.Error("expected product to receive an id")
	}
	if product.Name != "Widget" {
		t.Errorf("expected trimmed name, got %q", product.Name)
	}
	if product.Image != nil {
		t.Error("no image was uploaded")
	}

	got, err := svc.Get(ctx, product.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 9.99 || got.Discount != 10 {
		t.Errorf("unexpected stored product: %+v", got)
	}
}

func TestCatalogCreate_Validation(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input ProductInput
	}{
		{"missing name", ProductInput{Category: "Tools", Price: 1}},
		{"missing category", ProductInput{Name: "Widget", Price: 1}},
		{"negative price", ProductInput{Name: "Widget", Category: "Tools", Price: -1}},
		{"negative cost", ProductInput{Name: "Widget", Category: "Tools", Cost: -1}},
		{"discount above 100", ProductInput{Name: "Widget", Category: "Tools", Discount: 101}},
		{"negative discount", ProductInput{Name: "Widget", Category: "Tools", Discount: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			if err == nil {
				t.Fatal("expected validation to fail")
			}
			if code := domainErrCode(t, err); code != "VALIDATION_FAILED" {
				t.Errorf("expected VALIDATION_FAILED, got %s", code)
			}
		})
	}
}

func TestCatalogCreate_WithImage(t *testing.T) {
	dir := t.TempDir()
	stores := repository.NewMemoryStores()
	svc := NewCatalogService(CatalogDependencies{
		ProductRepo:  stores.Products,
		FeedbackRepo: stores.Feedback,
		Images:       uploads.NewStore(dir, "/images"),
	})

	product, err := svc.Create(context.Background(), ProductInput{
		Name:     "Widget",
		Price:    9.99,
		Category: "Tools",
		Image:    &ImageUpload{FileName: "widget.png", Reader: strings.NewReader("png-bytes")},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if product.Image == nil || *product.Image != "/images/widget.png" {
		t.Fatalf("expected public image path, got %v", product.Image)
	}

	stored, err := os.ReadFile(filepath.Join(dir, "widget.png"))
	if err != nil {
		t.Fatalf("read stored image: %v", err)
	}
	if string(stored) != "png-bytes" {
		t.Errorf("unexpected image content: %q", stored)
	}
}

func TestCatalogUpdate_Overwrites(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	ctx := context.Background()

	desc := "original"
	product, err := svc.Create(ctx, ProductInput{
		Name: "Widget", Price: 9.99, Category: "Tools", Description: &desc,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, product.ID, ProductInput{
		Name: "Widget v2", Price: 12.50, Category: "Tools",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Widget v2" || updated.Price != 12.50 {
		t.Errorf("unexpected update result: %+v", updated)
	}
	// Full overwrite: an absent description clears the stored one.
	if updated.Description != nil {
		t.Errorf("expected description to be cleared, got %q", *updated.Description)
	}
}

func TestCatalogUpdate_NotFound(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	_, err := svc.Update(context.Background(), "missing", ProductInput{
		Name: "Widget", Category: "Tools",
	})
	if err == nil {
		t.Fatal("expected update to fail")
	}
	if code := domainErrCode(t, err); code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %s", code)
	}
}

func TestCatalogDelete_CascadesFeedback(t *testing.T) {
	svc, stores := newCatalogFixture(t)
	ctx := context.Background()

	user := &domain.User{Name: "Alice", Email: "a@x.com", PasswordHash: "x", Role: domain.RoleCustomer}
	if err := stores.Users.Create(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	product, err := svc.Create(ctx, ProductInput{Name: "Widget", Price: 9.99, Category: "Tools"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	feedback := &domain.Feedback{
		UserID:    user.ID,
		ProductID: product.ID,
		Comment:   "great",
		Rating:    5,
		Status:    domain.FeedbackStatusPending,
	}
	if err := stores.Feedback.Create(ctx, feedback); err != nil {
		t.Fatalf("seed feedback: %v", err)
	}

	if err := svc.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.Get(ctx, product.ID); err == nil {
		t.Error("expected product to be gone")
	}
	views, err := stores.Feedback.ListViews(ctx)
	if err != nil {
		t.Fatalf("list feedback: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("expected feedback to be removed with the product, got %d", len(views))
	}
}

func TestCatalogDelete_NotFound(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	err := svc.Delete(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected delete to fail")
	}
	if code := domainErrCode(t, err); code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %s", code)
	}
}

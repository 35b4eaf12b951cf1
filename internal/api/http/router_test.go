package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/feedback-service/internal/api/http/handlers"
	"github.com/spec-kit/feedback-service/internal/auth"
	"github.com/spec-kit/feedback-service/internal/config"
	"github.com/spec-kit/feedback-service/internal/observability"
	"github.com/spec-kit/feedback-service/internal/persistence"
	"github.com/spec-kit/feedback-service/internal/repository"
	"github.com/spec-kit/feedback-service/internal/service"
	"github.com/spec-kit/feedback-service/internal/uploads"
)

type testApp struct {
	app  *fiber.App
	auth *service.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
	}
	stores := repository.NewMemoryStores()
	logger := zap.NewNop()

	authService := service.NewAuthService(cfg, stores.Users)
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		ProductRepo:  stores.Products,
		FeedbackRepo: stores.Feedback,
		Images:       uploads.NewStore(t.TempDir(), "/images"),
		Logger:       logger,
	})
	feedbackService := service.NewFeedbackService(service.FeedbackDependencies{
		FeedbackRepo: stores.Feedback,
		UserRepo:     stores.Users,
		ProductRepo:  stores.Products,
		HistoryRepo:  stores.History,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Users:          handlers.NewUsersHandler(authService),
		Products:       handlers.NewProductsHandler(catalogService),
		Feedback:       handlers.NewFeedbackHandler(feedbackService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), stores.Users),
	})

	return &testApp{app: app, auth: authService}
}

func (ta *testApp) request(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ta.do(t, req)
}

func (ta *testApp) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func (ta *testApp) adminToken(t *testing.T) string {
	t.Helper()
	admin, err := ta.auth.EnsureAdmin(context.Background(), "Admin", "admin@x.com", "adminpw")
	if err != nil {
		t.Fatalf("provision admin: %v", err)
	}
	token, _, err := ta.auth.TokenManager().GenerateToken(admin.ID, admin.Role)
	if err != nil {
		t.Fatalf("admin token: %v", err)
	}
	return token
}

func (ta *testApp) createProduct(t *testing.T, token, name, price, category string) string {
	t.Helper()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for field, value := range map[string]string{"name": name, "price": price, "category": category} {
		if err := form.WriteField(field, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/products/upload", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	status, body := ta.do(t, req)
	if status != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d (%v)", status, body)
	}
	return dataField(t, body, "id")
}

func dataField(t *testing.T, body map[string]any, key string) string {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", body)
	}
	value, ok := data[key].(string)
	if !ok {
		t.Fatalf("expected data.%s string, got %v", key, data[key])
	}
	return value
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %v", body)
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestFeedbackLifecycle(t *testing.T) {
	ta := newTestApp(t)
	adminToken := ta.adminToken(t)

	// Customer registers.
	status, body := ta.request(t, http.MethodPost, "/api/users/register", map[string]any{
		"name": "Alice", "email": "a@x.com", "password": "pw",
	}, "")
	if status != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%v)", status, body)
	}
	data := body["data"].(map[string]any)
	user := data["user"].(map[string]any)
	userID := user["id"].(string)
	if user["role"] != "customer" {
		t.Errorf("expected customer role, got %v", user["role"])
	}

	// Admin creates a product.
	productID := ta.createProduct(t, adminToken, "Widget", "9.99", "Tools")

	// Customer submits feedback; status defaults to Pending.
	status, body = ta.request(t, http.MethodPost, "/api/feedback", map[string]any{
		"user_id": userID, "product_id": productID, "comment": "works well", "rating": 5,
	}, "")
	if status != http.StatusCreated {
		t.Fatalf("create feedback: expected 201, got %d (%v)", status, body)
	}
	feedbackID := dataField(t, body, "id")

	// The list shows the flattened view.
	status, body = ta.request(t, http.MethodGet, "/api/feedback", nil, "")
	if status != http.StatusOK {
		t.Fatalf("list feedback: expected 200, got %d", status)
	}
	items := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 feedback record, got %d", len(items))
	}
	item := items[0].(map[string]any)
	if item["user_name"] != "Alice" || item["product_name"] != "Widget" || item["status"] != "Pending" {
		t.Errorf("unexpected view: %v", item)
	}

	// Triage is admin-only.
	status, body = ta.request(t, http.MethodPatch, "/api/feedback/"+feedbackID, map[string]any{
		"status": "InReview",
	}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("anonymous patch: expected 401, got %d", status)
	}
	if code := errorCode(t, body); code != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED, got %s", code)
	}

	_, _, _, err := ta.auth.RegisterCustomer(context.Background(), "Bob", "b@x.com", "pw")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}
	_, customerToken, _, err := ta.auth.Login(context.Background(), "b@x.com", "pw")
	if err != nil {
		t.Fatalf("login bob: %v", err)
	}
	status, body = ta.request(t, http.MethodPatch, "/api/feedback/"+feedbackID, map[string]any{
		"status": "InReview",
	}, customerToken)
	if status != http.StatusForbidden {
		t.Fatalf("customer patch: expected 403, got %d (%v)", status, body)
	}

	// Admin moves the record to InReview with a reply.
	status, body = ta.request(t, http.MethodPatch, "/api/feedback/"+feedbackID, map[string]any{
		"status": "InReview", "admin_comment": "on it",
	}, adminToken)
	if status != http.StatusOK {
		t.Fatalf("admin patch: expected 200, got %d (%v)", status, body)
	}
	patched := body["data"].(map[string]any)
	if patched["status"] != "InReview" || patched["admin_comment"] != "on it" {
		t.Errorf("unexpected patch result: %v", patched)
	}

	// A status-only patch clears the stored reply.
	status, body = ta.request(t, http.MethodPatch, "/api/feedback/"+feedbackID, map[string]any{
		"status": "Resolved",
	}, adminToken)
	if status != http.StatusOK {
		t.Fatalf("status-only patch: expected 200, got %d (%v)", status, body)
	}
	patched = body["data"].(map[string]any)
	if patched["admin_comment"] != nil {
		t.Errorf("expected reply to be cleared, got %v", patched["admin_comment"])
	}

	// The audit trail recorded the triage steps.
	status, body = ta.request(t, http.MethodGet, "/api/feedback/"+feedbackID+"/history", nil, adminToken)
	if status != http.StatusOK {
		t.Fatalf("history: expected 200, got %d (%v)", status, body)
	}
	if entries := body["data"].([]any); len(entries) < 3 {
		t.Errorf("expected status, reply, and clearing entries, got %d", len(entries))
	}

	// Deleting the product removes its feedback.
	status, _ = ta.request(t, http.MethodDelete, "/api/products/"+productID, nil, adminToken)
	if status != http.StatusNoContent {
		t.Fatalf("delete product: expected 204, got %d", status)
	}
	status, body = ta.request(t, http.MethodGet, "/api/feedback", nil, "")
	if status != http.StatusOK {
		t.Fatalf("list after delete: expected 200, got %d", status)
	}
	if items := body["data"].([]any); len(items) != 0 {
		t.Errorf("expected feedback to vanish with the product, got %d records", len(items))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ta := newTestApp(t)

	payload := map[string]any{"name": "Alice", "email": "a@x.com", "password": "pw"}
	if status, _ := ta.request(t, http.MethodPost, "/api/users/register", payload, ""); status != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", status)
	}
	status, body := ta.request(t, http.MethodPost, "/api/users/register", payload, "")
	if status != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", status)
	}
	if code := errorCode(t, body); code != "CONFLICT" {
		t.Errorf("expected CONFLICT, got %s", code)
	}
}

func TestLoginRoutes(t *testing.T) {
	ta := newTestApp(t)

	if status, _ := ta.request(t, http.MethodPost, "/api/users/register", map[string]any{
		"name": "Alice", "email": "a@x.com", "password": "pw",
	}, ""); status != http.StatusCreated {
		t.Fatal("register failed")
	}

	// API login hides which part was wrong.
	status, body := ta.request(t, http.MethodPost, "/api/users/login", map[string]any{
		"email": "a@x.com", "password": "wrong",
	}, "")
	if status != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", status)
	}
	status, _ = ta.request(t, http.MethodPost, "/api/users/login", map[string]any{
		"email": "nobody@x.com", "password": "pw",
	}, "")
	if status != http.StatusUnauthorized {
		t.Errorf("unknown email: expected 401, got %d", status)
	}

	// The legacy route keeps the old distinction.
	status, body = ta.request(t, http.MethodPost, "/auth/login?email=nobody@x.com&password=pw", nil, "")
	if status != http.StatusNotFound {
		t.Errorf("legacy unknown email: expected 404, got %d (%v)", status, body)
	}
	status, _ = ta.request(t, http.MethodPost, "/auth/login?email=a@x.com&password=wrong", nil, "")
	if status != http.StatusUnauthorized {
		t.Errorf("legacy wrong password: expected 401, got %d", status)
	}
	status, body = ta.request(t, http.MethodPost, "/auth/login?email=a@x.com&password=pw", nil, "")
	if status != http.StatusOK {
		t.Fatalf("legacy login: expected 200, got %d (%v)", status, body)
	}
	if got := dataField(t, body, "email"); got != "a@x.com" {
		t.Errorf("expected logged-in user, got %q", got)
	}
}

func TestProductRoutesRequireAdmin(t *testing.T) {
	ta := newTestApp(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("name", "Widget")
	_ = form.WriteField("price", "9.99")
	_ = form.WriteField("category", "Tools")
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/products/upload", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	status, body := ta.do(t, req)
	if status != http.StatusUnauthorized {
		t.Fatalf("anonymous product create: expected 401, got %d (%v)", status, body)
	}

	// Reads stay open.
	if status, _ := ta.request(t, http.MethodGet, "/api/products", nil, ""); status != http.StatusOK {
		t.Errorf("product list: expected 200, got %d", status)
	}
}

func TestUnknownFeedbackReturns404(t *testing.T) {
	ta := newTestApp(t)
	adminToken := ta.adminToken(t)

	status, body := ta.request(t, http.MethodPatch, "/api/feedback/missing", map[string]any{
		"status": "InReview",
	}, adminToken)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%v)", status, body)
	}
	if code := errorCode(t, body); code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %s", code)
	}
}

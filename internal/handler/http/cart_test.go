package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/MikkosUSN/levelup-merch/pkg/errors"
	pkgkafka "github.com/MikkosUSN/levelup-merch/pkg/kafka"

	"github.com/MikkosUSN/levelup-merch/internal/domain"
	"github.com/MikkosUSN/levelup-merch/internal/event"
	"github.com/MikkosUSN/levelup-merch/internal/repository/memory"
	"github.com/MikkosUSN/levelup-merch/internal/service"
)

// ============================================================================
// Mock ProductRepository
// ============================================================================

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, category string) ([]*domain.Product, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

// setupCartRouter creates a chi router matching the production route layout
// for cart endpoints, including the Session and ContentTypeJSON middleware.
func setupCartRouter(products *mockProductRepository) (*chi.Mux, *memory.CartStore) {
	store := memory.NewCartStore()
	svc := service.NewCartService(store, products, testEventProducer(), testLogger())
	handler := NewCartHandler(svc, testLogger())

	r := chi.NewRouter()
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(Session)

		r.Get("/", handler.GetCart)
		r.Delete("/", handler.ClearCart)

		r.Post("/items", handler.AddItem)
		r.Put("/items/{productId}", handler.UpdateItemQuantity)
		r.Delete("/items/{productId}", handler.RemoveItem)
	})
	return r, store
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func widget() *domain.Product {
	return &domain.Product{
		ID:    "prod-1",
		Name:  "Widget",
		Price: decimal.RequireFromString("19.99"),
	}
}

// ============================================================================
// Tests
// ============================================================================

func TestGetCart_NewSessionSetsCookie(t *testing.T) {
	router, _ := setupCartRouter(new(mockProductRepository))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestAddItem_Success(t *testing.T) {
	products := new(mockProductRepository)
	router, _ := setupCartRouter(products)

	products.On("GetByID", mock.Anything, "prod-1").Return(widget(), nil)

	body, _ := json.Marshal(AddItemRequest{ProductID: "prod-1", Quantity: 2})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	var cart domain.Cart
	raw, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(raw, &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "prod-1", cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestAddItem_UnknownProductReturns404(t *testing.T) {
	products := new(mockProductRepository)
	router, _ := setupCartRouter(products)

	products.On("GetByID", mock.Anything, "prod-x").
		Return(nil, apperrors.NotFound("product", "prod-x"))

	body, _ := json.Marshal(AddItemRequest{ProductID: "prod-x", Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestAddItem_MissingProductIDFailsValidation(t *testing.T) {
	router, _ := setupCartRouter(new(mockProductRepository))

	body, _ := json.Marshal(AddItemRequest{Quantity: 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestAddItem_WrongContentType(t *testing.T) {
	router, _ := setupCartRouter(new(mockProductRepository))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewReader([]byte("product_id=prod-1")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUpdateItemQuantity_ZeroClampsToOne(t *testing.T) {
	products := new(mockProductRepository)
	router, store := setupCartRouter(products)

	_, err := store.Update(context.Background(), "sess-1", func(c *domain.Cart) error {
		c.AddOrIncrement(domain.LineItem{ProductID: "prod-1", Name: "Widget", UnitPrice: decimal.RequireFromString("19.99"), Quantity: 5})
		return nil
	})
	require.NoError(t, err)

	body, _ := json.Marshal(UpdateQuantityRequest{Quantity: 0})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/prod-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cart, err := store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestRemoveItem_MissingReturns404(t *testing.T) {
	router, _ := setupCartRouter(new(mockProductRepository))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/prod-1", nil)
	req.Header.Set(SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearCart_Success(t *testing.T) {
	products := new(mockProductRepository)
	router, store := setupCartRouter(products)

	_, err := store.Update(context.Background(), "sess-1", func(c *domain.Cart) error {
		c.AddOrIncrement(domain.LineItem{ProductID: "prod-1", Quantity: 2})
		return nil
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/", nil)
	req.Header.Set(SessionHeader, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	cart, err := store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

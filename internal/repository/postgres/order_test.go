package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikkosUSN/levelup-merch/internal/domain"
	"github.com/MikkosUSN/levelup-merch/pkg/database"
	apperrors "github.com/MikkosUSN/levelup-merch/pkg/errors"
)

// --- Test Helpers ---

func newTestRepo(t *testing.T) (*OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewOrderRepository(mock)
	return repo, mock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		UserID: "user-001",
		Status: domain.OrderStatusPlaced,
		Total:  dec("79.97"),
		Items: []domain.OrderItem{
			{ProductID: "prod-001", Name: "Widget", UnitPrice: dec("19.99"), Quantity: 4},
			{ProductID: "prod-002", Name: "Gadget", UnitPrice: dec("0.01"), Quantity: 1},
		},
	}
}

// --- Create Tests ---

func TestOrderRepository_Create_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()
	now := time.Now().UTC()

	mock.ExpectBegin()

	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(o.UserID, o.Status, o.Total).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	for i, item := range o.Items {
		mock.ExpectQuery("INSERT INTO order_items").
			WithArgs(int64(42), item.ProductID, item.Name, item.UnitPrice, item.Quantity).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(100 + i)))
	}

	mock.ExpectCommit()

	err := repo.Create(context.Background(), o)
	require.NoError(t, err)

	assert.Equal(t, int64(42), o.ID)
	assert.Equal(t, now, o.CreatedAt)
	assert.Equal(t, int64(100), o.Items[0].ID)
	assert.Equal(t, int64(42), o.Items[0].OrderID)
	assert.Equal(t, int64(101), o.Items[1].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_HeaderInsertFails(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(o.UserID, o.Status, o.Total).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_ItemInsertFailsRollsBack(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(o.UserID, o.Status, o.Total).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(int64(42), o.Items[0].ProductID, o.Items[0].Name, o.Items[0].UnitPrice, o.Items[0].Quantity).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(int64(42), o.Items[1].ProductID, o.Items[1].Name, o.Items[1].UnitPrice, o.Items[1].Quantity).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order item")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_CommitFails(t *testing.T) {
	repo, mock := newTestRepo(t)

	o := sampleOrder()
	o.Items = nil
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(o.UserID, o.Status, o.Total).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))
	mock.ExpectCommit().WillReturnError(errors.New("commit failed"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit transaction")

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- GetByID Tests ---

func TestOrderRepository_GetByID_Success(t *testing.T) {
	repo, mock := newTestRepo(t)

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, user_id, status, total, created_at").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "total", "created_at"}).
			AddRow(int64(42), "user-001", domain.OrderStatusPlaced, dec("79.97"), now))

	mock.ExpectQuery("SELECT id, order_id, product_id, name, unit_price, quantity").
		WithArgs([]int64{42}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "product_id", "name", "unit_price", "quantity"}).
			AddRow(int64(100), int64(42), "prod-001", "Widget", dec("19.99"), 4).
			AddRow(int64(101), int64(42), "prod-002", "Gadget", dec("0.01"), 1))

	got, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "user-001", got.UserID)
	assert.True(t, dec("79.97").Equal(got.Total))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "prod-001", got.Items[0].ProductID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT id, user_id, status, total, created_at").
		WithArgs(int64(999)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "total", "created_at"}))

	got, err := repo.GetByID(context.Background(), 999)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- ListByUser Tests ---

func TestOrderRepository_ListByUser_NewestFirst(t *testing.T) {
	repo, mock := newTestRepo(t)

	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()

	mock.ExpectQuery("SELECT id, user_id, status, total, created_at").
		WithArgs("user-001").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "total", "created_at"}).
			AddRow(int64(43), "user-001", domain.OrderStatusPlaced, dec("5.00"), newer).
			AddRow(int64(42), "user-001", domain.OrderStatusPlaced, dec("79.97"), older))

	mock.ExpectQuery("SELECT id, order_id, product_id, name, unit_price, quantity").
		WithArgs([]int64{43, 42}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "product_id", "name", "unit_price", "quantity"}).
			AddRow(int64(200), int64(43), "prod-003", "Doohickey", dec("5.00"), 1).
			AddRow(int64(100), int64(42), "prod-001", "Widget", dec("19.99"), 4))

	orders, err := repo.ListByUser(context.Background(), "user-001")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(43), orders[0].ID)
	assert.Equal(t, int64(42), orders[1].ID)
	require.Len(t, orders[0].Items, 1)
	require.Len(t, orders[1].Items, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_ListByUser_Empty(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery("SELECT id, user_id, status, total, created_at").
		WithArgs("user-empty").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "total", "created_at"}))

	orders, err := repo.ListByUser(context.Background(), "user-empty")
	require.NoError(t, err)
	assert.Empty(t, orders)

	assert.NoError(t, mock.ExpectationsWereMet())
}

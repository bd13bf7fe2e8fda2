package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
)

// Repository defines persistence operations for orders and the stock they consume.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	DecrementStock(ctx context.Context, storeID, productID uuid.UUID, qty int) (bool, error)
	RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, scope ListScope) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, notes *string) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
	MaxSequence(ctx context.Context) (int64, error)
	Stats(ctx context.Context, storeIDs []uuid.UUID, windows RevenueWindows) (OrderStats, error)
}

// ListScope restricts a listing. A nil StoreIDs means every store; an empty
// Email means any customer.
type ListScope struct {
	StoreIDs []uuid.UUID
	Email    string
	Filters  ListFilters
}

// RevenueWindows are the lower bounds of each revenue bucket.
type RevenueWindows struct {
	Today time.Time
	Week  time.Time
	Month time.Time
}

// WindowsAt computes the revenue windows relative to now, in UTC.
func WindowsAt(now time.Time) RevenueWindows {
	now = now.UTC()
	return RevenueWindows{
		Today: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Week:  now.Add(-7 * 24 * time.Hour),
		Month: now.AddDate(0, -1, 0),
	}
}

// OrderStats is the order half of the dashboard.
type OrderStats struct {
	Total   int64
	Pending int64
	Revenue Revenue
}

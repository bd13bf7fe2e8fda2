package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
)

// maxSequenceDigits excludes millisecond fallback numbers from seeding.
const maxSequenceDigits = 9

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// DecrementStock takes qty units only when the product belongs to storeID,
// is active, and has enough stock. It reports whether a row was updated.
func (r *repository) DecrementStock(ctx context.Context, storeID, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND store_id = ? AND status = ? AND stock >= ?
	`, qty, time.Now().UTC(), productID, storeID, enums.ListingStatusActive, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) RestoreStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock + ?, updated_at = ?
		WHERE id = ?
	`, qty, time.Now().UTC(), productID).Error
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, scope ListScope) ([]models.Order, int64, error) {
	q := r.scoped(ctx, scope.StoreIDs)
	if scope.Email != "" {
		q = q.Where("LOWER(customer_email) = ?", scope.Email)
	}
	if status := scope.Filters.Status; status != nil {
		q = q.Where("status = ?", *status)
	}
	if day := scope.Filters.Date; day != nil {
		start := day.UTC()
		q = q.Where("created_at >= ? AND created_at < ?", start, start.Add(24*time.Hour))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params := scope.Filters.Params.Normalize()
	var rows []models.Order
	err := q.
		Preload("Items", orderItemsByPosition).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateStatus moves the order from one status to another. It reports false
// when the order was no longer in from.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, notes *string) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"payment_status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MaxSequence returns the largest counter-issued order number in storage.
func (r *repository) MaxSequence(ctx context.Context) (int64, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number LIKE ? AND LENGTH(order_number) <= ?", "#%", maxSequenceDigits+1).
		Order("LENGTH(order_number) DESC").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return 0, err
	}
	seq, _ := ParseOrderNumber(numbers[0])
	return seq, nil
}

func (r *repository) Stats(ctx context.Context, storeIDs []uuid.UUID, windows RevenueWindows) (OrderStats, error) {
	var stats OrderStats
	if err := r.scoped(ctx, storeIDs).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := r.scoped(ctx, storeIDs).Where("status = ?", enums.OrderStatusPendiente).Count(&stats.Pending).Error; err != nil {
		return stats, err
	}
	var err error
	if stats.Revenue.Today, err = r.revenueSince(ctx, storeIDs, windows.Today); err != nil {
		return stats, err
	}
	if stats.Revenue.Week, err = r.revenueSince(ctx, storeIDs, windows.Week); err != nil {
		return stats, err
	}
	if stats.Revenue.Month, err = r.revenueSince(ctx, storeIDs, windows.Month); err != nil {
		return stats, err
	}
	return stats, nil
}

func (r *repository) revenueSince(ctx context.Context, storeIDs []uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.scoped(ctx, storeIDs).
		Select("SUM(total)").
		Where("status <> ? AND created_at >= ?", enums.OrderStatusCancelado, since.UTC()).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal.Round(2), nil
}

func (r *repository) scoped(ctx context.Context, storeIDs []uuid.UUID) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if storeIDs != nil {
		q = q.Where("store_id IN ?", storeIDs)
	}
	return q
}

func orderItemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

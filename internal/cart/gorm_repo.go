package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/db"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
)

// GormRepository stores carts in the relational carts table.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository binds a cart repository to db.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Get(ctx context.Context, sessionID string, storeID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND store_id = ?", sessionID, storeID).
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrCartExists
		}
		return err
	}
	return nil
}

func (r *GormRepository) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"items":       cart.Items,
			"total_items": cart.TotalItems,
			"subtotal":    cart.Subtotal,
			"updated_at":  cart.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *GormRepository) DeleteByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("store_id = ?", storeID).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

func (r *GormRepository) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("updated_at < ?", cutoff.UTC()).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

package product

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
)

// Repository persists catalog products.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a product repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a product by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts product.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct writes only the named columns of product id and returns the
// fresh row. Columns absent from fields keep whatever value is stored, so a
// concurrent stock decrement is never overwritten by an unrelated edit.
func (r *Repository) UpdateProduct(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Product, error) {
	changes := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		changes[k] = v
	}
	changes["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// DeleteProduct removes a product row.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListProducts returns one page of a store's products and the total count.
func (r *Repository) ListProducts(ctx context.Context, q listQuery) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("store_id = ?", q.StoreID)
	if q.ActiveOnly {
		query = query.Where("status = ?", enums.ListingStatusActive)
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Product
	if err := query.Order("created_at DESC").
		Offset(q.Offset()).
		Limit(q.Normalize().Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ProductCounts is the catalog part of the dashboard stats.
type ProductCounts struct {
	Total  int64
	Active int64
}

// CountByStores counts products across storeIDs. A nil slice counts every store.
func (r *Repository) CountByStores(ctx context.Context, storeIDs []uuid.UUID) (ProductCounts, error) {
	var counts ProductCounts
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Product{})
		if storeIDs != nil {
			q = q.Where("store_id IN ?", storeIDs)
		}
		return q
	}
	if err := base().Count(&counts.Total).Error; err != nil {
		return counts, err
	}
	if err := base().Where("status = ?", enums.ListingStatusActive).Count(&counts.Active).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

package stores

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists stores.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a store repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a store.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(store).Error
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindIDsByOwner returns every store owned by ownerID.
func (r *Repository) FindIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// List returns one page of stores matching params and the total count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]models.Store, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Store{})
	if !params.IncludeInactive {
		query = query.Where("status = ?", enums.ListingStatusActive)
	}
	if category := strings.TrimSpace(params.Category); category != "" {
		query = r.whereCategory(query, category)
	}
	if term := strings.TrimSpace(params.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Store
	if err := query.Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Normalize().Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// whereCategory matches array membership. SQLite keeps the array in its
// quoted postgres text form, so membership is a quoted substring match there.
func (r *Repository) whereCategory(query *gorm.DB, category string) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return query.Where("? = ANY(categories)", category)
	}
	return query.Where("categories LIKE ?", `%"`+category+`"%`)
}

// Update persists every mutable column of store.
func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	store.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ?", store.ID).
		Updates(map[string]any{
			"name":             store.Name,
			"responsible_name": store.ResponsibleName,
			"phone":            store.Phone,
			"categories":       store.Categories,
			"description":      store.Description,
			"images":           store.Images,
			"schedule":         store.Schedule,
			"location":         store.Location,
			"address":          store.Address,
			"social":           store.Social,
			"status":           store.Status,
			"updated_at":       store.UpdatedAt,
		}).Error
}

// ProductCategoriesInUse lists the distinct categories of the store's products.
func (r *Repository) ProductCategoriesInUse(ctx context.Context, storeID uuid.UUID) ([]string, error) {
	var categories []string
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("store_id = ?", storeID).
		Distinct().
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CascadeResult reports what a store delete removed.
type CascadeResult struct {
	ProductsDeleted int64
	CartsDeleted    int64
}

// DeleteCascade removes the store with its products and relational carts.
// Run it on a transaction-bound repository.
func (r *Repository) DeleteCascade(ctx context.Context, storeID uuid.UUID) (CascadeResult, error) {
	var result CascadeResult
	db := r.db.WithContext(ctx)

	products := db.Where("store_id = ?", storeID).Delete(&models.Product{})
	if products.Error != nil {
		return result, products.Error
	}
	result.ProductsDeleted = products.RowsAffected

	carts := db.Where("store_id = ?", storeID).Delete(&models.Cart{})
	if carts.Error != nil {
		return result, carts.Error
	}
	result.CartsDeleted = carts.RowsAffected

	store := db.Where("id = ?", storeID).Delete(&models.Store{})
	if store.Error != nil {
		return result, store.Error
	}
	if store.RowsAffected == 0 {
		return result, gorm.ErrRecordNotFound
	}
	return result, nil
}

package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/authz"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
	"github.com/angelmondragon/mercadito-backend/pkg/validation"
	"github.com/angelmondragon/mercadito-backend/pkg/visibility"
)

// Service exposes catalog operations scoped to one store.
type Service interface {
	ListProducts(ctx context.Context, caller *authz.Caller, input ListProductsInput) ([]ProductDTO, types.Pagination, error)
	GetProduct(ctx context.Context, caller *authz.Caller, storeID, productID uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, caller *authz.Caller, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, caller *authz.Caller, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, caller *authz.Caller, storeID, productID uuid.UUID) error
	ToggleStatus(ctx context.Context, caller *authz.Caller, storeID, productID uuid.UUID) (*ProductDTO, error)
}

type productRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, q listQuery) ([]models.Product, int64, error)
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type service struct {
	repo      productRepository
	storeRepo storeLoader
}

// NewService constructs a product service instance.
func NewService(repo productRepository, storeRepo storeLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if storeRepo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo, storeRepo: storeRepo}, nil
}

func (s *service) ListProducts(ctx context.Context, caller *authz.Caller, input ListProductsInput) ([]ProductDTO, types.Pagination, error) {
	store, err := s.loadStore(ctx, input.StoreID)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	if err := visibility.EnsureStoreVisible(visibility.StoreVisibilityInput{Store: store, Caller: caller}); err != nil {
		return nil, types.Pagination{}, err
	}
	input.Params = input.Normalize()
	rows, total, err := s.repo.ListProducts(ctx, listQuery{
		ListProductsInput: input,
		ActiveOnly:        !visibility.SeesInactive(caller, store),
	})
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, input.Meta(total), nil
}

func (s *service) GetProduct(ctx context.Context, caller *authz.Caller, storeID, productID uuid.UUID) (*ProductDTO, error) {
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := visibility.EnsureProductVisible(visibility.ProductVisibilityInput{Store: store, Product: product, Caller: caller}); err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

func (s *service) CreateProduct(ctx context.Context, caller *authz.Caller, storeID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	store, err := s.managedStore(ctx, caller, storeID)
	if err != nil {
		return nil, err
	}

	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if err := validateStock(input.Stock); err != nil {
		return nil, err
	}
	images, err := validateImages(input.Images)
	if err != nil {
		return nil, err
	}
	category, err := ensureCategory(store, input.Category)
	if err != nil {
		return nil, err
	}
	if err := validateAdminNote(input.AdminNote); err != nil {
		return nil, err
	}
	status := enums.ListingStatusActive
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		status = *input.Status
	}
	description := strings.TrimSpace(input.Description)
	if len(description) > 500 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description must be at most 500 characters")
	}

	product := &models.Product{
		ID:          uuid.New(),
		StoreID:     store.ID,
		Name:        name,
		Description: description,
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		Images:      images,
		Category:    category,
		AdminNote:   input.AdminNote,
		Status:      status,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return FromModel(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, caller *authz.Caller, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	store, err := s.managedStore(ctx, caller, storeID)
	if err != nil {
		return nil, err
	}
	product, err := s.storeProduct(ctx, store, productID)
	if err != nil {
		return nil, err
	}
	fields, err := productChanges(store, input)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return FromModel(product), nil
	}
	updated, err := s.repo.UpdateProduct(ctx, product.ID, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return FromModel(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, caller *authz.Caller, storeID, productID uuid.UUID) error {
	store, err := s.managedStore(ctx, caller, storeID)
	if err != nil {
		return err
	}
	if _, err := s.storeProduct(ctx, store, productID); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) ToggleStatus(ctx context.Context, caller *authz.Caller, storeID, productID uuid.UUID) (*ProductDTO, error) {
	store, err := s.managedStore(ctx, caller, storeID)
	if err != nil {
		return nil, err
	}
	product, err := s.storeProduct(ctx, store, productID)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateProduct(ctx, product.ID, map[string]any{"status": product.Status.Toggle()})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle product status")
	}
	return FromModel(updated), nil
}

func (s *service) managedStore(ctx context.Context, caller *authz.Caller, storeID uuid.UUID) (*models.Store, error) {
	store, err := s.loadStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageStore(caller, store.OwnerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to manage this store")
	}
	return store, nil
}

func (s *service) storeProduct(ctx context.Context, store *models.Store, productID uuid.UUID) (*models.Product, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.StoreID != store.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) loadStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// ensureCategory requires category to be one the store declares.
func ensureCategory(store *models.Store, category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if !store.HasCategory(category) {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "category %q is not offered by this store", category).WithDetails(map[string]any{
			"allowed": []string(store.Categories),
		})
	}
	return category, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must be between 1 and 100 characters")
	}
	return name, nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be >= 0")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be >= 0")
	}
	return nil
}

func validateAdminNote(note *string) error {
	if note != nil && len(*note) > 200 {
		return pkgerrors.New(pkgerrors.CodeValidation, "adminNote must be at most 200 characters")
	}
	return nil
}

func validateImages(images []string) (pq.StringArray, error) {
	if len(images) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}
	out := make(pq.StringArray, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if !validation.IsHTTPURL(img) {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "image %q is not a valid URL", img)
		}
		out = append(out, img)
	}
	return out, nil
}

// productChanges validates every supplied field and returns the columns to
// write. Stock is only present when the caller set it.
func productChanges(store *models.Store, input UpdateProductInput) (map[string]any, error) {
	fields := map[string]any{}
	if input.Name != nil {
		name, err := validateName(*input.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if len(desc) > 500 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description must be at most 500 characters")
		}
		fields["description"] = desc
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		fields["price"] = input.Price.Round(2)
	}
	if input.Stock != nil {
		if err := validateStock(*input.Stock); err != nil {
			return nil, err
		}
		fields["stock"] = *input.Stock
	}
	if input.Images != nil {
		images, err := validateImages(*input.Images)
		if err != nil {
			return nil, err
		}
		fields["images"] = images
	}
	if input.Category != nil {
		category, err := ensureCategory(store, *input.Category)
		if err != nil {
			return nil, err
		}
		fields["category"] = category
	}
	if input.AdminNote != nil {
		if err := validateAdminNote(input.AdminNote); err != nil {
			return nil, err
		}
		fields["admin_note"] = input.AdminNote
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		fields["status"] = *input.Status
	}
	return fields, nil
}

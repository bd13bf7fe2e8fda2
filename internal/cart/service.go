package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/checkout"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
	"github.com/angelmondragon/mercadito-backend/pkg/visibility"
)

// Service manages session carts.
type Service interface {
	Get(ctx context.Context, sessionID string, storeID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, sessionID string, input UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, sessionID string, input RemoveItemInput) (*CartDTO, error)
	Clear(ctx context.Context, sessionID string, input ClearInput) (*CartDTO, error)
}

type storeLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     Repository
	stores   storeLoader
	products productLoader
}

// NewService builds the cart service.
func NewService(repo Repository, stores storeLoader, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, stores: stores, products: products}, nil
}

func (s *service) Get(ctx context.Context, sessionID string, storeID uuid.UUID) (*CartDTO, error) {
	if err := s.ensureStore(ctx, storeID); err != nil {
		return nil, err
	}
	cart, err := s.getOrCreate(ctx, sessionID, storeID)
	if err != nil {
		return nil, err
	}
	return FromModel(cart), nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*CartDTO, error) {
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := s.ensureStore(ctx, input.StoreID); err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, input.StoreID, input.ProductID)
	if err != nil {
		return nil, err
	}
	cart, err := s.getOrCreate(ctx, sessionID, input.StoreID)
	if err != nil {
		return nil, err
	}

	// Only the quantity being added is checked here; the merged line is
	// validated against live stock at checkout.
	if err := checkout.ValidateStock(checkout.StockShortage{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   input.Quantity,
		Available:   product.Stock,
	}); err != nil {
		return nil, err
	}

	idx := lineIndex(cart.Items, input.ProductID)
	if idx >= 0 {
		cart.Items[idx].Quantity += input.Quantity
		if input.Note != nil {
			cart.Items[idx].Note = input.Note
		}
	} else {
		cart.Items = append(cart.Items, types.CartLine{
			ProductID:   product.ID,
			Name:        product.Name,
			Description: product.Description,
			Price:       product.Price,
			Image:       product.FirstImage(),
			Quantity:    input.Quantity,
			Note:        input.Note,
		})
	}
	return s.save(ctx, cart)
}

func (s *service) UpdateItem(ctx context.Context, sessionID string, input UpdateItemInput) (*CartDTO, error) {
	cart, err := s.existing(ctx, sessionID, input.StoreID)
	if err != nil {
		return nil, err
	}
	idx := lineIndex(cart.Items, input.ProductID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	if input.Quantity != nil {
		if *input.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		product, err := s.loadProduct(ctx, input.StoreID, input.ProductID)
		if err != nil {
			return nil, err
		}
		if err := checkout.ValidateStock(checkout.StockShortage{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   *input.Quantity,
			Available:   product.Stock,
		}); err != nil {
			return nil, err
		}
		cart.Items[idx].Quantity = *input.Quantity
	}
	if input.Note != nil {
		cart.Items[idx].Note = input.Note
	}
	return s.save(ctx, cart)
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, input RemoveItemInput) (*CartDTO, error) {
	cart, err := s.existing(ctx, sessionID, input.StoreID)
	if err != nil {
		return nil, err
	}
	idx := lineIndex(cart.Items, input.ProductID)
	if idx < 0 {
		return FromModel(cart), nil
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return s.save(ctx, cart)
}

func (s *service) Clear(ctx context.Context, sessionID string, input ClearInput) (*CartDTO, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storeId is required")
	}
	cart, err := s.repo.Get(ctx, sessionID, input.StoreID)
	if errors.Is(err, ErrCartNotFound) {
		empty := &models.Cart{SessionID: sessionID, StoreID: input.StoreID, Items: types.CartLines{}}
		Recompute(empty)
		return FromModel(empty), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(cart.Items) == 0 {
		return FromModel(cart), nil
	}
	cart.Items = types.CartLines{}
	return s.save(ctx, cart)
}

func (s *service) ensureStore(ctx context.Context, storeID uuid.UUID) error {
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "storeId is required")
	}
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return visibility.EnsureStoreVisible(visibility.StoreVisibilityInput{Store: store})
}

// loadProduct returns the product only when it is sellable from storeID.
func (s *service) loadProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.StoreID != storeID || product.Status != enums.ListingStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) getOrCreate(ctx context.Context, sessionID string, storeID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.Get(ctx, sessionID, storeID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	cart = &models.Cart{SessionID: sessionID, StoreID: storeID, Items: types.CartLines{}}
	Recompute(cart)
	if err := s.repo.Create(ctx, cart); err != nil {
		if !errors.Is(err, ErrCartExists) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
		// lost the race to a concurrent request for the same session
		cart, err = s.repo.Get(ctx, sessionID, storeID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
	}
	return cart, nil
}

func (s *service) existing(ctx context.Context, sessionID string, storeID uuid.UUID) (*models.Cart, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storeId is required")
	}
	cart, err := s.repo.Get(ctx, sessionID, storeID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) save(ctx context.Context, cart *models.Cart) (*CartDTO, error) {
	Recompute(cart)
	if err := s.repo.Save(ctx, cart); err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return FromModel(cart), nil
}

func lineIndex(lines types.CartLines, productID uuid.UUID) int {
	for i := range lines {
		if lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

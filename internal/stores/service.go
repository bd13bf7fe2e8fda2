package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/authz"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
	"github.com/angelmondragon/mercadito-backend/pkg/outbox"
	"github.com/angelmondragon/mercadito-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
	"github.com/angelmondragon/mercadito-backend/pkg/visibility"
)

type storeRepository interface {
	Create(ctx context.Context, store *models.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	List(ctx context.Context, params ListParams) ([]models.Store, int64, error)
	Update(ctx context.Context, store *models.Store) error
	ProductCategoriesInUse(ctx context.Context, storeID uuid.UUID) ([]string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// cascadeDeleter runs the relational part of a store delete inside tx.
type cascadeDeleter func(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (CascadeResult, error)

// CartPurger removes carts kept outside the relational database.
type CartPurger interface {
	DeleteByStore(ctx context.Context, storeID uuid.UUID) (int64, error)
}

// Service exposes store operations.
type Service interface {
	List(ctx context.Context, caller *authz.Caller, params ListParams) ([]StoreDTO, types.Pagination, error)
	GetByID(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*StoreDTO, error)
	Create(ctx context.Context, caller *authz.Caller, input CreateStoreInput) (*StoreDTO, error)
	Update(ctx context.Context, caller *authz.Caller, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, caller *authz.Caller, id uuid.UUID) error
}

// ServiceParams bundles the store service dependencies. Carts is optional
// and only set when carts live outside Postgres.
type ServiceParams struct {
	Repo     *Repository
	TxRunner txRunner
	Outbox   outbox.Emitter
	Carts    CartPurger
	Logger   *logger.Logger
}

type service struct {
	repo    storeRepository
	tx      txRunner
	cascade cascadeDeleter
	outbox  outbox.Emitter
	carts   CartPurger
	logg    *logger.Logger
}

// NewService builds a store service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	repo := params.Repo
	return newService(repo, params.TxRunner, func(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (CascadeResult, error) {
		return repo.WithTx(tx).DeleteCascade(ctx, storeID)
	}, params.Outbox, params.Carts, params.Logger), nil
}

func newService(repo storeRepository, tx txRunner, cascade cascadeDeleter, emitter outbox.Emitter, carts CartPurger, logg *logger.Logger) *service {
	return &service{repo: repo, tx: tx, cascade: cascade, outbox: emitter, carts: carts, logg: logg}
}

func (s *service) List(ctx context.Context, caller *authz.Caller, params ListParams) ([]StoreDTO, types.Pagination, error) {
	params.Params = params.Normalize()
	if category := strings.TrimSpace(params.Category); category != "" {
		parsed, err := enums.ParseStoreCategory(category)
		if err != nil {
			return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category filter")
		}
		params.Category = string(parsed)
	}
	params.IncludeInactive = caller.IsSuperAdmin()

	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, params.Meta(total), nil
}

func (s *service) GetByID(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := visibility.EnsureStoreVisible(visibility.StoreVisibilityInput{Store: store, Caller: caller}); err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) Create(ctx context.Context, caller *authz.Caller, input CreateStoreInput) (*StoreDTO, error) {
	if !caller.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only store administrators can create stores")
	}
	store, err := NewStoreModel(caller.UserID, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return FromModel(store), nil
}

func (s *service) Update(ctx context.Context, caller *authz.Caller, id uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanManageStore(caller, store.OwnerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to manage this store")
	}
	if err := applyUpdate(store, input); err != nil {
		return nil, err
	}
	if input.Categories != nil {
		if err := s.ensureCategoriesCoverProducts(ctx, store); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

// ensureCategoriesCoverProducts keeps every product's category inside the
// store's set after a category replacement.
func (s *service) ensureCategoriesCoverProducts(ctx context.Context, store *models.Store) error {
	inUse, err := s.repo.ProductCategoriesInUse(ctx, store.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product categories")
	}
	var orphaned []string
	for _, category := range inUse {
		if !store.HasCategory(category) {
			orphaned = append(orphaned, category)
		}
	}
	if len(orphaned) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "cannot remove categories still used by products").WithDetails(map[string]any{
		"categories": orphaned,
	})
}

func (s *service) Delete(ctx context.Context, caller *authz.Caller, id uuid.UUID) error {
	store, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanManageStore(caller, store.OwnerID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to manage this store")
	}

	now := time.Now().UTC()
	var result CascadeResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.cascade(ctx, tx, store.ID)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStoreDeleted,
			AggregateType: enums.AggregateStore,
			AggregateID:   store.ID,
			Actor:         &outbox.ActorRef{UserID: caller.UserID, Role: string(caller.Role)},
			OccurredAt:    now,
			Data: payloads.StoreDeletedEvent{
				StoreID:         store.ID,
				OwnerID:         store.OwnerID,
				ProductsDeleted: result.ProductsDeleted,
				CartsDeleted:    result.CartsDeleted,
				DeletedAt:       now,
			},
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}

	if s.carts != nil {
		purged, err := s.carts.DeleteByStore(ctx, store.ID)
		if err != nil {
			s.logg.Error(s.logg.WithStoreID(ctx, store.ID.String()), "store.deleted cart purge failed", err)
		}
		result.CartsDeleted += purged
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"store_id":         store.ID.String(),
		"products_deleted": result.ProductsDeleted,
		"carts_deleted":    result.CartsDeleted,
	})
	s.logg.Info(logCtx, "store.deleted")
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

package visibility

import (
	"github.com/angelmondragon/mercadito-backend/pkg/authz"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
)

// StoreVisibilityInput drives the shared checks for public store reads.
type StoreVisibilityInput struct {
	Store  *models.Store
	Caller *authz.Caller
}

// EnsureStoreVisible hides inactive stores from everyone but their managers.
// Hidden and missing stores are indistinguishable to the caller.
func EnsureStoreVisible(input StoreVisibilityInput) error {
	if input.Store == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	if input.Store.Status == enums.ListingStatusActive {
		return nil
	}
	if authz.CanManageStore(input.Caller, input.Store.OwnerID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
}

// ProductVisibilityInput drives the shared checks for public product reads.
type ProductVisibilityInput struct {
	Store   *models.Store
	Product *models.Product
	Caller  *authz.Caller
}

// EnsureProductVisible applies the same rule to a product, which must also
// belong to the given store.
func EnsureProductVisible(input ProductVisibilityInput) error {
	if input.Store == nil || input.Product == nil || input.Product.StoreID != input.Store.ID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if input.Product.Status == enums.ListingStatusActive {
		return nil
	}
	if authz.CanManageStore(input.Caller, input.Store.OwnerID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

// SeesInactive reports whether listings should include inactive products.
func SeesInactive(caller *authz.Caller, store *models.Store) bool {
	return store != nil && authz.CanManageStore(caller, store.OwnerID)
}

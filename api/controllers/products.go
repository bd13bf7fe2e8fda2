package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/mercadito-backend/api/middleware"
	"github.com/angelmondragon/mercadito-backend/api/responses"
	"github.com/angelmondragon/mercadito-backend/api/validators"
	product "github.com/angelmondragon/mercadito-backend/internal/products"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
)

// ProductList lists a store's catalog. Owners and superadmins also see
// inactive products.
func ProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		storeID, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := product.ListProductsInput{
			Params:   validators.Page(r),
			StoreID:  storeID,
			Category: validators.QueryString(r, "category", maxSearchLen),
			Search:   validators.QueryString(r, "search", maxSearchLen),
		}
		list, page, err := svc.ListProducts(r.Context(), middleware.CallerFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, responses.Page{Items: list, Pagination: page})
	}
}

func ProductGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		storeID, productID, ok := productPath(w, r, logg)
		if !ok {
			return
		}
		dto, err := svc.GetProduct(r.Context(), middleware.CallerFromContext(r.Context()), storeID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		storeID, err := validators.PathUUID(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input product.CreateProductInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.CreateProduct(r.Context(), caller, storeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, dto)
	}
}

func ProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		storeID, productID, ok := productPath(w, r, logg)
		if !ok {
			return
		}

		var input product.UpdateProductInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateProduct(r.Context(), caller, storeID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func ProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		storeID, productID, ok := productPath(w, r, logg)
		if !ok {
			return
		}
		if err := svc.DeleteProduct(r.Context(), caller, storeID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "product deleted"})
	}
}

// ProductToggleStatus flips active and inactive.
func ProductToggleStatus(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		storeID, productID, ok := productPath(w, r, logg)
		if !ok {
			return
		}
		dto, err := svc.ToggleStatus(r.Context(), caller, storeID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func productPath(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (storeID, productID uuid.UUID, ok bool) {
	sid, err := validators.PathUUID(r, "storeId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return storeID, productID, false
	}
	pid, err := validators.PathUUID(r, "productId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return storeID, productID, false
	}
	return sid, pid, true
}

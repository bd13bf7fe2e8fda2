package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/mercadito-backend/api/middleware"
	"github.com/angelmondragon/mercadito-backend/api/responses"
	"github.com/angelmondragon/mercadito-backend/api/validators"
	"github.com/angelmondragon/mercadito-backend/internal/orders"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

// OrderCreate places an order. Anonymous checkout is allowed.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		var input orders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), middleware.CallerFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, result)
	}
}

func OrderAdminList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		filters, err := parseOrderFilters(r, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, page, err := svc.AdminList(r.Context(), caller, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ordersPage{Orders: list, Pagination: page})
	}
}

func OrderAdminGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		id, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.AdminGet(r.Context(), caller, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// OrderUpdateStatus moves an order along pendiente, en_proceso, completado
// or cancelado. Illegal moves surface as 400.
func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		id, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input orders.UpdateStatusInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateStatus(r.Context(), caller, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func OrderUpdatePayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		id, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input orders.UpdatePaymentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdatePaymentStatus(r.Context(), caller, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func OrderStats(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		stats, err := svc.Stats(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// MyOrders lists orders placed with the caller's email.
func MyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		filters, err := parseOrderFilters(r, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, page, err := svc.MyOrders(r.Context(), caller, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ordersPage{Orders: list, Pagination: page})
	}
}

func MyOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "orders")
			return
		}
		caller := requireCaller(w, r, logg)
		if caller == nil {
			return
		}
		id, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.MyOrder(r.Context(), caller, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type ordersPage struct {
	Orders     []orders.OrderDTO `json:"orders"`
	Pagination types.Pagination  `json:"pagination"`
}

func parseOrderFilters(r *http.Request, allowStore bool) (orders.ListFilters, error) {
	filters := orders.ListFilters{Params: validators.Page(r)}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"})
		}
		filters.Status = &status
	}

	date, err := orders.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": "date"})
	}
	filters.Date = date

	if allowStore {
		storeID, err := validators.QueryUUID(r, "storeId")
		if err != nil {
			return filters, err
		}
		filters.StoreID = storeID
	}
	return filters, nil
}

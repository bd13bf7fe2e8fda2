package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	product "github.com/angelmondragon/mercadito-backend/internal/products"
	"github.com/angelmondragon/mercadito-backend/pkg/authz"
	"github.com/angelmondragon/mercadito-backend/pkg/checkout"
	"github.com/angelmondragon/mercadito-backend/pkg/db"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
	"github.com/angelmondragon/mercadito-backend/pkg/metrics"
	"github.com/angelmondragon/mercadito-backend/pkg/outbox"
	"github.com/angelmondragon/mercadito-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
	"github.com/angelmondragon/mercadito-backend/pkg/validation"
	"github.com/angelmondragon/mercadito-backend/pkg/visibility"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storeDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
}

type productCounter interface {
	CountByStores(ctx context.Context, storeIDs []uuid.UUID) (product.ProductCounts, error)
}

// Service exposes order placement and management.
type Service interface {
	Create(ctx context.Context, caller *authz.Caller, input CreateOrderInput) (*CreateOrderResult, error)
	AdminList(ctx context.Context, caller *authz.Caller, filters ListFilters) ([]OrderDTO, types.Pagination, error)
	AdminGet(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, caller *authz.Caller, id uuid.UUID, input UpdateStatusInput) (*OrderDTO, error)
	UpdatePaymentStatus(ctx context.Context, caller *authz.Caller, id uuid.UUID, input UpdatePaymentInput) (*OrderDTO, error)
	MyOrders(ctx context.Context, caller *authz.Caller, filters ListFilters) ([]OrderDTO, types.Pagination, error)
	MyOrder(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*OrderDTO, error)
	Stats(ctx context.Context, caller *authz.Caller) (*StatsDTO, error)
}

// ServiceParams bundles the order service dependencies. Metrics may be nil.
type ServiceParams struct {
	Repo     Repository
	Stores   storeDirectory
	Products productCounter
	TxRunner txRunner
	Outbox   outbox.Emitter
	Numberer OrderNumberer
	Shipping ShippingQuoter
	Metrics  *metrics.OrderMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	stores   storeDirectory
	products productCounter
	tx       txRunner
	outbox   outbox.Emitter
	numberer OrderNumberer
	shipping ShippingQuoter
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Numberer == nil {
		return nil, fmt.Errorf("order numberer required")
	}
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping quoter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		stores:   params.Stores,
		products: params.Products,
		tx:       params.TxRunner,
		outbox:   params.Outbox,
		numberer: params.Numberer,
		shipping: params.Shipping,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, caller *authz.Caller, input CreateOrderInput) (*CreateOrderResult, error) {
	result, err := s.create(ctx, caller, input)
	if err != nil {
		s.metrics.IncRejected(string(pkgerrors.As(err).Code()))
		return nil, err
	}
	s.metrics.IncCreated()
	return result, nil
}

func (s *service) create(ctx context.Context, caller *authz.Caller, input CreateOrderInput) (*CreateOrderResult, error) {
	customer, err := normalizeCustomer(input.Customer)
	if err != nil {
		return nil, err
	}
	if !input.Payment.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be one of efectivo, transferencia, tarjeta")
	}
	if strings.TrimSpace(input.Payment.Details) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment details are required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storeId is required")
	}
	store, err := s.loadStore(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	if err := visibility.EnsureStoreVisible(visibility.StoreVisibilityInput{Store: store}); err != nil {
		return nil, err
	}

	requested := make([]checkout.LineInput, 0, len(input.Items))
	for _, item := range input.Items {
		requested = append(requested, checkout.LineInput{
			ProductID: item.ProductID,
			Name:      strings.TrimSpace(item.Name),
			Quantity:  item.Quantity,
			Note:      item.Note,
		})
	}
	lines, err := checkout.MergeLines(requested)
	if err != nil {
		return nil, err
	}
	clientPrices := make(map[uuid.UUID]decimal.Decimal, len(input.Items))
	for _, item := range input.Items {
		if item.Price != nil {
			clientPrices[item.ProductID] = *item.Price
		}
	}

	now := s.now().UTC()
	number, err := s.numberer.Next(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order number counter unavailable; using timestamp")
		number = fallbackOrderNumber(now)
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		StoreID:         store.ID,
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerPhone:   customer.Phone,
		ShippingAddress: customer.ShippingAddress,
		PaymentMethod:   input.Payment.Method,
		PaymentDetails:  strings.TrimSpace(input.Payment.Details),
		PaymentStatus:   enums.PaymentStatusPendiente,
		Status:          enums.OrderStatusPendiente,
		Notes:           strings.TrimSpace(input.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for i, line := range lines {
			p, err := s.take(ctx, repo, store.ID, line)
			if err != nil {
				return err
			}
			if client, ok := clientPrices[p.ID]; ok && !client.Equal(p.Price) {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"product_id":   p.ID.String(),
					"client_price": client.String(),
					"price":        p.Price.String(),
				}), "order line price differs from catalog; using catalog price")
			}
			items = append(items, models.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  line.Quantity,
				Price:     p.Price,
				Note:      line.Note,
				Position:  i,
			})
			subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		order.Items = items
		order.Subtotal = subtotal.Round(2)
		order.Shipping = s.shipping.Quote(store, order.Subtotal, items).Round(2)
		order.Total = order.Subtotal.Add(order.Shipping)

		if err := repo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order number already used")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorFor(caller),
			Version:       1,
			OccurredAt:    now,
			Data:          orderCreatedPayload(order),
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil, err
	}

	if input.Totals != nil && !input.Totals.Total.Equal(order.Total) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"client_total": input.Totals.Total.String(),
			"total":        order.Total.String(),
		}), "client totals ignored")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"store_id":     order.StoreID.String(),
		"total":        order.Total.String(),
	})
	s.logg.Info(logCtx, "order.created")

	return &CreateOrderResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
		Totals:      Totals{Subtotal: order.Subtotal, Shipping: order.Shipping, Total: order.Total},
	}, nil
}

// take decrements stock for one merged line and returns the product row for
// pricing. A failed decrement is explained by re-reading the product.
func (s *service) take(ctx context.Context, repo Repository, storeID uuid.UUID, line checkout.LineInput) (*models.Product, error) {
	label := line.Name
	if label == "" {
		label = line.ProductID.String()
	}
	ok, err := repo.DecrementStock(ctx, storeID, line.ProductID, line.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	p, err := repo.FindProduct(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %s not found", label)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if ok {
		return p, nil
	}
	if p.StoreID != storeID || p.Status != enums.ListingStatusActive {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %s not found", label)
	}
	return nil, checkout.InsufficientStock(checkout.StockShortage{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   line.Quantity,
		Available:   p.Stock,
	})
}

func (s *service) AdminList(ctx context.Context, caller *authz.Caller, filters ListFilters) ([]OrderDTO, types.Pagination, error) {
	if !caller.IsStaff() {
		return nil, types.Pagination{}, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	storeIDs, err := s.scopeFor(ctx, caller, filters.StoreID)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return s.list(ctx, ListScope{StoreIDs: storeIDs, Filters: filters})
}

func (s *service) AdminGet(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadManaged(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) UpdateStatus(ctx context.Context, caller *authz.Caller, id uuid.UUID, input UpdateStatusInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be one of pendiente, en_proceso, completado, cancelado")
	}
	order, err := s.loadManaged(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	from, to := order.Status, input.Status
	if from != to && !from.CanTransitionTo(to) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "cannot move order from %s to %s", from, to).
			WithDetails(map[string]any{"from": from, "to": to, "allowed": from.NextStatuses()})
	}

	restock := to == enums.OrderStatusCancelado && from != to
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updated, err := repo.UpdateStatus(ctx, order.ID, from, to, input.Notes)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeValidation, "order status changed concurrently")
		}
		if from == to {
			return nil
		}
		if restock {
			for _, item := range order.Items {
				if err := repo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
				}
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorFor(caller),
			Version:       1,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				StoreID:       order.StoreID,
				From:          from,
				To:            to,
				StockRestored: restock,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		return nil, err
	}

	if from != to {
		s.metrics.IncTransition(string(from), string(to))
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":       order.ID.String(),
			"from":           string(from),
			"to":             string(to),
			"stock_restored": restock,
		}), "order.status_changed")
	}
	return s.reload(ctx, order.ID)
}

func (s *service) UpdatePaymentStatus(ctx context.Context, caller *authz.Caller, id uuid.UUID, input UpdatePaymentInput) (*OrderDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment status must be one of pendiente, pagado, rechazado")
	}
	order, err := s.loadManaged(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != input.Status {
		if err := s.repo.UpdatePaymentStatus(ctx, order.ID, input.Status); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
	}
	return s.reload(ctx, order.ID)
}

func (s *service) MyOrders(ctx context.Context, caller *authz.Caller, filters ListFilters) ([]OrderDTO, types.Pagination, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	filters.StoreID = nil
	return s.list(ctx, ListScope{Email: email, Filters: filters})
}

func (s *service) MyOrder(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*OrderDTO, error) {
	email, err := callerEmail(caller)
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if validation.NormalizeEmail(order.CustomerEmail) != email {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
	}
	return FromModel(order), nil
}

func (s *service) Stats(ctx context.Context, caller *authz.Caller) (*StatsDTO, error) {
	if !caller.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	storeIDs, err := s.scopeFor(ctx, caller, nil)
	if err != nil {
		return nil, err
	}
	out := &StatsDTO{Revenue: Revenue{Today: decimal.Zero, Week: decimal.Zero, Month: decimal.Zero}}
	if storeIDs != nil && len(storeIDs) == 0 {
		return out, nil
	}
	counts, err := s.products.CountByStores(ctx, storeIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	stats, err := s.repo.Stats(ctx, storeIDs, WindowsAt(s.now()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order stats")
	}
	out.TotalProducts = counts.Total
	out.ActiveProducts = counts.Active
	out.TotalOrders = stats.Total
	out.PendingOrders = stats.Pending
	out.Revenue = stats.Revenue
	return out, nil
}

// scopeFor resolves which stores a staff caller may read. Nil means all
// stores; an empty slice means none.
func (s *service) scopeFor(ctx context.Context, caller *authz.Caller, requested *uuid.UUID) ([]uuid.UUID, error) {
	if caller.IsSuperAdmin() {
		if requested != nil {
			return []uuid.UUID{*requested}, nil
		}
		return nil, nil
	}
	owned, err := s.stores.FindIDsByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owned stores")
	}
	if owned == nil {
		owned = []uuid.UUID{}
	}
	if requested == nil {
		return owned, nil
	}
	for _, id := range owned {
		if id == *requested {
			return []uuid.UUID{id}, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store does not belong to caller")
}

func (s *service) list(ctx context.Context, scope ListScope) ([]OrderDTO, types.Pagination, error) {
	scope.Filters.Params = scope.Filters.Params.Normalize()
	meta := scope.Filters.Params.Meta(0)
	if scope.StoreIDs != nil && len(scope.StoreIDs) == 0 {
		return []OrderDTO{}, meta, nil
	}
	rows, total, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, scope.Filters.Params.Meta(total), nil
}

// loadManaged returns the order when the caller can manage its store.
// Orders of deleted stores stay visible to superadmins only.
func (s *service) loadManaged(ctx context.Context, caller *authz.Caller, id uuid.UUID) (*models.Order, error) {
	if !caller.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.IsSuperAdmin() {
		return order, nil
	}
	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if !authz.CanManageStore(caller, store.OwnerID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
	}
	return order, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) loadStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.stores.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func normalizeCustomer(in CustomerInput) (CustomerInput, error) {
	out := CustomerInput{
		Name:            strings.TrimSpace(in.Name),
		Email:           validation.NormalizeEmail(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
	}
	switch {
	case out.Name == "":
		return out, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	case out.Email == "":
		return out, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	case out.Phone == "":
		return out, pkgerrors.New(pkgerrors.CodeValidation, "customer phone is required")
	case out.ShippingAddress == "":
		return out, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	return out, nil
}

func callerEmail(caller *authz.Caller) (string, error) {
	if caller == nil || caller.UserID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	email := validation.NormalizeEmail(caller.Email)
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return email, nil
}

func actorFor(caller *authz.Caller) *outbox.ActorRef {
	if caller == nil || caller.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: caller.UserID, Role: string(caller.Role)}
}

func orderCreatedPayload(order *models.Order) payloads.OrderCreatedEvent {
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price})
	}
	return payloads.OrderCreatedEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		StoreID:       order.StoreID,
		CustomerEmail: order.CustomerEmail,
		PaymentMethod: order.PaymentMethod,
		Total:         order.Total,
		Items:         lines,
	}
}

package orders

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "github.com/angelmondragon/mercadito-backend/internal/products"
	"github.com/angelmondragon/mercadito-backend/internal/stores"
	"github.com/angelmondragon/mercadito-backend/pkg/authz"
	"github.com/angelmondragon/mercadito-backend/pkg/db"
	"github.com/angelmondragon/mercadito-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
	"github.com/angelmondragon/mercadito-backend/pkg/outbox"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

type counterNumberer struct {
	n   int64
	err error
}

func (c *counterNumberer) Next(ctx context.Context) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.n++
	return FormatOrderNumber(c.n), nil
}

type orderFixture struct {
	client   *db.Client
	svc      Service
	numberer *counterNumberer
	store    *models.Store
	owner    *authz.Caller
	shirt    *models.Product
	mug      *models.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	client := dbtest.NewSQLite(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	owner := &authz.Caller{UserID: uuid.New(), Email: "owner@example.com", Role: enums.RoleAdmin}
	store := seedStore(t, client, owner.UserID)
	f := &orderFixture{
		client:   client,
		numberer: &counterNumberer{},
		store:    store,
		owner:    owner,
		shirt:    seedProduct(t, client, store.ID, "Camiseta", "12.50", 5),
		mug:      seedProduct(t, client, store.ID, "Taza", "4.00", 1),
	}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(client.DB()),
		Stores:   stores.NewRepository(client.DB()),
		Products: product.NewRepository(client.DB()),
		TxRunner: client,
		Outbox:   outbox.NewService(outbox.NewRepository(client.DB()), logg),
		Numberer: f.numberer,
		Shipping: FlatRateShipping{Fee: decimal.NewFromInt(5), FreeOver: decimal.NewFromInt(100)},
		Logger:   logg,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func seedStore(t *testing.T, client *db.Client, ownerID uuid.UUID) *models.Store {
	t.Helper()
	store := &models.Store{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       "Tienda " + ownerID.String()[:4],
		Phone:      "+5215512345678",
		Categories: []string{"Ropa", "Hogar"},
		Images:     []string{},
		Schedule:   types.Schedule{},
		Location:   types.StoreLocation{Alias: "centro", GoogleMapsURL: "https://maps.google.com/?q=1"},
		Status:     enums.ListingStatusActive,
	}
	require.NoError(t, client.DB().Create(store).Error)
	return store
}

func seedProduct(t *testing.T, client *db.Client, storeID uuid.UUID, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:       uuid.New(),
		StoreID:  storeID,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Images:   []string{"https://img.example/" + name + ".png"},
		Category: "Ropa",
		Status:   enums.ListingStatusActive,
	}
	require.NoError(t, client.DB().Create(p).Error)
	return p
}

func (f *orderFixture) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.client.DB().First(&p, "id = ?", id).Error)
	return p.Stock
}

func (f *orderFixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.client.DB().Model(model).Count(&n).Error)
	return n
}

func (f *orderFixture) input(items ...ItemInput) CreateOrderInput {
	return CreateOrderInput{
		StoreID: f.store.ID,
		Customer: CustomerInput{
			Name:            "Ana López",
			Email:           "  Ana@Example.com ",
			Phone:           "+5215598765432",
			ShippingAddress: "Calle 1 #23",
		},
		Items:   items,
		Payment: PaymentInput{Method: enums.PaymentMethodEfectivo, Details: "pago contra entrega"},
	}
}

func TestCreateOrderInsufficientStockLeavesStockUntouched(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, nil, f.input(
		ItemInput{ProductID: f.shirt.ID, Quantity: 2},
		ItemInput{ProductID: f.mug.ID, Quantity: 3},
	))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Contains(t, typed.Message(), "Taza")

	assert.Equal(t, 5, f.stockOf(t, f.shirt.ID))
	assert.Equal(t, 1, f.stockOf(t, f.mug.ID))
	assert.EqualValues(t, 0, f.count(t, &models.Order{}))
	assert.EqualValues(t, 0, f.count(t, &models.OrderItem{}))
	assert.EqualValues(t, 0, f.count(t, &models.OutboxEvent{}))
}

func TestCreateOrderDecrementsExactlyAndPricesFromCatalog(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	bogus := decimal.NewFromInt(1)

	sinCaja, envolver := "sin caja", "envolver"
	in := f.input(
		ItemInput{ProductID: f.shirt.ID, Quantity: 2, Price: &bogus, Note: &sinCaja},
		ItemInput{ProductID: f.mug.ID, Quantity: 1},
		ItemInput{ProductID: f.shirt.ID, Quantity: 1, Note: &envolver},
	)
	in.Totals = &TotalsInput{Total: decimal.NewFromInt(3)}
	res, err := f.svc.Create(ctx, nil, in)
	require.NoError(t, err)

	assert.Equal(t, "#000001", res.OrderNumber)
	assert.Equal(t, enums.OrderStatusPendiente, res.Status)
	assert.True(t, res.Totals.Subtotal.Equal(decimal.RequireFromString("41.50")), res.Totals.Subtotal.String())
	assert.True(t, res.Totals.Shipping.Equal(decimal.NewFromInt(5)))
	assert.True(t, res.Totals.Total.Equal(decimal.RequireFromString("46.50")))

	assert.Equal(t, 2, f.stockOf(t, f.shirt.ID))
	assert.Equal(t, 0, f.stockOf(t, f.mug.ID))
	assert.EqualValues(t, 1, f.count(t, &models.OutboxEvent{}))

	order, err := f.svc.AdminGet(ctx, f.owner, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", order.Customer.Email)
	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		if item.ProductID == f.shirt.ID {
			assert.Equal(t, 3, item.Quantity)
			assert.True(t, item.Price.Equal(decimal.RequireFromString("12.50")))
			require.NotNil(t, item.Note)
			assert.Equal(t, "sin caja; envolver", *item.Note)
		}
	}
}

func TestCreateOrderRequiresPaymentDetails(t *testing.T) {
	f := newOrderFixture(t)
	in := f.input(ItemInput{ProductID: f.shirt.ID, Quantity: 1})
	in.Payment.Details = "   "

	_, err := f.svc.Create(context.Background(), nil, in)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	assert.Equal(t, 5, f.stockOf(t, f.shirt.ID))
	assert.EqualValues(t, 0, f.count(t, &models.Order{}))
}

func TestCreateOrderRejectsForeignAndUnknownProducts(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	other := seedStore(t, f.client, uuid.New())
	foreign := seedProduct(t, f.client, other.ID, "Ajena", "1.00", 10)

	_, err := f.svc.Create(ctx, nil, f.input(ItemInput{ProductID: foreign.ID, Quantity: 1}))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	assert.Equal(t, 10, f.stockOf(t, foreign.ID))

	_, err = f.svc.Create(ctx, nil, f.input(ItemInput{ProductID: uuid.New(), Name: "Fantasma", Quantity: 1}))
	require.Error(t, err)
	assert.Contains(t, pkgerrors.As(err).Message(), "Fantasma")

	_, err = f.svc.Create(ctx, nil, f.input())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateOrderFallsBackWhenCounterFails(t *testing.T) {
	f := newOrderFixture(t)
	f.numberer.err = fmt.Errorf("redis down")

	res, err := f.svc.Create(context.Background(), nil, f.input(ItemInput{ProductID: f.shirt.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.Regexp(t, `^#\d{13}$`, res.OrderNumber)
}

func TestCreateOrderRequiresActiveStore(t *testing.T) {
	f := newOrderFixture(t)
	require.NoError(t, f.client.DB().Model(&models.Store{}).Where("id = ?", f.store.ID).Update("status", enums.ListingStatusInactive).Error)

	_, err := f.svc.Create(context.Background(), nil, f.input(ItemInput{ProductID: f.shirt.ID, Quantity: 1}))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestUpdateStatusFollowsLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, nil, f.input(ItemInput{ProductID: f.shirt.ID, Quantity: 3}))
	require.NoError(t, err)
	require.Equal(t, 2, f.stockOf(t, f.shirt.ID))

	_, err = f.svc.UpdateStatus(ctx, f.owner, res.OrderID, UpdateStatusInput{Status: enums.OrderStatusCompletado})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	note := "llamar antes"
	order, err := f.svc.UpdateStatus(ctx, f.owner, res.OrderID, UpdateStatusInput{Status: enums.OrderStatusPendiente, Notes: &note})
	require.NoError(t, err)
	assert.Equal(t, note, order.Notes)

	order, err = f.svc.UpdateStatus(ctx, f.owner, res.OrderID, UpdateStatusInput{Status: enums.OrderStatusCancelado})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelado, order.Status)
	assert.Equal(t, 5, f.stockOf(t, f.shirt.ID))
	assert.EqualValues(t, 2, f.count(t, &models.OutboxEvent{}))

	_, err = f.svc.UpdateStatus(ctx, f.owner, res.OrderID, UpdateStatusInput{Status: enums.OrderStatusEnProceso})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAdminScopeAndOwnership(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, nil, f.input(ItemInput{ProductID: f.shirt.ID, Quantity: 1}))
	require.NoError(t, err)

	stranger := &authz.Caller{UserID: uuid.New(), Role: enums.RoleAdmin}
	_, err = f.svc.AdminGet(ctx, stranger, res.OrderID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateStatus(ctx, stranger, res.OrderID, UpdateStatusInput{Status: enums.OrderStatusEnProceso})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.AdminGet(ctx, f.owner, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	rows, page, err := f.svc.AdminList(ctx, stranger, ListFilters{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.EqualValues(t, 0, page.Total)

	rows, page, err = f.svc.AdminList(ctx, f.owner, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 10, page.Limit)

	pending := enums.OrderStatusCompletado
	rows, _, err = f.svc.AdminList(ctx, f.owner, ListFilters{Status: &pending})
	require.NoError(t, err)
	assert.Empty(t, rows)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	rows, _, err = f.svc.AdminList(ctx, f.owner, ListFilters{Date: &today})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	super := &authz.Caller{UserID: uuid.New(), Role: enums.RoleSuperAdmin}
	rows, _, err = f.svc.AdminList(ctx, super, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	client := &authz.Caller{UserID: uuid.New(), Role: enums.RoleClient}
	_, _, err = f.svc.AdminList(ctx, client, ListFilters{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestMyOrdersMatchEmailCaseInsensitively(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, nil, f.input(ItemInput{ProductID: f.shirt.ID, Quantity: 1}))
	require.NoError(t, err)

	ana := &authz.Caller{UserID: uuid.New(), Email: "ANA@example.com", Role: enums.RoleClient}
	rows, _, err := f.svc.MyOrders(ctx, ana, ListFilters{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = f.svc.MyOrder(ctx, ana, res.OrderID)
	require.NoError(t, err)

	bob := &authz.Caller{UserID: uuid.New(), Email: "bob@example.com", Role: enums.RoleClient}
	_, err = f.svc.MyOrder(ctx, bob, res.OrderID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, _, err = f.svc.MyOrders(ctx, nil, ListFilters{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestStatsScopedToOwnedStores(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	first, err := f.svc.Create(ctx, nil, f.input(ItemInput{ProductID: f.shirt.ID, Quantity: 2}))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, nil, f.input(ItemInput{ProductID: f.mug.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.owner, second.OrderID, UpdateStatusInput{Status: enums.OrderStatusCancelado})
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalProducts)
	assert.EqualValues(t, 2, stats.ActiveProducts)
	assert.EqualValues(t, 2, stats.TotalOrders)
	assert.EqualValues(t, 1, stats.PendingOrders)
	assert.True(t, stats.Revenue.Today.Equal(first.Totals.Total), stats.Revenue.Today.String())
	assert.True(t, stats.Revenue.Month.Equal(first.Totals.Total))

	empty, err := f.svc.Stats(ctx, &authz.Caller{UserID: uuid.New(), Role: enums.RoleAdmin})
	require.NoError(t, err)
	assert.EqualValues(t, 0, empty.TotalOrders)
	assert.True(t, empty.Revenue.Week.IsZero())
}

func TestPaymentStatusUpdate(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, nil, f.input(ItemInput{ProductID: f.shirt.ID, Quantity: 1}))
	require.NoError(t, err)

	order, err := f.svc.UpdatePaymentStatus(ctx, f.owner, res.OrderID, UpdatePaymentInput{Status: enums.PaymentStatusPagado})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPagado, order.Payment.Status)

	_, err = f.svc.UpdatePaymentStatus(ctx, f.owner, res.OrderID, UpdatePaymentInput{Status: "bogus"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

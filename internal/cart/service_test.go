package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
)

type memoryRepo struct {
	carts      map[string]*models.Cart
	createErr  error
	saves      int
	raceWinner *models.Cart
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{carts: map[string]*models.Cart{}}
}

func cartKey(sessionID string, storeID uuid.UUID) string {
	return sessionID + "|" + storeID.String()
}

func (m *memoryRepo) Get(ctx context.Context, sessionID string, storeID uuid.UUID) (*models.Cart, error) {
	cart, ok := m.carts[cartKey(sessionID, storeID)]
	if !ok {
		return nil, ErrCartNotFound
	}
	cp := *cart
	cp.Items = append(cp.Items[:0:0], cart.Items...)
	return &cp, nil
}

func (m *memoryRepo) Create(ctx context.Context, cart *models.Cart) error {
	if m.raceWinner != nil {
		m.carts[cartKey(m.raceWinner.SessionID, m.raceWinner.StoreID)] = m.raceWinner
		m.raceWinner = nil
		return ErrCartExists
	}
	if m.createErr != nil {
		return m.createErr
	}
	cart.ID = uuid.New()
	cp := *cart
	m.carts[cartKey(cart.SessionID, cart.StoreID)] = &cp
	return nil
}

func (m *memoryRepo) Save(ctx context.Context, cart *models.Cart) error {
	m.saves++
	key := cartKey(cart.SessionID, cart.StoreID)
	if _, ok := m.carts[key]; !ok {
		return ErrCartNotFound
	}
	cp := *cart
	cp.Items = append(cp.Items[:0:0], cart.Items...)
	m.carts[key] = &cp
	return nil
}

func (m *memoryRepo) DeleteByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	return 0, nil
}

func (m *memoryRepo) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubStores struct{ store *models.Store }

func (s stubStores) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if s.store == nil || s.store.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.store, nil
}

type stubProducts struct{ products map[uuid.UUID]*models.Product }

func (s stubProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

type cartFixture struct {
	svc     Service
	repo    *memoryRepo
	store   *models.Store
	product *models.Product
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	store := &models.Store{ID: uuid.New(), OwnerID: uuid.New(), Status: enums.ListingStatusActive}
	product := &models.Product{
		ID:          uuid.New(),
		StoreID:     store.ID,
		Name:        "Camiseta",
		Description: "algodón",
		Price:       decimal.RequireFromString("10.00"),
		Stock:       5,
		Images:      []string{"https://img.example/1.png", "https://img.example/2.png"},
		Status:      enums.ListingStatusActive,
	}
	repo := newMemoryRepo()
	svc, err := NewService(repo, stubStores{store: store}, stubProducts{products: map[uuid.UUID]*models.Product{product.ID: product}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &cartFixture{svc: svc, repo: repo, store: store, product: product}
}

func TestAddItemTwiceMergesLine(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.product.ID, StoreID: f.store.ID, Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	note := "talla M"
	dto, err := f.svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.product.ID, StoreID: f.store.ID, Quantity: 3, Note: &note})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("expected one line got %d", len(dto.Items))
	}
	line := dto.Items[0]
	if line.Quantity != 5 || line.Note == nil || *line.Note != note {
		t.Fatalf("unexpected line %+v", line)
	}
	if line.Image != "https://img.example/1.png" {
		t.Fatalf("expected first image snapshot got %s", line.Image)
	}
	if dto.TotalItems != 5 || !dto.Subtotal.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("unexpected totals %d %s", dto.TotalItems, dto.Subtotal)
	}
}

func TestAddItemChecksRequestedQuantityOnly(t *testing.T) {
	f := newCartFixture(t)
	f.product.Stock = 4
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.product.ID, StoreID: f.store.ID, Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	dto, err := f.svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.product.ID, StoreID: f.store.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if dto.Items[0].Quantity != 5 {
		t.Fatalf("expected merged qty 5 got %d", dto.Items[0].Quantity)
	}

	_, err = f.svc.AddItem(ctx, "s2", AddItemInput{ProductID: f.product.ID, StoreID: f.store.ID, Quantity: 5})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock got %v", err)
	}
	if cart, err := f.repo.Get(ctx, "s2", f.store.ID); err == nil && len(cart.Items) != 0 {
		t.Fatalf("rejected add must not leave a line behind, got %+v", cart.Items)
	}
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	f := newCartFixture(t)
	dto, err := f.svc.AddItem(context.Background(), "s1", AddItemInput{ProductID: f.product.ID, StoreID: f.store.ID})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if dto.TotalItems != 1 {
		t.Fatalf("expected one item got %d", dto.TotalItems)
	}
}

func TestAddItemHidesUnsellableProducts(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "s1", AddItemInput{ProductID: uuid.New(), StoreID: f.store.ID})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for missing product got %v", err)
	}

	f.product.Status = enums.ListingStatusInactive
	_, err = f.svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.product.ID, StoreID: f.store.ID})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for inactive product got %v", err)
	}

	f.product.Status = enums.ListingStatusActive
	f.product.StoreID = uuid.New()
	_, err = f.svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.product.ID, StoreID: f.store.ID})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign product got %v", err)
	}
}

func TestGetCreatesCartOnceAndRequiresStore(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	first, err := f.svc.Get(ctx, "s1", f.store.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := f.svc.Get(ctx, "s1", f.store.ID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same cart")
	}
	if _, err := f.svc.Get(ctx, "s1", uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected store not found got %v", err)
	}
}

func TestGetRereadsAfterConcurrentCreate(t *testing.T) {
	f := newCartFixture(t)
	winner := &models.Cart{ID: uuid.New(), SessionID: "s1", StoreID: f.store.ID}
	f.repo.raceWinner = winner

	dto, err := f.svc.Get(context.Background(), "s1", f.store.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.ID != winner.ID {
		t.Fatalf("expected the concurrently created cart")
	}
}

func TestUpdateRemoveAndClear(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	empty, err := f.svc.Clear(ctx, "fresh", ClearInput{StoreID: f.store.ID})
	if err != nil {
		t.Fatalf("clear without cart: %v", err)
	}
	if len(empty.Items) != 0 || empty.TotalItems != 0 || !empty.Subtotal.IsZero() || empty.StoreID != f.store.ID {
		t.Fatalf("expected empty cart got %+v", empty)
	}
	if _, err := f.svc.Clear(ctx, "fresh", ClearInput{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error without store got %v", err)
	}

	if _, err := f.svc.UpdateItem(ctx, "s1", UpdateItemInput{ProductID: f.product.ID, StoreID: f.store.ID}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected missing cart 404 got %v", err)
	}
	if _, err := f.svc.AddItem(ctx, "s1", AddItemInput{ProductID: f.product.ID, StoreID: f.store.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}

	tooMany := 9
	if _, err := f.svc.UpdateItem(ctx, "s1", UpdateItemInput{ProductID: f.product.ID, StoreID: f.store.ID, Quantity: &tooMany}); !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock got %v", err)
	}
	qty := 3
	dto, err := f.svc.UpdateItem(ctx, "s1", UpdateItemInput{ProductID: f.product.ID, StoreID: f.store.ID, Quantity: &qty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.TotalItems != 3 || !dto.Subtotal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected totals %d %s", dto.TotalItems, dto.Subtotal)
	}
	if _, err := f.svc.UpdateItem(ctx, "s1", UpdateItemInput{ProductID: uuid.New(), StoreID: f.store.ID, Quantity: &qty}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected missing line 404 got %v", err)
	}

	dto, err = f.svc.RemoveItem(ctx, "s1", RemoveItemInput{ProductID: f.product.ID, StoreID: f.store.ID})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(dto.Items) != 0 || dto.TotalItems != 0 || !dto.Subtotal.IsZero() {
		t.Fatalf("expected empty cart got %+v", dto)
	}

	if _, err := f.svc.Clear(ctx, "s1", ClearInput{StoreID: f.store.ID}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := f.svc.Clear(ctx, "s1", ClearInput{StoreID: f.store.ID}); err != nil {
		t.Fatalf("clear must be idempotent: %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, stubStores{}, stubProducts{}); err == nil {
		t.Fatal("expected error for nil repo")
	}
}

package stores

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/authz"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
	"github.com/angelmondragon/mercadito-backend/pkg/outbox"
	"github.com/angelmondragon/mercadito-backend/pkg/outbox/payloads"
)

type stubStoreRepo struct {
	store      *models.Store
	err        error
	inUse      []string
	updates    int
	lastParams ListParams
}

func (s *stubStoreRepo) Create(ctx context.Context, store *models.Store) error {
	s.store = store
	return nil
}

func (s *stubStoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.store == nil || s.store.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s.store
	return &cp, nil
}

func (s *stubStoreRepo) List(ctx context.Context, params ListParams) ([]models.Store, int64, error) {
	s.lastParams = params
	if s.store == nil {
		return nil, 0, nil
	}
	return []models.Store{*s.store}, 1, nil
}

func (s *stubStoreRepo) Update(ctx context.Context, store *models.Store) error {
	s.updates++
	cp := *store
	s.store = &cp
	return nil
}

func (s *stubStoreRepo) ProductCategoriesInUse(ctx context.Context, storeID uuid.UUID) ([]string, error) {
	return s.inUse, nil
}

type stubTx struct{ calls int }

func (s *stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(nil)
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubPurger struct {
	deleted int64
	calls   int
}

func (s *stubPurger) DeleteByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	s.calls++
	return s.deleted, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "stores-test", Output: io.Discard})
}

func baseStore() *models.Store {
	store, err := NewStoreModel(uuid.New(), validCreateInput())
	if err != nil {
		panic(err)
	}
	return store
}

func ownerOf(store *models.Store) *authz.Caller {
	return &authz.Caller{UserID: store.OwnerID, Role: enums.RoleAdmin}
}

type fixture struct {
	svc     *service
	repo    *stubStoreRepo
	tx      *stubTx
	emitter *stubEmitter
	purger  *stubPurger
	cascade int
}

func newFixture(store *models.Store) *fixture {
	f := &fixture{
		repo:    &stubStoreRepo{store: store},
		tx:      &stubTx{},
		emitter: &stubEmitter{},
		purger:  &stubPurger{},
	}
	cascade := func(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (CascadeResult, error) {
		f.cascade++
		return CascadeResult{ProductsDeleted: 3, CartsDeleted: 1}, nil
	}
	f.svc = newService(f.repo, f.tx, cascade, f.emitter, f.purger, testLogger())
	return f
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error creating service without repo")
	}
}

func TestServiceGetByIDNotFound(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.GetByID(context.Background(), nil, uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceGetByIDDependencyError(t *testing.T) {
	f := newFixture(nil)
	f.repo.err = errors.New("boom")
	_, err := f.svc.GetByID(context.Background(), nil, uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceGetByIDHidesInactiveFromPublic(t *testing.T) {
	store := baseStore()
	store.Status = enums.ListingStatusInactive
	f := newFixture(store)

	if _, err := f.svc.GetByID(context.Background(), nil, store.ID); pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.svc.GetByID(context.Background(), ownerOf(store), store.ID); err != nil {
		t.Fatalf("owner should see inactive store: %v", err)
	}
}

func TestServiceUpdateNonOwnerForbidden(t *testing.T) {
	store := baseStore()
	f := newFixture(store)
	stranger := &authz.Caller{UserID: uuid.New(), Role: enums.RoleAdmin}
	name := "Robada"

	_, err := f.svc.Update(context.Background(), stranger, store.ID, UpdateStoreInput{Name: &name})
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.repo.updates != 0 || f.repo.store.Name != "La Esquina" {
		t.Fatal("store changed despite forbidden update")
	}
}

func TestServiceUpdateSuperAdminAllowed(t *testing.T) {
	store := baseStore()
	f := newFixture(store)
	super := &authz.Caller{UserID: uuid.New(), Role: enums.RoleSuperAdmin}
	name := "Renovada"

	dto, err := f.svc.Update(context.Background(), super, store.ID, UpdateStoreInput{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Name != name || f.repo.updates != 1 {
		t.Fatalf("update not applied: %+v", dto)
	}
}

func TestServiceUpdateRejectsPartialSchedule(t *testing.T) {
	store := baseStore()
	f := newFixture(store)
	partial := fullSchedule()[:5]

	_, err := f.svc.Update(context.Background(), ownerOf(store), store.ID, UpdateStoreInput{Schedule: &partial})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.repo.updates != 0 {
		t.Fatal("schedule persisted despite validation failure")
	}
}

func TestServiceUpdateRejectsRemovingCategoryInUse(t *testing.T) {
	store := baseStore()
	store.Categories = []string{"Restaurante", "Otros"}
	f := newFixture(store)
	f.repo.inUse = []string{"Otros"}
	next := []string{"Restaurante"}

	_, err := f.svc.Update(context.Background(), ownerOf(store), store.ID, UpdateStoreInput{Categories: &next})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.repo.updates != 0 {
		t.Fatal("categories persisted despite products still using them")
	}
}

func TestServiceCreateRequiresStaff(t *testing.T) {
	f := newFixture(nil)
	client := &authz.Caller{UserID: uuid.New(), Role: enums.RoleClient}
	if _, err := f.svc.Create(context.Background(), client, validCreateInput()); pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	admin := &authz.Caller{UserID: uuid.New(), Role: enums.RoleAdmin}
	dto, err := f.svc.Create(context.Background(), admin, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.OwnerID != admin.UserID {
		t.Fatalf("expected owner %s got %s", admin.UserID, dto.OwnerID)
	}
}

func TestServiceDeleteCascadesAndEmits(t *testing.T) {
	store := baseStore()
	f := newFixture(store)
	f.purger.deleted = 2

	if err := f.svc.Delete(context.Background(), ownerOf(store), store.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.tx.calls != 1 || f.cascade != 1 {
		t.Fatalf("expected one transactional cascade, tx=%d cascade=%d", f.tx.calls, f.cascade)
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventStoreDeleted {
		t.Fatalf("expected store_deleted event, got %+v", f.emitter.events)
	}
	data, ok := f.emitter.events[0].Data.(payloads.StoreDeletedEvent)
	if !ok || data.ProductsDeleted != 3 {
		t.Fatalf("unexpected payload %#v", f.emitter.events[0].Data)
	}
	if f.purger.calls != 1 {
		t.Fatal("expected external carts purged")
	}
}

func TestServiceDeleteForbidden(t *testing.T) {
	store := baseStore()
	f := newFixture(store)
	err := f.svc.Delete(context.Background(), &authz.Caller{UserID: uuid.New(), Role: enums.RoleAdmin}, store.ID)
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.tx.calls != 0 {
		t.Fatal("transaction opened for forbidden delete")
	}
}

func TestServiceListScopesInactive(t *testing.T) {
	f := newFixture(baseStore())
	if _, _, err := f.svc.List(context.Background(), nil, ListParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.repo.lastParams.IncludeInactive {
		t.Fatal("anonymous listing must exclude inactive stores")
	}
	super := &authz.Caller{UserID: uuid.New(), Role: enums.RoleSuperAdmin}
	if _, _, err := f.svc.List(context.Background(), super, ListParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.repo.lastParams.IncludeInactive {
		t.Fatal("superadmin listing should include inactive stores")
	}

	_, _, err := f.svc.List(context.Background(), nil, ListParams{Category: "Juguetes"})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad category, got %v", err)
	}
}

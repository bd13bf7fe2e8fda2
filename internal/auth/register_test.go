package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/internal/stores"
	"github.com/angelmondragon/mercadito-backend/internal/users"
	"github.com/angelmondragon/mercadito-backend/pkg/config"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

func TestRegisterClientIssuesToken(t *testing.T) {
	userRepo := &stubRegisterUserRepo{}
	sessions := &stubSessions{}
	svc := newRegisterService(t, userRepo, &stubRegisterStoreRepo{}, sessions)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Ana",
		Email:    " Ana@Example.com ",
		Password: "secret1",
		Phone:    "+5215512345678",
		Location: &users.LocationInput{Alias: "Casa", GoogleMapsURL: "https://maps.google.com/?q=casa"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected token")
	}
	if resp.User.Email != "ana@example.com" || resp.User.Role != enums.RoleClient {
		t.Fatalf("unexpected user %+v", resp.User)
	}
	if resp.Store != nil {
		t.Fatalf("client should not get a store")
	}
	if len(sessions.created) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions.created))
	}
	if userRepo.created.PasswordHash == "secret1" || userRepo.created.PasswordHash == "" {
		t.Fatalf("password must be hashed")
	}
}

func TestRegisterAdminCreatesStore(t *testing.T) {
	storeRepo := &stubRegisterStoreRepo{}
	svc := newRegisterService(t, &stubRegisterUserRepo{}, storeRepo, &stubSessions{})

	input := registerStoreInput()
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:      "Luis",
		Email:     "luis@example.com",
		Password:  "secret1",
		Phone:     "+5215512345678",
		Role:      enums.RoleAdmin,
		Locations: []users.LocationInput{{Alias: "Tienda", GoogleMapsURL: "https://maps.google.com/?q=t", IsDefault: true}},
		Store:     &input,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storeRepo.created == nil {
		t.Fatal("expected store to be created")
	}
	if storeRepo.created.OwnerID != resp.User.ID {
		t.Fatalf("store owner mismatch")
	}
	if resp.Store == nil || resp.Store.Name != "La Esquina" {
		t.Fatalf("unexpected store %+v", resp.Store)
	}
}

func TestRegisterValidation(t *testing.T) {
	base := func() RegisterRequest {
		return RegisterRequest{
			Name:     "Ana",
			Email:    "ana@example.com",
			Password: "secret1",
			Phone:    "+5215512345678",
			Location: &users.LocationInput{Alias: "Casa", GoogleMapsURL: "https://maps.google.com/?q=casa"},
		}
	}
	cases := map[string]func(r *RegisterRequest){
		"short password":      func(r *RegisterRequest) { r.Password = "12345" },
		"bad phone":           func(r *RegisterRequest) { r.Phone = "5512345678" },
		"superadmin":          func(r *RegisterRequest) { r.Role = enums.RoleSuperAdmin },
		"admin without store": func(r *RegisterRequest) { r.Role = enums.RoleAdmin },
		"no location":         func(r *RegisterRequest) { r.Location = nil },
		"blank name":          func(r *RegisterRequest) { r.Name = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newRegisterService(t, &stubRegisterUserRepo{}, &stubRegisterStoreRepo{}, &stubSessions{})
			req := base()
			mutate(&req)
			_, err := svc.Register(context.Background(), req)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	userRepo := &stubRegisterUserRepo{existing: &models.User{ID: uuid.New(), Email: "ana@example.com"}}
	sessions := &stubSessions{}
	svc := newRegisterService(t, userRepo, &stubRegisterStoreRepo{}, sessions)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Ana",
		Email:    "ANA@example.com",
		Password: "secret1",
		Phone:    "+5215512345678",
		Location: &users.LocationInput{Alias: "Casa", GoogleMapsURL: "https://maps.google.com/?q=casa"},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(sessions.created) != 0 {
		t.Fatalf("no session expected on failure")
	}
}

func TestRegisterAdminInvalidStoreAborts(t *testing.T) {
	storeRepo := &stubRegisterStoreRepo{}
	sessions := &stubSessions{}
	svc := newRegisterService(t, &stubRegisterUserRepo{}, storeRepo, sessions)

	input := registerStoreInput()
	input.Schedule = input.Schedule[:3]
	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Luis",
		Email:    "luis@example.com",
		Password: "secret1",
		Phone:    "+5215512345678",
		Role:     enums.RoleAdmin,
		Location: &users.LocationInput{Alias: "Tienda", GoogleMapsURL: "https://maps.google.com/?q=t"},
		Store:    &input,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if storeRepo.created != nil || len(sessions.created) != 0 {
		t.Fatalf("nothing should be persisted")
	}
}

func newRegisterService(t *testing.T, userRepo *stubRegisterUserRepo, storeRepo *stubRegisterStoreRepo, sessions *stubSessions) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		StoreRepoFactory: func(tx *gorm.DB) registerStoreRepository {
			return storeRepo
		},
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc
}

func registerStoreInput() stores.CreateStoreInput {
	schedule := make(types.Schedule, 0, 7)
	for _, day := range enums.Weekdays() {
		schedule = append(schedule, types.ScheduleEntry{Day: day, Open: "09:00", Close: "18:00", IsOpen: true})
	}
	return stores.CreateStoreInput{
		Name:       "La Esquina",
		Phone:      "+5215512345678",
		Categories: []string{"Restaurante"},
		Schedule:   schedule,
		Location:   types.StoreLocation{Alias: "Centro", GoogleMapsURL: "https://maps.google.com/?q=centro"},
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "mercadito-test", ExpirationMinutes: 60}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterUserRepo struct {
	existing *models.User
	created  *models.User
}

func (s *stubRegisterUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.existing != nil && s.existing.Email == email {
		return s.existing, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user, err := dto.ToModel()
	if err != nil {
		return nil, err
	}
	user.CreatedAt = time.Now()
	s.created = user
	return user, nil
}

type stubRegisterStoreRepo struct {
	created *models.Store
}

func (s *stubRegisterStoreRepo) Create(ctx context.Context, store *models.Store) error {
	s.created = store
	return nil
}

type stubSessions struct {
	created []string
	revoked []string
}

func (s *stubSessions) Create(ctx context.Context, accessID string, userID uuid.UUID) error {
	s.created = append(s.created, accessID)
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

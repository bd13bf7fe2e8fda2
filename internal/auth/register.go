package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/internal/stores"
	"github.com/angelmondragon/mercadito-backend/internal/users"
	"github.com/angelmondragon/mercadito-backend/pkg/config"
	"github.com/angelmondragon/mercadito-backend/pkg/db"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/security"
	"github.com/angelmondragon/mercadito-backend/pkg/validation"
)

// RegisterService handles the signup transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type registerStoreRepository interface {
	Create(ctx context.Context, store *models.Store) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	TxRunner         txRunner
	UserRepoFactory  func(tx *gorm.DB) registerUserRepository
	StoreRepoFactory func(tx *gorm.DB) registerStoreRepository
	SessionManager   sessionManager
	JWTConfig        config.JWTConfig
	PasswordConfig   config.PasswordConfig
}

type registerService struct {
	tx          txRunner
	userRepo    func(tx *gorm.DB) registerUserRepository
	storeRepo   func(tx *gorm.DB) registerStoreRepository
	tokens      tokenIssuer
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.UserRepoFactory == nil || params.StoreRepoFactory == nil {
		return nil, fmt.Errorf("repository factories required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepo:    params.UserRepoFactory,
		storeRepo:   params.StoreRepoFactory,
		tokens:      tokenIssuer{sessions: params.SessionManager, jwtCfg: params.JWTConfig},
		passwordCfg: params.PasswordConfig,
	}, nil
}

// NewRegisterServiceFromDB wires the registration flow against the real
// user and store repositories.
func NewRegisterServiceFromDB(client *db.Client, sessions sessionManager, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (RegisterService, error) {
	if client == nil {
		return nil, fmt.Errorf("database client required")
	}
	return NewRegisterService(RegisterServiceParams{
		TxRunner: client,
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		},
		StoreRepoFactory: func(tx *gorm.DB) registerStoreRepository {
			return stores.NewRepository(tx)
		},
		SessionManager: sessions,
		JWTConfig:      jwtCfg,
		PasswordConfig: passwordCfg,
	})
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := validation.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(req.Password) < security.MinPasswordLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "password must be at least %d characters", security.MinPasswordLength)
	}
	phone := strings.TrimSpace(req.Phone)
	if !validation.IsE164Phone(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be in international format")
	}
	role := req.Role
	if role == "" {
		role = enums.RoleClient
	}
	if !role.SelfAssignable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be client or admin")
	}
	if role == enums.RoleAdmin && req.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store is required for admin accounts")
	}
	locations := req.Locations
	if len(locations) == 0 && req.Location != nil {
		locations = []users.LocationInput{*req.Location}
	}
	if len(locations) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one location is required")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	var store *models.Store
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepo(tx)
		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Phone:        phone,
			Role:         role,
			Locations:    locations,
		})
		if err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeValidation, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		user = created

		if role != enums.RoleAdmin {
			return nil
		}
		store, err = stores.NewStoreModel(user.ID, *req.Store)
		if err != nil {
			return err
		}
		if err := s.storeRepo(tx).Create(ctx, store); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register")
		}
		return nil, err
	}

	token, err := s.tokens.issue(ctx, user, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: users.FromModel(user), Store: stores.FromModel(store)}, nil
}

package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/pkg/config"
	"github.com/angelmondragon/mercadito-backend/pkg/db"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/security"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
	"github.com/angelmondragon/mercadito-backend/pkg/validation"
)

// Service covers self-service profile and location management plus the
// platform-admin user directory.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*UserDTO, error)

	AddLocation(ctx context.Context, id uuid.UUID, in LocationInput) (*UserDTO, error)
	UpdateLocation(ctx context.Context, id, locationID uuid.UUID, patch LocationPatch) (*UserDTO, error)
	DeleteLocation(ctx context.Context, id, locationID uuid.UUID) (*UserDTO, error)
	SetCurrentLocation(ctx context.Context, id, locationID uuid.UUID) (*UserDTO, error)
	CurrentLocation(ctx context.Context, id uuid.UUID) (*types.UserLocation, error)

	List(ctx context.Context, params ListParams) ([]UserDTO, types.Pagination, error)
	Create(ctx context.Context, req AdminCreateRequest) (*UserDTO, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, req AdminUpdateRequest) (*UserDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, params ListParams) ([]models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo           userRepository
	PasswordConfig config.PasswordConfig
}

type service struct {
	repo        userRepository
	passwordCfg config.PasswordConfig
}

// NewService builds the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: params.Repo, passwordCfg: params.PasswordConfig}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProfilePatch(user, patch); err != nil {
		return nil, err
	}
	return s.save(ctx, user)
}

func (s *service) AddLocation(ctx context.Context, id uuid.UUID, in LocationInput) (*UserDTO, error) {
	return s.mutate(ctx, id, func(user *models.User) error {
		_, err := AddLocation(user, in)
		return err
	})
}

func (s *service) UpdateLocation(ctx context.Context, id, locationID uuid.UUID, patch LocationPatch) (*UserDTO, error) {
	return s.mutate(ctx, id, func(user *models.User) error {
		_, err := UpdateLocation(user, locationID, patch)
		return err
	})
}

func (s *service) DeleteLocation(ctx context.Context, id, locationID uuid.UUID) (*UserDTO, error) {
	return s.mutate(ctx, id, func(user *models.User) error {
		return DeleteLocation(user, locationID)
	})
}

func (s *service) SetCurrentLocation(ctx context.Context, id, locationID uuid.UUID) (*UserDTO, error) {
	return s.mutate(ctx, id, func(user *models.User) error {
		_, err := SetCurrentLocation(user, locationID)
		return err
	})
}

func (s *service) CurrentLocation(ctx context.Context, id uuid.UUID) (*types.UserLocation, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	current, ok := user.CurrentLocation()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no current location")
	}
	return &current, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]UserDTO, types.Pagination, error) {
	params.Params = params.Normalize()
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, types.Pagination{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, params.Meta(total), nil
}

func (s *service) Create(ctx context.Context, req AdminCreateRequest) (*UserDTO, error) {
	email := validation.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if len(req.Password) < security.MinPasswordLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "password must be at least %d characters", security.MinPasswordLength)
	}
	if !validation.IsE164Phone(req.Phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be in international format")
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user, err := s.repo.Create(ctx, CreateUserDTO{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         req.Role,
		Locations:    req.Locations,
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return FromModel(user), nil
}

func (s *service) AdminUpdate(ctx context.Context, id uuid.UUID, req AdminUpdateRequest) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProfilePatch(user, req.ProfilePatch); err != nil {
		return nil, err
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		user.Role = *req.Role
	}
	if req.Email != nil {
		email := validation.NormalizeEmail(*req.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
		}
		if email != user.Email {
			existing, err := s.repo.FindByEmail(ctx, email)
			if err == nil && existing.ID != user.ID {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "email already registered")
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
			}
			user.Email = email
		}
	}
	return s.save(ctx, user)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func (s *service) mutate(ctx context.Context, id uuid.UUID, fn func(*models.User) error) (*UserDTO, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(user); err != nil {
		return nil, err
	}
	return s.save(ctx, user)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) save(ctx context.Context, user *models.User) (*UserDTO, error) {
	if err := s.repo.Update(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return FromModel(user), nil
}

func applyProfilePatch(user *models.User, patch ProfilePatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" || len(name) > 100 {
			return pkgerrors.New(pkgerrors.CodeValidation, "name must be between 1 and 100 characters")
		}
		user.Name = name
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		if !validation.IsE164Phone(phone) {
			return pkgerrors.New(pkgerrors.CodeValidation, "phone must be in international format")
		}
		user.Phone = phone
	}
	if patch.ProfileImageURL != nil {
		raw := strings.TrimSpace(*patch.ProfileImageURL)
		if raw == "" {
			user.ProfileImageURL = nil
		} else if !validation.IsHTTPURL(raw) {
			return pkgerrors.New(pkgerrors.CodeValidation, "profileImageUrl must be a valid URL")
		} else {
			user.ProfileImageURL = &raw
		}
	}
	return nil
}

// RoleFilter parses an optional role query value.
func RoleFilter(raw string) (*enums.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	role, err := enums.ParseRole(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role filter")
	}
	return &role, nil
}

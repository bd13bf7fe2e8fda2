package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mercadito-backend/api/responses"
	"github.com/angelmondragon/mercadito-backend/api/validators"
	pkgAuth "github.com/angelmondragon/mercadito-backend/pkg/auth"
	"github.com/angelmondragon/mercadito-backend/pkg/auth/session"
	"github.com/angelmondragon/mercadito-backend/pkg/authz"
	"github.com/angelmondragon/mercadito-backend/pkg/config"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/logger"
)

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticator verifies bearer tokens against the signing key, the live
// session set, and the user table.
type Authenticator struct {
	cfg      config.JWTConfig
	sessions session.AccessSessionChecker
	users    userLoader
	logg     *logger.Logger
}

func NewAuthenticator(cfg config.JWTConfig, sessions session.AccessSessionChecker, users userLoader, logg *logger.Logger) *Authenticator {
	return &Authenticator{cfg: cfg, sessions: sessions, users: users, logg: logg}
}

// Required rejects the request with 401 unless it carries a valid token.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.authenticate(r)
		if err != nil {
			responses.WriteError(r.Context(), a.logg, w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches the caller when a valid token is present and otherwise
// continues anonymously. Infrastructure failures still fail the request.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx, err := a.authenticate(r)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				next.ServeHTTP(w, r)
				return
			}
			responses.WriteError(r.Context(), a.logg, w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (context.Context, error) {
	token, err := validators.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not authorized to access this route")
	}
	claims, err := pkgAuth.ParseAccessToken(a.cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}

	ctx := r.Context()
	if a.sessions != nil {
		ok, err := a.sessions.HasSession(ctx, claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
	}

	caller := &authz.Caller{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
	if a.users != nil {
		user, err := a.users.FindByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		// Role and email come from the row so changes apply without re-login.
		caller.Email = user.Email
		caller.Role = user.Role
	}

	ctx = WithCaller(ctx, caller)
	ctx = WithAccessID(ctx, claims.ID)
	if a.logg != nil {
		ctx = a.logg.WithUserID(ctx, caller.UserID.String())
		ctx = a.logg.WithRole(ctx, string(caller.Role))
	}
	return ctx, nil
}

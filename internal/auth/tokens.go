package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/mercadito-backend/pkg/auth"
	"github.com/angelmondragon/mercadito-backend/pkg/auth/session"
	"github.com/angelmondragon/mercadito-backend/pkg/config"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
)

type sessionManager interface {
	Create(ctx context.Context, accessID string, userID uuid.UUID) error
	Revoke(ctx context.Context, accessID string) error
}

// tokenIssuer mints an access token and records its session so it can be
// revoked before it expires.
type tokenIssuer struct {
	sessions sessionManager
	jwtCfg   config.JWTConfig
}

func (t tokenIssuer) issue(ctx context.Context, user *models.User, now time.Time) (string, error) {
	accessID := session.NewAccessID()
	token, _, err := pkgAuth.MintAccessToken(t.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := t.sessions.Create(ctx, accessID, user.ID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store access session")
	}
	return token, nil
}

package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
)

var (
	// ErrCartNotFound is returned when no cart exists for a session and store.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartExists is returned when a concurrent request created the cart first.
	ErrCartExists = errors.New("cart already exists")
)

// Repository is the storage surface for carts. Implementations exist for
// Postgres and MongoDB.
type Repository interface {
	Get(ctx context.Context, sessionID string, storeID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
	DeleteByStore(ctx context.Context, storeID uuid.UUID) (int64, error)
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

// Cart is the per-session, per-store basket. TotalItems and Subtotal are
// derived from Items and rewritten on every save.
type Cart struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SessionID  string          `gorm:"column:session_id;not null;uniqueIndex:ux_carts_session_store"`
	StoreID    uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ux_carts_session_store"`
	Items      types.CartLines `gorm:"column:items;type:jsonb;not null"`
	TotalItems int             `gorm:"column:total_items;not null;default:0"`
	Subtotal   decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

package authz

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/mercadito-backend/pkg/enums"
)

// Caller is the authenticated identity a service acts on behalf of.
type Caller struct {
	UserID uuid.UUID
	Email  string
	Role   enums.Role
}

// IsSuperAdmin reports whether the caller is a platform admin.
func (c *Caller) IsSuperAdmin() bool {
	return c != nil && c.Role == enums.RoleSuperAdmin
}

// IsStaff reports whether the caller may administer stores at all.
func (c *Caller) IsStaff() bool {
	return c != nil && c.Role.IsStaff()
}

// CanManageStore is the single ownership rule for stores and everything
// hanging off them: the owner or a platform admin.
func CanManageStore(caller *Caller, ownerID uuid.UUID) bool {
	if caller == nil || caller.UserID == uuid.Nil {
		return false
	}
	if caller.IsSuperAdmin() {
		return true
	}
	return caller.Role == enums.RoleAdmin && caller.UserID == ownerID
}

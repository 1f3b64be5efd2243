package moderation

import (
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/domain/moderr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller identifies who is invoking an operation. It is built once at the
// HTTP or CLI boundary and passed explicitly; the zero value is anonymous.
type Caller struct {
	ID   primitive.ObjectID
	Role models.Role
}

// IsAdmin reports whether the caller is an identified admin.
func (c Caller) IsAdmin() bool {
	return !c.ID.IsZero() && c.Role == models.RoleAdmin
}

func requireAdmin(c Caller, op string) error {
	if !c.IsAdmin() {
		return &moderr.PermissionError{Op: op}
	}
	return nil
}

// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/memberhub/internal/app/moderation"
	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), mobile number, Mongo ObjectID,
// and a found flag. If no user is present in context or the user ID is
// malformed, it returns "visitor", "", NilObjectID, false. Callers can trust
// that ok=true means an authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, mobile string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.MobileNumber, userID, true
}

// CallerFrom builds the moderation caller for the request. Anonymous requests
// and corrupt sessions yield the zero Caller, which every admin operation
// rejects.
func CallerFrom(r *http.Request) moderation.Caller {
	role, _, id, ok := UserCtx(r)
	if !ok {
		return moderation.Caller{}
	}
	return moderation.Caller{ID: id, Role: models.Role(strings.ToUpper(role))}
}

// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsSuperAdmin reports whether the current request's user is the superadmin.
func IsSuperAdmin(r *http.Request) bool {
	user, ok := auth.CurrentUser(r)
	return ok && user.IsSuperAdmin()
}

// IsHead reports whether the current request's user heads their Edir.
func IsHead(r *http.Request) bool {
	return HasRole(r, models.RoleHead)
}

// UserEdirID returns the Edir the current user belongs to, or NilObjectID
// for visitors and the superadmin.
func UserEdirID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.EdirID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.EdirID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// BelongsTo reports whether the current user is a member of the Edir.
// The superadmin belongs everywhere.
func BelongsTo(r *http.Request, edirID primitive.ObjectID) bool {
	if IsSuperAdmin(r) {
		return true
	}
	uid := UserEdirID(r)
	return !uid.IsZero() && uid == edirID
}

// CanManageResources reports whether the current user may add resources or
// change their status. Event coordinators can only view them.
func CanManageResources(r *http.Request) bool {
	return HasAnyRole(r, models.RolePropertyManager, models.RoleHead, models.RoleSuperAdmin)
}

// CanRecordContributions reports whether the current user may record payments.
func CanRecordContributions(r *http.Request) bool {
	return HasAnyRole(r, models.RoleTreasurer, models.RoleSuperAdmin)
}

// CanManageEvents reports whether the current user may schedule events.
func CanManageEvents(r *http.Request) bool {
	return HasAnyRole(r, models.RoleEventCoordinator, models.RoleHead, models.RoleSuperAdmin)
}

package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/dalemusser/edirhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testUserID() string {
	return primitive.NewObjectID().Hex()
}

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	role, name, id, ok := authz.UserCtx(req)
	if ok || role != "visitor" || name != "" || !id.IsZero() {
		t.Errorf("unexpected visitor ctx: %q %q %v %v", role, name, id, ok)
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-id", Role: "head"})
	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected malformed ID to fail closed")
	}
}

func TestUserCtx_LowercasesRole(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Name: "Almaz", Role: "Treasurer"})
	role, name, _, ok := authz.UserCtx(req)
	if !ok || role != "treasurer" || name != "Almaz" {
		t.Errorf("got role=%q name=%q ok=%v", role, name, ok)
	}
}

func TestIsSuperAdmin(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if authz.IsSuperAdmin(req) {
		t.Error("visitor must not be superadmin")
	}
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: "superadmin"})
	if !authz.IsSuperAdmin(req) {
		t.Error("expected superadmin")
	}
}

func TestBelongsTo(t *testing.T) {
	edir := primitive.NewObjectID()
	other := primitive.NewObjectID()

	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: "member", EdirID: edir.Hex()})
	if !authz.BelongsTo(req, edir) {
		t.Error("expected member to belong to own Edir")
	}
	if authz.BelongsTo(req, other) {
		t.Error("member must not belong to another Edir")
	}

	admin := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: testUserID(), Role: "superadmin"})
	if !authz.BelongsTo(admin, other) {
		t.Error("superadmin belongs to every Edir")
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		role      string
		resources bool
		payments  bool
		events    bool
	}{
		{"head", true, false, true},
		{"treasurer", false, true, false},
		{"propertymanager", true, false, false},
		{"eventcoordinator", false, false, true},
		{"member", false, false, false},
		{"superadmin", true, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: testUserID(), Role: tc.role})
			if got := authz.CanManageResources(req); got != tc.resources {
				t.Errorf("CanManageResources = %v, want %v", got, tc.resources)
			}
			if got := authz.CanRecordContributions(req); got != tc.payments {
				t.Errorf("CanRecordContributions = %v, want %v", got, tc.payments)
			}
			if got := authz.CanManageEvents(req); got != tc.events {
				t.Errorf("CanManageEvents = %v, want %v", got, tc.events)
			}
		})
	}
}

func TestHasAnyRole(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: testUserID(), Role: "eventcoordinator"})
	if !authz.HasAnyRole(req, "head", " EventCoordinator ") {
		t.Error("expected match on trimmed, case-folded role")
	}
	if authz.HasRole(req, "head") {
		t.Error("unexpected head match")
	}
	if role, ok := authz.Role(req); !ok || role != "eventcoordinator" {
		t.Errorf("Role() = %q, %v", role, ok)
	}
}

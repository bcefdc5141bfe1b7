package viewdata

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/dalemusser/edirhub/internal/app/system/tenant"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewBaseVM_Visitor(t *testing.T) {
	req := httptest.NewRequest("GET", "/about", nil)

	vm := NewBaseVM(req, "About", "/")

	if vm.SiteName != models.DefaultSiteName {
		t.Errorf("SiteName = %q", vm.SiteName)
	}
	if vm.IsLoggedIn {
		t.Error("visitor should not be logged in")
	}
	if vm.LoginURL != "/login" {
		t.Errorf("LoginURL = %q, want /login", vm.LoginURL)
	}
	if vm.RegisterURL != "" {
		t.Errorf("RegisterURL = %q, want empty outside an Edir", vm.RegisterURL)
	}
	if vm.Title != "About" || vm.CurrentPath != "/about" {
		t.Errorf("unexpected page fields %+v", vm)
	}
}

func TestNewBaseVM_TenantMember(t *testing.T) {
	req := httptest.NewRequest("GET", "/bole/member/dashboard", nil)
	req = tenant.WithTestEdir(req, primitive.NewObjectID(), "bole", "Bole Edir")
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Almaz",
		Role:     models.RoleTreasurer,
		EdirSlug: "bole",
	})

	vm := NewBaseVM(req, "Dashboard", "/")

	if vm.EdirName != "Bole Edir" || vm.EdirSlug != "bole" {
		t.Errorf("unexpected Edir fields %q %q", vm.EdirName, vm.EdirSlug)
	}
	if !vm.IsLoggedIn || vm.UserName != "Almaz" {
		t.Errorf("expected signed-in Almaz, got %+v", vm)
	}
	if vm.DashboardURL != "/bole/treasurer/dashboard" {
		t.Errorf("DashboardURL = %q", vm.DashboardURL)
	}
	if vm.LoginURL != "/bole/login" || vm.RegisterURL != "/bole/register" {
		t.Errorf("unexpected visitor links %q %q", vm.LoginURL, vm.RegisterURL)
	}
	if vm.RoleLabel == "" {
		t.Error("expected a role label")
	}
}

func TestNewBaseVM_SuperAdmin(t *testing.T) {
	req := httptest.NewRequest("GET", "/edir/admin", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "x", Name: "Root", Role: models.RoleSuperAdmin})

	vm := NewBaseVM(req, "Admin", "/")
	if vm.DashboardURL != "/edir/admin" {
		t.Errorf("DashboardURL = %q, want /edir/admin", vm.DashboardURL)
	}
}

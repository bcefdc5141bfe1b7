// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/dalemusser/edirhub/internal/app/system/tenant"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM contains the fields the shared header and footer read.
// Embed it in every page view model.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	}
type BaseVM struct {
	SiteName string

	// Edir in the URL, when the page is tenant scoped.
	EdirName string
	EdirSlug string

	// Signed-in user.
	IsLoggedIn   bool
	Role         string
	RoleLabel    string
	UserName     string
	DashboardURL string

	// Links for visitors. LoginURL points at the current Edir's login
	// page when there is one.
	LoginURL    string
	RegisterURL string

	Title       string
	BackURL     string
	CurrentPath string

	CSRFToken string
}

// NewBaseVM builds the BaseVM for a page from the request context.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    models.DefaultSiteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
		LoginURL:    routetable.LoginPath(""),
	}

	if e := tenant.FromRequest(r); e != nil {
		vm.EdirName = e.Name
		vm.EdirSlug = e.Slug
		vm.LoginURL = routetable.LoginPath(e.Slug)
		vm.RegisterURL = routetable.RegisterPath(e.Slug)
	}

	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.Role = u.Role
		vm.RoleLabel = models.RoleLabel(u.Role)
		vm.UserName = u.Name
		vm.DashboardURL = routetable.DashboardPath(u.EdirSlug, u.Role)
	}

	return vm
}

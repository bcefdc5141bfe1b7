// Package routetable declares every addressable page of the portal as a row
// of (method, path template) → view, and mounts those rows on a chi router.
//
// Path templates use chi syntax. The tenant segment is always {edirslug}; a
// row whose template contains it is tenant-scoped and is served behind the
// tenant middleware.
package routetable

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/dalemusser/edirhub/internal/domain/models"
)

// View names a page view. Several rows may share one view (the property
// manager and event coordinator resource pages both render ViewResources).
type View string

const (
	ViewHome             View = "home"
	ViewAbout            View = "about"
	ViewLogin            View = "login"
	ViewLogout           View = "logout"
	ViewGoogleAuth       View = "google_auth"
	ViewRegister         View = "register"
	ViewPendingApproval  View = "pending_approval"
	ViewHeadDashboard    View = "head_dashboard"
	ViewTreasurer        View = "treasurer_dashboard"
	ViewResources        View = "resource_dashboard"
	ViewEventCoordinator View = "eventcoordinator_dashboard"
	ViewMember           View = "member_dashboard"
	ViewEdirAdmin        View = "edir_admin"
	ViewEdirRequest      View = "edir_request"
	ViewForbidden        View = "forbidden"
	ViewHealth           View = "health"
	ViewMetrics          View = "metrics"
)

// Audience labels who a row is addressed to.
type Audience string

const (
	AudiencePublicHome       Audience = "public home"
	AudiencePublicInfo       Audience = "public info"
	AudienceAuthentication   Audience = "authentication"
	AudienceRegistration     Audience = "registration"
	AudiencePending          Audience = "post-registration holding state"
	AudienceHead             Audience = "head-of-association"
	AudienceTreasurer        Audience = "treasurer"
	AudiencePropertyManager  Audience = "property manager"
	AudienceEventCoordinator Audience = "event coordinator"
	AudienceMember           Audience = "member"
	AudienceAdmin            Audience = "cross-tenant admin"
	AudienceTenantRequest    Audience = "tenant-creation request"
	AudienceOperations       Audience = "operations"
)

// TenantParam is the URL parameter carrying the Edir slug.
const TenantParam = "edirslug"

const tenantSegment = "{" + TenantParam + "}"

// Route is one row of the table. Action is empty for the page itself and
// names the form action for POST rows.
type Route struct {
	Method   string
	Pattern  string
	View     View
	Action   string
	Audience Audience
	// Roles that may use the row. Empty means no sign-in is required.
	Roles []string
}

// Key identifies the handler a row binds to.
type Key struct {
	View   View
	Action string
}

// Key returns the handler key for r.
func (r Route) Key() Key {
	return Key{View: r.View, Action: r.Action}
}

// IsTenantScoped reports whether the row's template carries the tenant segment.
func (r Route) IsTenantScoped() bool {
	for _, seg := range segments(r.Pattern) {
		if seg == tenantSegment {
			return true
		}
	}
	return false
}

// RequiresSignIn reports whether the row is restricted to signed-in users.
func (r Route) RequiresSignIn() bool {
	return len(r.Roles) > 0
}

func (r Route) String() string {
	return r.Method + " " + r.Pattern
}

// Table is an ordered set of rows.
type Table []Route

var (
	officers  = []string{models.RoleHead}
	allRoles  = models.EdirRoles
	adminOnly = []string{models.RoleSuperAdmin}
)

// Default is the portal's route table.
var Default = Table{
	{Method: http.MethodGet, Pattern: "/", View: ViewHome, Audience: AudiencePublicHome},
	{Method: http.MethodGet, Pattern: "/about", View: ViewAbout, Audience: AudiencePublicInfo},

	{Method: http.MethodGet, Pattern: "/{edirslug}/login", View: ViewLogin, Audience: AudienceAuthentication},
	{Method: http.MethodPost, Pattern: "/{edirslug}/login", View: ViewLogin, Action: "submit", Audience: AudienceAuthentication},
	{Method: http.MethodGet, Pattern: "/login", View: ViewLogin, Audience: AudienceAuthentication},
	{Method: http.MethodPost, Pattern: "/login", View: ViewLogin, Action: "submit", Audience: AudienceAuthentication},
	{Method: http.MethodPost, Pattern: "/logout", View: ViewLogout, Audience: AudienceAuthentication},
	{Method: http.MethodGet, Pattern: "/auth/google", View: ViewGoogleAuth, Audience: AudienceAuthentication},
	{Method: http.MethodGet, Pattern: "/auth/google/callback", View: ViewGoogleAuth, Action: "callback", Audience: AudienceAuthentication},

	{Method: http.MethodGet, Pattern: "/{edirslug}/register", View: ViewRegister, Audience: AudienceRegistration},
	{Method: http.MethodPost, Pattern: "/{edirslug}/register", View: ViewRegister, Action: "submit", Audience: AudienceRegistration},
	{Method: http.MethodGet, Pattern: "/pending-approval", View: ViewPendingApproval, Audience: AudiencePending},

	{Method: http.MethodGet, Pattern: "/{edirslug}/head/dashboard", View: ViewHeadDashboard, Audience: AudienceHead, Roles: officers},
	{Method: http.MethodPost, Pattern: "/{edirslug}/head/dashboard/members/{userID}/approve", View: ViewHeadDashboard, Action: "approve_member", Audience: AudienceHead, Roles: officers},
	{Method: http.MethodPost, Pattern: "/{edirslug}/head/dashboard/members/{userID}/reject", View: ViewHeadDashboard, Action: "reject_member", Audience: AudienceHead, Roles: officers},
	{Method: http.MethodPost, Pattern: "/{edirslug}/head/dashboard/members/{userID}/role", View: ViewHeadDashboard, Action: "assign_role", Audience: AudienceHead, Roles: officers},

	{Method: http.MethodGet, Pattern: "/{edirslug}/treasurer/dashboard", View: ViewTreasurer, Audience: AudienceTreasurer, Roles: []string{models.RoleTreasurer, models.RoleHead}},
	{Method: http.MethodPost, Pattern: "/{edirslug}/treasurer/dashboard/contributions", View: ViewTreasurer, Action: "record_contribution", Audience: AudienceTreasurer, Roles: []string{models.RoleTreasurer}},

	{Method: http.MethodGet, Pattern: "/{edirslug}/propertymanager/dashboard", View: ViewResources, Audience: AudiencePropertyManager, Roles: []string{models.RolePropertyManager, models.RoleHead}},
	{Method: http.MethodGet, Pattern: "/{edirslug}/propertymanager/dashboard/resources", View: ViewResources, Audience: AudiencePropertyManager, Roles: []string{models.RolePropertyManager, models.RoleHead}},
	{Method: http.MethodPost, Pattern: "/{edirslug}/propertymanager/dashboard/resources", View: ViewResources, Action: "add_resource", Audience: AudiencePropertyManager, Roles: []string{models.RolePropertyManager, models.RoleHead}},
	{Method: http.MethodPost, Pattern: "/{edirslug}/propertymanager/dashboard/resources/{resourceID}/status", View: ViewResources, Action: "set_status", Audience: AudiencePropertyManager, Roles: []string{models.RolePropertyManager, models.RoleHead}},

	{Method: http.MethodGet, Pattern: "/{edirslug}/eventcoordinator/dashboard", View: ViewEventCoordinator, Audience: AudienceEventCoordinator, Roles: []string{models.RoleEventCoordinator, models.RoleHead}},
	{Method: http.MethodPost, Pattern: "/{edirslug}/eventcoordinator/dashboard/events", View: ViewEventCoordinator, Action: "create_event", Audience: AudienceEventCoordinator, Roles: []string{models.RoleEventCoordinator, models.RoleHead}},
	{Method: http.MethodGet, Pattern: "/{edirslug}/eventcoordinator/dashboard/resources", View: ViewResources, Audience: AudienceEventCoordinator, Roles: []string{models.RoleEventCoordinator, models.RolePropertyManager, models.RoleHead}},

	{Method: http.MethodGet, Pattern: "/{edirslug}/member/dashboard", View: ViewMember, Audience: AudienceMember, Roles: allRoles},

	{Method: http.MethodGet, Pattern: "/edir/admin", View: ViewEdirAdmin, Audience: AudienceAdmin, Roles: adminOnly},
	{Method: http.MethodPost, Pattern: "/edir/admin/requests/{requestID}/approve", View: ViewEdirAdmin, Action: "approve_request", Audience: AudienceAdmin, Roles: adminOnly},
	{Method: http.MethodPost, Pattern: "/edir/admin/requests/{requestID}/reject", View: ViewEdirAdmin, Action: "reject_request", Audience: AudienceAdmin, Roles: adminOnly},
	{Method: http.MethodPost, Pattern: "/edir/admin/edirs/{edirID}/status", View: ViewEdirAdmin, Action: "set_edir_status", Audience: AudienceAdmin, Roles: adminOnly},
	{Method: http.MethodGet, Pattern: "/edir/request", View: ViewEdirRequest, Audience: AudienceTenantRequest},
	{Method: http.MethodPost, Pattern: "/edir/request", View: ViewEdirRequest, Action: "submit", Audience: AudienceTenantRequest},

	{Method: http.MethodGet, Pattern: "/forbidden", View: ViewForbidden, Audience: AudienceOperations},
	{Method: http.MethodGet, Pattern: "/health", View: ViewHealth, Audience: AudienceOperations},
	{Method: http.MethodGet, Pattern: "/metrics", View: ViewMetrics, Audience: AudienceOperations},
}

// InfraPrefixes are first path segments served outside the table (static
// assets) or kept free for future use. Tenant slugs may not take them.
var InfraPrefixes = []string{"static", "assets", "api", "admin", "favicon.ico", "robots.txt"}

/*─────────────────────────────────────────────────────────────────────────────*
| Validation                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

var (
	ErrEmptyTable = errors.New("route table is empty")
	ErrBadRow     = errors.New("malformed route row")
	ErrDuplicate  = errors.New("duplicate route template")
	ErrCollision  = errors.New("route templates collide")
)

// Validate checks that every row is well-formed, that no template is declared
// twice for the same method and that no two templates for the same method can
// match the same literal path.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	var problems []error
	for i, r := range t {
		if r.Method == "" || r.View == "" || !strings.HasPrefix(r.Pattern, "/") {
			problems = append(problems, fmt.Errorf("%w: row %d (%q)", ErrBadRow, i, r.String()))
			continue
		}
		for _, seg := range segments(r.Pattern) {
			if strings.ContainsAny(seg, "{}") && !isParam(seg) {
				problems = append(problems, fmt.Errorf("%w: row %d has bad segment %q", ErrBadRow, i, seg))
			}
		}
		for j := 0; j < i; j++ {
			o := t[j]
			if o.Method != r.Method {
				continue
			}
			switch {
			case shape(o.Pattern) == shape(r.Pattern):
				problems = append(problems, fmt.Errorf("%w: %s and %s", ErrDuplicate, o.String(), r.String()))
			case overlaps(o.Pattern, r.Pattern):
				problems = append(problems, fmt.Errorf("%w: %s and %s", ErrCollision, o.String(), r.String()))
			}
		}
	}
	return errors.Join(problems...)
}

// overlaps reports whether some literal path matches both templates.
func overlaps(a, b string) bool {
	as, bs := segments(a), segments(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] && !isParam(as[i]) && !isParam(bs[i]) {
			return false
		}
	}
	return true
}

// shape replaces parameter names so "/{a}/x" and "/{b}/x" compare equal.
func shape(pattern string) string {
	segs := segments(pattern)
	for i, s := range segs {
		if isParam(s) {
			segs[i] = "{}"
		}
	}
	return "/" + strings.Join(segs, "/")
}

func segments(pattern string) []string {
	p := strings.Trim(pattern, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func isParam(seg string) bool {
	return len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}' && !strings.ContainsAny(seg[1:len(seg)-1], "{}/")
}

/*─────────────────────────────────────────────────────────────────────────────*
| Lookups                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Find returns the row declared for method and template.
func (t Table) Find(method, pattern string) (Route, bool) {
	for _, r := range t {
		if r.Method == method && r.Pattern == pattern {
			return r, true
		}
	}
	return Route{}, false
}

// Pages returns the GET rows rendering v, in declaration order.
func (t Table) Pages(v View) []Route {
	var out []Route
	for _, r := range t {
		if r.View == v && r.Method == http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

// Expand fills a template's parameters. Missing parameters are left as-is.
func Expand(pattern string, params map[string]string) string {
	segs := segments(pattern)
	for i, s := range segs {
		if isParam(s) {
			if v, ok := params[s[1:len(s)-1]]; ok {
				segs[i] = v
			}
		}
	}
	return "/" + strings.Join(segs, "/")
}

// ActionPath returns the path of the first POST row bound to the view's
// action, with params filled in, or "" when there is none.
func (t Table) ActionPath(v View, action string, params map[string]string) string {
	for _, r := range t {
		if r.View == v && r.Action == action && r.Method == http.MethodPost {
			return Expand(r.Pattern, params)
		}
	}
	return ""
}

// ActionPath resolves against Default.
func ActionPath(v View, action string, params map[string]string) string {
	return Default.ActionPath(v, action, params)
}

// roleViews maps each role to the view that serves as its landing dashboard.
var roleViews = map[string]View{
	models.RoleHead:             ViewHeadDashboard,
	models.RoleTreasurer:        ViewTreasurer,
	models.RolePropertyManager:  ViewResources,
	models.RoleEventCoordinator: ViewEventCoordinator,
	models.RoleMember:           ViewMember,
}

// DashboardPath returns where a user with role lands after signing in to
// the Edir addressed by slug. Unknown roles land on the member dashboard.
func (t Table) DashboardPath(slug, role string) string {
	if role == models.RoleSuperAdmin {
		if pages := t.Pages(ViewEdirAdmin); len(pages) > 0 {
			return pages[0].Pattern
		}
	}
	v, ok := roleViews[role]
	if !ok {
		v = ViewMember
	}
	for _, r := range t.Pages(v) {
		if r.IsTenantScoped() {
			return Expand(r.Pattern, map[string]string{TenantParam: slug})
		}
	}
	return "/"
}

// DashboardPath resolves against Default.
func DashboardPath(slug, role string) string {
	return Default.DashboardPath(slug, role)
}

// LoginPath returns the tenant login page, or the global one for an empty slug.
func LoginPath(slug string) string {
	if slug == "" {
		return "/login"
	}
	return Expand("/{edirslug}/login", map[string]string{TenantParam: slug})
}

// RegisterPath returns the tenant registration page.
func RegisterPath(slug string) string {
	return Expand("/{edirslug}/register", map[string]string{TenantParam: slug})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Tenant slugs                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// ReservedSlugs returns the literal first segments of all rows plus
// InfraPrefixes. A tenant with one of these slugs would be shadowed by, or
// confused with, a non-tenant page.
func (t Table) ReservedSlugs() map[string]struct{} {
	out := make(map[string]struct{}, len(t)+len(InfraPrefixes))
	for _, r := range t {
		segs := segments(r.Pattern)
		if len(segs) > 0 && !isParam(segs[0]) {
			out[segs[0]] = struct{}{}
		}
	}
	for _, p := range InfraPrefixes {
		out[p] = struct{}{}
	}
	return out
}

var slugRE = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,38}[a-z0-9])$`)

var (
	ErrSlugFormat   = errors.New("slug must be 3-40 lowercase letters, digits or hyphens, starting and ending with a letter or digit")
	ErrSlugReserved = errors.New("slug is reserved")
)

// CheckSlug reports whether s may be used as a tenant slug.
func (t Table) CheckSlug(s string) error {
	if !slugRE.MatchString(s) || strings.Contains(s, "--") {
		return ErrSlugFormat
	}
	if _, ok := t.ReservedSlugs()[s]; ok {
		return ErrSlugReserved
	}
	return nil
}

// CheckSlug validates against Default.
func CheckSlug(s string) error {
	return Default.CheckSlug(s)
}

// internal/app/features/dashboard/common.go
package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/dalemusser/edirhub/internal/app/system/authz"
	"github.com/dalemusser/edirhub/internal/app/system/tenant"
	"github.com/dalemusser/edirhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// baseDashboardData contains fields common to all dashboard views.
type baseDashboardData struct {
	viewdata.BaseVM
	Notice string
	Error  string
}

var notices = map[string]string{
	"approved":     "Member approved.",
	"rejected":     "Registration rejected.",
	"role":         "Role updated.",
	"contribution": "Contribution recorded.",
	"event":        "Event scheduled.",
	"resource":     "Resource added.",
	"status":       "Resource status updated.",
}

func newBase(r *http.Request, title string) baseDashboardData {
	return baseDashboardData{
		BaseVM: viewdata.NewBaseVM(r, title, "/"),
		Notice: notices[query.Get(r, "notice")],
	}
}

// scope returns the Edir in the URL and the acting user. It renders an
// error page and returns false when either is missing.
func scope(w http.ResponseWriter, r *http.Request) (*tenant.Info, primitive.ObjectID, bool) {
	info := tenant.FromRequest(r)
	if info == nil {
		uierrors.RenderNotFound(w, r, "That Edir does not exist.", "/")
		return nil, primitive.NilObjectID, false
	}
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return nil, primitive.NilObjectID, false
	}
	return info, actorID, true
}

// objectIDParam reads a chi URL parameter holding an ObjectID.
func objectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, name))
}

// pagePath returns the tenant dashboard page for view, with an optional
// notice code for the banner shown after a redirect.
func pagePath(view routetable.View, slug, notice string) string {
	path := "/"
	for _, rt := range routetable.Default.Pages(view) {
		if rt.IsTenantScoped() {
			path = routetable.Expand(rt.Pattern, map[string]string{routetable.TenantParam: slug})
			break
		}
	}
	if notice != "" {
		path += "?notice=" + url.QueryEscape(notice)
	}
	return path
}

func actionPath(view routetable.View, action, slug string, extra map[string]string) string {
	params := map[string]string{routetable.TenantParam: slug}
	for k, v := range extra {
		params[k] = v
	}
	return routetable.ActionPath(view, action, params)
}

var errBadAmount = errors.New("enter an amount in birr, for example 150 or 150.50")

// allDigits reports whether s is non-empty and only ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseBirr converts a birr amount with at most two decimals to cents.
func parseBirr(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	whole, frac, hasFrac := strings.Cut(s, ".")
	if !allDigits(whole) || len(frac) > 2 || (hasFrac && !allDigits(frac)) {
		return 0, errBadAmount
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 || w > 1_000_000_000 {
		return 0, errBadAmount
	}
	var f int64
	if frac != "" {
		if f, err = strconv.ParseInt(frac, 10, 64); err != nil || f < 0 {
			return 0, errBadAmount
		}
		if len(frac) == 1 {
			f *= 10
		}
	}
	cents := w*100 + f
	if cents <= 0 {
		return 0, errBadAmount
	}
	return cents, nil
}

// formatBirr renders cents as "1,250.50".
func formatBirr(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return fmt.Sprintf("%s%s.%02d", sign, b.String(), cents%100)
}

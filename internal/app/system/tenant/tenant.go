// Package tenant resolves the Edir addressed by the {edirslug} path segment
// and scopes requests to it.
package tenant

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/edirhub/internal/app/routetable"
	edirstore "github.com/dalemusser/edirhub/internal/app/store/edirs"
	"github.com/dalemusser/edirhub/internal/app/system/auth"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ctxKey string

const edirKey ctxKey = "edir"

// Info holds the Edir serving the current request.
type Info struct {
	ID     primitive.ObjectID
	Slug   string
	Name   string
	Status string
}

// EdirStore is the lookup the middleware needs.
type EdirStore interface {
	GetBySlug(ctx context.Context, slug string) (models.Edir, error)
}

// Middleware loads the Edir named by the {edirslug} URL parameter.
//
//   - Unknown slugs return 404
//   - Lookup failures return 500
//   - Suspended Edirs return 403
//
// Routes without the parameter pass through untouched.
func Middleware(store EdirStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := strings.ToLower(chi.URLParam(r, routetable.TenantParam))
			if slug == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
			defer cancel()

			e, err := store.GetBySlug(ctx, slug)
			if errors.Is(err, edirstore.ErrNotFound) {
				logger.Debug("edir not found", zap.String("slug", slug))
				http.NotFound(w, r)
				return
			}
			if err != nil {
				logger.Error("edir lookup failed", zap.String("slug", slug), zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if e.Status != status.Active {
				logger.Info("request to non-active edir",
					zap.String("slug", slug),
					zap.String("status", e.Status))
				http.Error(w, "Edir unavailable", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, withEdir(r, &Info{ID: e.ID, Slug: e.Slug, Name: e.Name, Status: e.Status}))
		})
	}
}

// RequireMembership rejects signed-in users of other Edirs. It must run after
// Middleware and after auth.LoadSessionUser. Visitors pass through so that
// sign-in checks can redirect them.
func RequireMembership(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.CurrentUser(r)
		info := FromRequest(r)
		if !ok || info == nil || u.IsSuperAdmin() || u.EdirID == info.ID.Hex() {
			next.ServeHTTP(w, r)
			return
		}
		auth.Forbidden(w, r)
	})
}

// FromRequest returns the Edir from the request context, or nil.
func FromRequest(r *http.Request) *Info {
	return FromContext(r.Context())
}

// FromContext returns the Edir from ctx, or nil.
func FromContext(ctx context.Context) *Info {
	if e, ok := ctx.Value(edirKey).(*Info); ok {
		return e
	}
	return nil
}

// IDFromRequest returns the current Edir ID, or NilObjectID outside a tenant.
func IDFromRequest(r *http.Request) primitive.ObjectID {
	if e := FromRequest(r); e != nil {
		return e.ID
	}
	return primitive.NilObjectID
}

// SlugFromRequest returns the current Edir slug, or "".
func SlugFromRequest(r *http.Request) string {
	if e := FromRequest(r); e != nil {
		return e.Slug
	}
	return ""
}

// Filter adds edir_id to a bson.M filter when a tenant is in context and
// reports whether it did.
func Filter(r *http.Request, filter map[string]interface{}) bool {
	e := FromRequest(r)
	if e == nil {
		return false
	}
	filter["edir_id"] = e.ID
	return true
}

func withEdir(r *http.Request, e *Info) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), edirKey, e))
}

// WithTestEdir returns a request with an active Edir in context.
func WithTestEdir(r *http.Request, id primitive.ObjectID, slug, name string) *http.Request {
	return withEdir(r, &Info{ID: id, Slug: slug, Name: name, Status: status.Active})
}

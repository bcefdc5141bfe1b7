package routetable

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers binds view/action keys to handlers.
type Handlers map[Key]http.HandlerFunc

// Page registers the handler for a view's GET rows.
func (h Handlers) Page(v View, fn http.HandlerFunc) {
	h[Key{View: v}] = fn
}

// Action registers the handler for a named form action of a view.
func (h Handlers) Action(v View, action string, fn http.HandlerFunc) {
	h[Key{View: v, Action: action}] = fn
}

// Merge copies every binding from other into h.
func (h Handlers) Merge(other Handlers) {
	for k, fn := range other {
		h[k] = fn
	}
}

// Guard returns the middleware a row is served behind, outermost first.
type Guard func(Route) []func(http.Handler) http.Handler

var ErrNoHandler = errors.New("route has no handler")

type ctxKey struct{}

// RouteFromContext returns the row that matched the request, if the handler
// was mounted through Mount.
func RouteFromContext(ctx context.Context) (Route, bool) {
	r, ok := ctx.Value(ctxKey{}).(Route)
	return r, ok
}

// WithRoute stores rt on the request context.
func WithRoute(r *http.Request, rt Route) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, rt))
}

// Mount registers every row of t on r. It validates the table first and
// fails without registering anything if a row has no handler.
func (t Table) Mount(r chi.Router, handlers Handlers, guard Guard) error {
	if err := t.Validate(); err != nil {
		return err
	}
	var missing []error
	for _, rt := range t {
		if handlers[rt.Key()] == nil {
			missing = append(missing, fmt.Errorf("%w: %s (view %s, action %q)", ErrNoHandler, rt.String(), rt.View, rt.Action))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return err
	}

	for _, rt := range t {
		var mw []func(http.Handler) http.Handler
		if guard != nil {
			mw = guard(rt)
		}
		r.With(mw...).Method(rt.Method, rt.Pattern, tag(rt, handlers[rt.Key()]))
	}
	return nil
}

func tag(rt Route, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, WithRoute(r, rt))
	})
}

// Resolver maps literal request paths back to table rows using chi's own
// matcher, so resolution agrees exactly with what the mounted router serves.
type Resolver struct {
	mux   *chi.Mux
	table Table
}

// NewResolver builds a resolver for t.
func NewResolver(t Table) (*Resolver, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	mux := chi.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	for _, rt := range t {
		mux.MethodFunc(rt.Method, rt.Pattern, noop)
	}
	return &Resolver{mux: mux, table: t}, nil
}

// Resolve returns the row serving method and path along with the URL
// parameters extracted from the path.
func (rs *Resolver) Resolve(method, path string) (Route, map[string]string, bool) {
	rctx := chi.NewRouteContext()
	if !rs.mux.Match(rctx, method, path) {
		return Route{}, nil, false
	}
	rt, ok := rs.table.Find(method, rctx.RoutePattern())
	if !ok {
		return Route{}, nil, false
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		params[k] = rctx.URLParams.Values[i]
	}
	return rt, params, true
}

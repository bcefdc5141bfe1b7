// internal/app/features/pendingapproval/handler.go
package pendingapproval

import (
	"context"
	"net/http"

	"github.com/dalemusser/edirhub/internal/app/routetable"
	edirstore "github.com/dalemusser/edirhub/internal/app/store/edirs"
	"github.com/dalemusser/edirhub/internal/app/system/normalize"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Edirs *edirstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Edirs: edirstore.New(db), Log: logger}
}

type pageData struct {
	viewdata.BaseVM
	PendingEdirName string
	PendingLoginURL string
}

// ServePending explains that a registration waits for the head's approval.
// The optional ?edir= names the Edir the visitor registered with.
func (h *Handler) ServePending(w http.ResponseWriter, r *http.Request) {
	data := pageData{BaseVM: viewdata.NewBaseVM(r, "Awaiting approval", "/")}

	if slug := normalize.Slug(query.Get(r, "edir")); slug != "" {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		if e, err := h.Edirs.GetBySlug(ctx, slug); err == nil {
			data.PendingEdirName = e.Name
			data.PendingLoginURL = routetable.LoginPath(e.Slug)
		} else {
			h.Log.Debug("pending page for unknown edir", zap.String("slug", slug))
		}
	}

	templates.Render(w, r, "pending_approval", data)
}

// Handlers binds the holding page.
func Handlers(h *Handler) routetable.Handlers {
	hs := routetable.Handlers{}
	hs.Page(routetable.ViewPendingApproval, h.ServePending)
	return hs
}

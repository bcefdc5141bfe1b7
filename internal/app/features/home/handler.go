package home

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	edirstore "github.com/dalemusser/edirhub/internal/app/store/edirs"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	Edirs  *edirstore.Store
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Edirs:  edirstore.New(db),
		ErrLog: errLog,
		Log:    logger,
	}
}

type edirRow struct {
	Name        string
	Description string
	LoginURL    string
	RegisterURL string
}

type homeData struct {
	viewdata.BaseVM
	Edirs []edirRow
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	edirs, err := h.Edirs.ListActive(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list active edirs failed", err, "A database error occurred.", "")
		return
	}

	data := homeData{BaseVM: viewdata.NewBaseVM(r, "Welcome", "/")}
	for _, e := range edirs {
		data.Edirs = append(data.Edirs, edirRow{
			Name:        e.Name,
			Description: e.Description,
			LoginURL:    routetable.LoginPath(e.Slug),
			RegisterURL: routetable.RegisterPath(e.Slug),
		})
	}
	templates.Render(w, r, "home", data)
}

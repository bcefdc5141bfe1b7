// internal/app/features/dashboard/resources.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	resourcestore "github.com/dalemusser/edirhub/internal/app/store/resources"
	"github.com/dalemusser/edirhub/internal/app/system/authz"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type resourceRow struct {
	ID          string
	Name        string
	Description string
	Quantity    int
	Status      string
	StatusLabel string
	UpdatedAt   time.Time
	StatusURL   string
}

type statusOption struct {
	Value string
	Label string
	Count int64
}

type resourceData struct {
	baseDashboardData
	Resources []resourceRow
	Statuses  []statusOption
	CanManage bool
	AddURL    string

	// echoed on validation errors
	Name        string
	Description string
	Quantity    string
}

var statusLabels = map[string]string{
	models.ResourceAvailable:   "Available",
	models.ResourceInUse:       "In use",
	models.ResourceMaintenance: "Under maintenance",
	models.ResourceRetired:     "Retired",
}

func (h *Handler) ServeResources(w http.ResponseWriter, r *http.Request) {
	h.renderResources(w, r, resourceData{})
}

func (h *Handler) renderResources(w http.ResponseWriter, r *http.Request, data resourceData) {
	info, _, ok := scope(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Resources.ListByEdir(ctx, info.ID, "")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list resources failed", err, "A database error occurred.", "/")
		return
	}
	counts, err := h.Resources.CountByStatus(ctx, info.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count resources failed", err, "A database error occurred.", "/")
		return
	}

	msg := data.Error
	data.baseDashboardData = newBase(r, info.Name+" · Resources")
	data.Error = msg
	data.CanManage = authz.CanManageResources(r)
	data.AddURL = actionPath(routetable.ViewResources, "add_resource", info.Slug, nil)
	for _, st := range models.ResourceStatuses {
		data.Statuses = append(data.Statuses, statusOption{Value: st, Label: statusLabels[st], Count: counts[st]})
	}
	for _, res := range list {
		data.Resources = append(data.Resources, resourceRow{
			ID:          res.ID.Hex(),
			Name:        res.Name,
			Description: res.Description,
			Quantity:    res.Quantity,
			Status:      res.Status,
			StatusLabel: statusLabels[res.Status],
			UpdatedAt:   res.UpdatedAt,
			StatusURL:   actionPath(routetable.ViewResources, "set_status", info.Slug, map[string]string{"resourceID": res.ID.Hex()}),
		})
	}

	templates.Render(w, r, "resource_dashboard", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /{edirslug}/propertymanager/dashboard/resources                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAddResource(w http.ResponseWriter, r *http.Request) {
	info, actorID, ok := scope(w, r)
	if !ok {
		return
	}
	back := pagePath(routetable.ViewResources, info.Slug, "")
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}

	in := resourceData{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Quantity:    strings.TrimSpace(r.FormValue("quantity")),
	}
	fail := func(msg string) {
		in.Error = msg
		h.renderResources(w, r, in)
	}

	qty := 1
	if in.Quantity != "" {
		n, err := strconv.Atoi(in.Quantity)
		if err != nil || n < 0 {
			fail("Quantity must be a whole number, zero or more.")
			return
		}
		qty = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Resources.Create(ctx, models.Resource{
		EdirID:      info.ID,
		Name:        in.Name,
		Description: in.Description,
		Quantity:    qty,
	})
	switch {
	case errors.Is(err, resourcestore.ErrNameRequired):
		fail("Give the resource a name.")
		return
	case errors.Is(err, resourcestore.ErrDuplicateName):
		fail("This Edir already has a resource with that name.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create resource failed", err, "A database error occurred.", back)
		return
	}

	h.AuditLog.ResourceCreated(ctx, r, actorID, info.ID, res.ID, res.Name)
	http.Redirect(w, r, pagePath(routetable.ViewResources, info.Slug, "resource"), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST …/resources/{resourceID}/status                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	info, actorID, ok := scope(w, r)
	if !ok {
		return
	}
	back := pagePath(routetable.ViewResources, info.Slug, "")

	resourceID, err := objectIDParam(r, "resourceID")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid resource.", back)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}
	st := strings.TrimSpace(r.FormValue("status"))
	if !resourcestore.IsValidStatus(st) {
		uierrors.RenderBadRequest(w, r, "Choose a valid status.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Resources.SetStatus(ctx, info.ID, resourceID, st); errors.Is(err, resourcestore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That resource does not exist.", back)
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "set resource status failed", err, "A database error occurred.", back)
		return
	}

	h.AuditLog.ResourceStatusChanged(ctx, r, actorID, info.ID, resourceID, st)
	http.Redirect(w, r, pagePath(routetable.ViewResources, info.Slug, "status"), http.StatusSeeOther)
}

// internal/app/features/dashboard/eventcoordinator.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/edirhub/internal/app/routetable"
	eventstore "github.com/dalemusser/edirhub/internal/app/store/events"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// startsAtLayout matches <input type="datetime-local">.
const startsAtLayout = "2006-01-02T15:04"

type eventRow struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
}

type eventData struct {
	baseDashboardData
	Events       []eventRow
	Resources    []resourceRow
	CreateURL    string
	ResourcesURL string
	MinStart     string

	// echoed on validation errors
	EventTitle  string
	Description string
	Place       string
	StartsAt    string
}

func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	h.renderEvents(w, r, eventData{})
}

func (h *Handler) renderEvents(w http.ResponseWriter, r *http.Request, data eventData) {
	info, _, ok := scope(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	now := h.now()
	upcoming, err := h.Events.Upcoming(ctx, info.ID, now, 50)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list events failed", err, "A database error occurred.", "/")
		return
	}
	available, err := h.Resources.ListByEdir(ctx, info.ID, models.ResourceAvailable)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list resources failed", err, "A database error occurred.", "/")
		return
	}

	msg := data.Error
	data.baseDashboardData = newBase(r, info.Name+" · Events")
	data.Error = msg
	data.CreateURL = actionPath(routetable.ViewEventCoordinator, "create_event", info.Slug, nil)
	data.ResourcesURL = routetable.Expand("/{edirslug}/eventcoordinator/dashboard/resources", map[string]string{routetable.TenantParam: info.Slug})
	data.MinStart = now.In(h.Location).Format(startsAtLayout)
	for _, e := range upcoming {
		data.Events = append(data.Events, toEventRow(e, h.Location))
	}
	for _, res := range available {
		data.Resources = append(data.Resources, resourceRow{Name: res.Name, Quantity: res.Quantity, Description: res.Description})
	}

	templates.Render(w, r, "eventcoordinator_dashboard", data)
}

func toEventRow(e models.Event, loc *time.Location) eventRow {
	return eventRow{
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt.In(loc),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /{edirslug}/eventcoordinator/dashboard/events                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	info, actorID, ok := scope(w, r)
	if !ok {
		return
	}
	back := pagePath(routetable.ViewEventCoordinator, info.Slug, "")
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}

	in := eventData{
		EventTitle:  strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Place:       strings.TrimSpace(r.FormValue("location")),
		StartsAt:    strings.TrimSpace(r.FormValue("starts_at")),
	}
	fail := func(msg string) {
		in.Error = msg
		h.renderEvents(w, r, in)
	}

	startsAt, err := time.ParseInLocation(startsAtLayout, in.StartsAt, h.Location)
	if err != nil {
		fail("Enter when the event starts.")
		return
	}
	if startsAt.Before(h.now()) {
		fail("The event must start in the future.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Events.Create(ctx, models.Event{
		EdirID:      info.ID,
		Title:       in.EventTitle,
		Description: in.Description,
		Location:    in.Place,
		StartsAt:    startsAt,
		CreatedBy:   actorID,
	})
	if errors.Is(err, eventstore.ErrTitleRequired) {
		fail("Give the event a title.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create event failed", err, "A database error occurred.", back)
		return
	}

	h.AuditLog.EventCreated(ctx, r, actorID, info.ID, e.ID, e.Title)
	http.Redirect(w, r, pagePath(routetable.ViewEventCoordinator, info.Slug, "event"), http.StatusSeeOther)
}

// internal/app/features/dashboard/member.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type memberData struct {
	baseDashboardData
	Contributions []contributionRow
	Total         string
	Events        []eventRow
	Resources     []resourceRow
	LastLogin     *time.Time
}

// ServeMember shows the signed-in user their own standing in the Edir.
func (h *Handler) ServeMember(w http.ResponseWriter, r *http.Request) {
	info, actorID, ok := scope(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	mine, err := h.Contributions.ListByMember(ctx, info.ID, actorID, 50)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list contributions failed", err, "A database error occurred.", "/")
		return
	}
	total, err := h.Contributions.TotalByMember(ctx, info.ID, actorID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "total contributions failed", err, "A database error occurred.", "/")
		return
	}
	upcoming, err := h.Events.Upcoming(ctx, info.ID, h.now(), 10)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list events failed", err, "A database error occurred.", "/")
		return
	}
	available, err := h.Resources.ListByEdir(ctx, info.ID, models.ResourceAvailable)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list resources failed", err, "A database error occurred.", "/")
		return
	}

	data := memberData{
		baseDashboardData: newBase(r, info.Name+" · My Edir"),
		Total:             formatBirr(total),
	}
	if last, err := h.Logins.LastForUser(ctx, actorID); err != nil {
		h.Log.Warn("last login unavailable", zap.Error(err))
	} else if last != nil {
		at := last.CreatedAt.In(h.Location)
		data.LastLogin = &at
	}
	for _, c := range mine {
		data.Contributions = append(data.Contributions, contributionRow{
			Amount: formatBirr(c.AmountCents),
			Note:   c.Note,
			PaidAt: c.PaidAt,
		})
	}
	for _, e := range upcoming {
		data.Events = append(data.Events, toEventRow(e, h.Location))
	}
	for _, res := range available {
		data.Resources = append(data.Resources, resourceRow{Name: res.Name, Quantity: res.Quantity, Description: res.Description})
	}

	templates.Render(w, r, "member_dashboard", data)
}

// internal/app/features/dashboard/treasurer.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/edirhub/internal/app/routetable"
	userstore "github.com/dalemusser/edirhub/internal/app/store/users"
	"github.com/dalemusser/edirhub/internal/app/system/authz"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contributionRow struct {
	MemberName string
	Amount     string
	Note       string
	PaidAt     time.Time
}

type memberOption struct {
	ID       string
	FullName string
}

type treasurerData struct {
	baseDashboardData
	Members       []memberOption
	Contributions []contributionRow
	Total         string
	CanRecord     bool
	RecordURL     string

	// echoed on validation errors
	MemberID string
	Amount   string
	NoteIn   string
	PaidOn   string
}

func (h *Handler) ServeTreasurer(w http.ResponseWriter, r *http.Request) {
	h.renderTreasurer(w, r, treasurerData{})
}

func (h *Handler) renderTreasurer(w http.ResponseWriter, r *http.Request, data treasurerData) {
	info, _, ok := scope(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members, err := h.Users.ListByEdir(ctx, info.ID, status.Active)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members failed", err, "A database error occurred.", "/")
		return
	}
	recent, err := h.Contributions.ListByEdir(ctx, info.ID, 25)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list contributions failed", err, "A database error occurred.", "/")
		return
	}
	total, err := h.Contributions.TotalByEdir(ctx, info.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "total contributions failed", err, "A database error occurred.", "/")
		return
	}

	msg := data.Error
	data.baseDashboardData = newBase(r, info.Name+" · Treasurer")
	data.Error = msg
	data.Total = formatBirr(total)
	data.CanRecord = authz.CanRecordContributions(r)
	data.RecordURL = actionPath(routetable.ViewTreasurer, "record_contribution", info.Slug, nil)
	if data.PaidOn == "" {
		data.PaidOn = h.now().In(h.Location).Format("2006-01-02")
	}
	for _, m := range members {
		data.Members = append(data.Members, memberOption{ID: m.ID.Hex(), FullName: m.FullName})
	}
	for _, c := range recent {
		data.Contributions = append(data.Contributions, contributionRow{
			MemberName: c.MemberName,
			Amount:     formatBirr(c.AmountCents),
			Note:       c.Note,
			PaidAt:     c.PaidAt,
		})
	}

	templates.Render(w, r, "treasurer_dashboard", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /{edirslug}/treasurer/dashboard/contributions                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRecordContribution(w http.ResponseWriter, r *http.Request) {
	info, actorID, ok := scope(w, r)
	if !ok {
		return
	}
	back := pagePath(routetable.ViewTreasurer, info.Slug, "")
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}

	in := treasurerData{
		MemberID: strings.TrimSpace(r.FormValue("member_id")),
		Amount:   strings.TrimSpace(r.FormValue("amount")),
		NoteIn:   strings.TrimSpace(r.FormValue("note")),
		PaidOn:   strings.TrimSpace(r.FormValue("paid_on")),
	}
	fail := func(msg string) {
		in.Error = msg
		h.renderTreasurer(w, r, in)
	}

	cents, err := parseBirr(in.Amount)
	if err != nil {
		fail("Enter an amount in birr, for example 150 or 150.50.")
		return
	}
	paidAt := h.now().UTC()
	if in.PaidOn != "" {
		d, err := time.ParseInLocation("2006-01-02", in.PaidOn, h.Location)
		if err != nil || d.After(h.now()) {
			fail("Enter the payment date as YYYY-MM-DD, not in the future.")
			return
		}
		paidAt = d.UTC()
	}
	memberID, err := primitive.ObjectIDFromHex(in.MemberID)
	if err != nil {
		fail("Choose the member who paid.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	member, err := h.Users.GetInEdir(ctx, info.ID, memberID)
	if errors.Is(err, userstore.ErrNotFound) || (err == nil && member.Status != status.Active) {
		fail("Choose an active member of this Edir.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member failed", err, "A database error occurred.", back)
		return
	}

	c, err := h.Contributions.Create(ctx, models.Contribution{
		EdirID:      info.ID,
		MemberID:    member.ID,
		MemberName:  member.FullName,
		AmountCents: cents,
		Note:        in.NoteIn,
		RecordedBy:  actorID,
		PaidAt:      paidAt,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "record contribution failed", err, "A database error occurred.", back)
		return
	}

	h.AuditLog.ContributionRecorded(ctx, r, actorID, member.ID, info.ID, c.AmountCents)
	http.Redirect(w, r, pagePath(routetable.ViewTreasurer, info.Slug, "contribution"), http.StatusSeeOther)
}

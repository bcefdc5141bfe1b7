// internal/app/features/dashboard/head.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	metricsstore "github.com/dalemusser/edirhub/internal/app/store/metrics"
	userstore "github.com/dalemusser/edirhub/internal/app/store/users"
	"github.com/dalemusser/edirhub/internal/app/system/normalize"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type memberRow struct {
	ID        string
	FullName  string
	Email     string
	Phone     string
	Role      string
	RoleLabel string
	Since     time.Time

	ApproveURL string
	RejectURL  string
	RoleURL    string
}

type roleOption struct {
	Value string
	Label string
}

type loginRow struct {
	UserName string
	At       time.Time
	Provider string
}

type headData struct {
	baseDashboardData
	Counts  metricsstore.EdirCounts
	Pending []memberRow
	Members []memberRow
	Roles   []roleOption
	Logins  []loginRow
	SelfID  string
}

func (h *Handler) ServeHead(w http.ResponseWriter, r *http.Request) {
	info, actorID, ok := scope(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pending, err := h.Users.ListByEdir(ctx, info.ID, status.Pending)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list pending members failed", err, "A database error occurred.", "/")
		return
	}
	active, err := h.Users.ListByEdir(ctx, info.ID, status.Active)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list members failed", err, "A database error occurred.", "/")
		return
	}
	recent, err := h.Logins.RecentByEdir(ctx, info.ID, 10)
	if err != nil {
		h.Log.Warn("recent logins unavailable", zap.Error(err))
	}

	data := headData{
		baseDashboardData: newBase(r, info.Name+" · Head"),
		Counts:            metricsstore.FetchEdirCounts(ctx, h.DB, info.ID),
		SelfID:            actorID.Hex(),
	}
	for _, u := range pending {
		data.Pending = append(data.Pending, h.memberRow(info.Slug, u, u.CreatedAt))
	}
	for _, u := range active {
		since := u.CreatedAt
		if u.ApprovedAt != nil {
			since = *u.ApprovedAt
		}
		data.Members = append(data.Members, h.memberRow(info.Slug, u, since))
	}
	for _, role := range models.EdirRoles {
		data.Roles = append(data.Roles, roleOption{Value: role, Label: models.RoleLabel(role)})
	}
	for _, l := range recent {
		data.Logins = append(data.Logins, loginRow{UserName: l.UserName, At: l.CreatedAt, Provider: l.Provider})
	}

	templates.Render(w, r, "head_dashboard", data)
}

func (h *Handler) memberRow(slug string, u models.User, since time.Time) memberRow {
	id := map[string]string{"userID": u.ID.Hex()}
	return memberRow{
		ID:         u.ID.Hex(),
		FullName:   u.FullName,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       u.Role,
		RoleLabel:  models.RoleLabel(u.Role),
		Since:      since,
		ApproveURL: actionPath(routetable.ViewHeadDashboard, "approve_member", slug, id),
		RejectURL:  actionPath(routetable.ViewHeadDashboard, "reject_member", slug, id),
		RoleURL:    actionPath(routetable.ViewHeadDashboard, "assign_role", slug, id),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST …/members/{userID}/approve, …/reject                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleApproveMember(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *Handler) HandleRejectMember(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	info, actorID, ok := scope(w, r)
	if !ok {
		return
	}
	back := pagePath(routetable.ViewHeadDashboard, info.Slug, "")

	userID, err := objectIDParam(r, "userID")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid member.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	notice := "approved"
	if approve {
		err = h.Users.Approve(ctx, info.ID, userID)
	} else {
		notice = "rejected"
		err = h.Users.Reject(ctx, info.ID, userID)
	}
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That registration is not awaiting approval.", back)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "member decision failed", err, "A database error occurred.", back)
		return
	}

	if approve {
		h.AuditLog.MemberApproved(ctx, r, actorID, userID, info.ID)
	} else {
		h.AuditLog.MemberRejected(ctx, r, actorID, userID, info.ID)
	}
	http.Redirect(w, r, pagePath(routetable.ViewHeadDashboard, info.Slug, notice), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST …/members/{userID}/role                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	info, actorID, ok := scope(w, r)
	if !ok {
		return
	}
	back := pagePath(routetable.ViewHeadDashboard, info.Slug, "")

	userID, err := objectIDParam(r, "userID")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid member.", back)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}
	role := normalize.Role(r.FormValue("role"))
	if !models.IsEdirRole(role) {
		uierrors.RenderBadRequest(w, r, "Choose one of the Edir roles.", back)
		return
	}
	if userID == actorID && role != models.RoleHead {
		uierrors.RenderForbidden(w, r, "You cannot remove your own head role. Ask another head to change it.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	target, err := h.Users.GetInEdir(ctx, info.ID, userID)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That member does not exist.", back)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member failed", err, "A database error occurred.", back)
		return
	}

	if err := h.Users.SetRole(ctx, info.ID, userID, role); errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderBadRequest(w, r, "Only active members can be given a role.", back)
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "set role failed", err, "A database error occurred.", back)
		return
	}

	h.AuditLog.RoleAssigned(ctx, r, actorID, userID, info.ID, target.Role, role)
	http.Redirect(w, r, pagePath(routetable.ViewHeadDashboard, info.Slug, "role"), http.StatusSeeOther)
}

// internal/app/features/ediradmin/handler.go
package ediradmin

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	edirstore "github.com/dalemusser/edirhub/internal/app/store/edirs"
	requeststore "github.com/dalemusser/edirhub/internal/app/store/edirrequests"
	metricsstore "github.com/dalemusser/edirhub/internal/app/store/metrics"
	userstore "github.com/dalemusser/edirhub/internal/app/store/users"
	"github.com/dalemusser/edirhub/internal/app/system/auditlog"
	"github.com/dalemusser/edirhub/internal/app/system/authz"
	"github.com/dalemusser/edirhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/app/system/txn"
	"github.com/dalemusser/edirhub/internal/app/system/viewdata"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the cross-tenant administration page where the superadmin
// decides Edir requests and suspends or reactivates Edirs.
type Handler struct {
	DB       *mongo.Database
	Edirs    *edirstore.Store
	Requests *requeststore.Store
	Users    *userstore.Store
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Edirs:    edirstore.New(db),
		Requests: requeststore.New(db),
		Users:    userstore.New(db),
		ErrLog:   errLog,
		AuditLog: auditLog,
		Log:      logger,
	}
}

type requestRow struct {
	ID             string
	Reference      string
	EdirName       string
	Slug           string
	SlugProblem    string
	Description    template.HTML
	RequesterName  string
	RequesterEmail string
	RequesterPhone string
	CreatedAt      time.Time
	ApproveURL     string
	RejectURL      string
}

type edirRow struct {
	Name      string
	Slug      string
	Status    string
	Active    bool
	Members   int64
	CreatedAt time.Time
	LoginURL  string
	StatusURL string
}

type adminData struct {
	viewdata.BaseVM
	Notice   string
	Error    string
	Counts   metricsstore.AdminCounts
	Requests []requestRow
	Edirs    []edirRow
}

var notices = map[string]string{
	"approved":  "Edir created and its head can now sign in.",
	"rejected":  "Request rejected.",
	"suspended": "Edir suspended.",
	"active":    "Edir reactivated.",
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /edir/admin                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pending, err := h.Requests.ListByStatus(ctx, status.Pending)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list edir requests failed", err, "A database error occurred.", "/")
		return
	}
	edirs, err := h.Edirs.ListAll(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list edirs failed", err, "A database error occurred.", "/")
		return
	}

	data := adminData{
		BaseVM: viewdata.NewBaseVM(r, "Edir administration", "/"),
		Notice: notices[query.Get(r, "notice")],
		Counts: metricsstore.FetchAdminCounts(ctx, h.DB),
	}
	for _, req := range pending {
		data.Requests = append(data.Requests, h.requestRow(ctx, req))
	}
	for _, e := range edirs {
		n, err := h.Users.CountByEdir(ctx, e.ID, status.Active)
		if err != nil {
			h.Log.Warn("count edir members failed", zap.String("edir", e.Slug), zap.Error(err))
		}
		data.Edirs = append(data.Edirs, edirRow{
			Name:      e.Name,
			Slug:      e.Slug,
			Status:    e.Status,
			Active:    e.IsActive(),
			Members:   n,
			CreatedAt: e.CreatedAt,
			LoginURL:  routetable.LoginPath(e.Slug),
			StatusURL: routetable.ActionPath(routetable.ViewEdirAdmin, "set_edir_status", map[string]string{"edirID": e.ID.Hex()}),
		})
	}

	templates.Render(w, r, "edir_admin", data)
}

func (h *Handler) requestRow(ctx context.Context, req models.EdirRequest) requestRow {
	id := map[string]string{"requestID": req.ID.Hex()}
	row := requestRow{
		ID:             req.ID.Hex(),
		Reference:      req.Reference,
		EdirName:       req.EdirName,
		Slug:           req.Slug,
		Description:    htmlsanitize.PrepareForDisplay(req.Description),
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		RequesterPhone: req.RequesterPhone,
		CreatedAt:      req.CreatedAt,
		ApproveURL:     routetable.ActionPath(routetable.ViewEdirAdmin, "approve_request", id),
		RejectURL:      routetable.ActionPath(routetable.ViewEdirAdmin, "reject_request", id),
	}
	// Re-checked at review time; another Edir may have taken the slug.
	if err := h.slugProblem(ctx, req.Slug); err != nil {
		row.SlugProblem = err.Error()
	}
	return row
}

var errSlugTaken = errors.New("another Edir already uses this address")

func (h *Handler) slugProblem(ctx context.Context, slug string) error {
	if err := routetable.CheckSlug(slug); err != nil {
		return err
	}
	taken, err := h.Edirs.SlugExists(ctx, slug)
	if err != nil {
		return err
	}
	if taken {
		return errSlugTaken
	}
	return nil
}

func adminPath(notice string) string {
	return "/edir/admin?notice=" + url.QueryEscape(notice)
}

func objectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, name))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /edir/admin/requests/{requestID}/approve                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleApproveRequest creates the Edir and its head account from a pending
// request. All three writes happen in one transaction when the deployment
// supports it; otherwise a failed step deletes what the earlier steps wrote.
func (h *Handler) HandleApproveRequest(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}
	requestID, err := objectIDParam(r, "requestID")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid request.", "/edir/admin")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	req, err := h.Requests.GetByID(ctx, requestID)
	if errors.Is(err, requeststore.ErrNotFound) || (err == nil && req.Status != status.Pending) {
		uierrors.RenderNotFound(w, r, "That request is not awaiting a decision.", "/edir/admin")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load edir request failed", err, "A database error occurred.", "/edir/admin")
		return
	}
	if err := h.slugProblem(ctx, req.Slug); err != nil {
		if errors.Is(err, errSlugTaken) || errors.Is(err, routetable.ErrSlugFormat) || errors.Is(err, routetable.ErrSlugReserved) {
			uierrors.RenderBadRequest(w, r, "The requested address /"+req.Slug+" cannot be used: "+err.Error()+". Reject the request with a note asking for another.", "/edir/admin")
			return
		}
		h.ErrLog.LogServerError(w, r, "check slug failed", err, "A database error occurred.", "/edir/admin")
		return
	}

	var edir models.Edir
	var head models.User
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		edir, err = h.Edirs.Create(ctx, models.Edir{
			Name:        req.EdirName,
			Slug:        req.Slug,
			Description: req.Description,
			Status:      status.Active,
		})
		if err != nil {
			return err
		}
		head, err = h.Users.Create(ctx, models.User{
			EdirID:       &edir.ID,
			FullName:     req.RequesterName,
			Email:        req.RequesterEmail,
			Phone:        req.RequesterPhone,
			PasswordHash: req.PasswordHash,
			Role:         models.RoleHead,
			Status:       status.Active,
		})
		if err != nil {
			txn.Undo(ctx, h.Log, "edir", func(ctx context.Context) error { return h.Edirs.Delete(ctx, edir.ID) })
			return err
		}
		if err := h.Requests.MarkApproved(ctx, req.ID, edir.ID); err != nil {
			txn.Undo(ctx, h.Log, "head", func(ctx context.Context) error { return h.Users.Delete(ctx, head.ID) })
			txn.Undo(ctx, h.Log, "edir", func(ctx context.Context) error { return h.Edirs.Delete(ctx, edir.ID) })
			return err
		}
		return nil
	})
	switch {
	case errors.Is(err, edirstore.ErrDuplicateSlug):
		uierrors.RenderBadRequest(w, r, "Another Edir took this address while you were reviewing.", "/edir/admin")
		return
	case errors.Is(err, requeststore.ErrNotFound):
		uierrors.RenderNotFound(w, r, "That request was decided by someone else.", "/edir/admin")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "approve edir request failed", err, "The Edir could not be created.", "/edir/admin")
		return
	}

	h.Log.Info("edir created",
		zap.String("slug", edir.Slug),
		zap.String("request", req.Reference),
		zap.String("head", head.ID.Hex()))
	h.AuditLog.EdirRequestApproved(ctx, r, actorID, req.ID, edir.ID, head.ID)
	http.Redirect(w, r, adminPath("approved"), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /edir/admin/requests/{requestID}/reject                                |
*─────────────────────────────────────────────────────────────────────────────*/

const maxReasonLen = 500

func (h *Handler) HandleRejectRequest(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}
	requestID, err := objectIDParam(r, "requestID")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid request.", "/edir/admin")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/edir/admin")
		return
	}
	reason := htmlsanitize.StripTags(strings.TrimSpace(r.FormValue("reason")))
	if reason == "" {
		uierrors.RenderBadRequest(w, r, "Give the requester a reason for the rejection.", "/edir/admin")
		return
	}
	if rs := []rune(reason); len(rs) > maxReasonLen {
		reason = string(rs[:maxReasonLen])
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Requests.MarkRejected(ctx, requestID, reason); errors.Is(err, requeststore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That request is not awaiting a decision.", "/edir/admin")
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "reject edir request failed", err, "A database error occurred.", "/edir/admin")
		return
	}

	h.AuditLog.EdirRequestRejected(ctx, r, actorID, requestID, reason)
	http.Redirect(w, r, adminPath("rejected"), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /edir/admin/edirs/{edirID}/status                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSetEdirStatus(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "")
		return
	}
	edirID, err := objectIDParam(r, "edirID")
	if err != nil {
		uierrors.RenderBadRequest(w, r, "Invalid Edir.", "/edir/admin")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/edir/admin")
		return
	}
	st := status.Normalize(r.FormValue("status"))
	if !status.IsValidEdir(st) {
		uierrors.RenderBadRequest(w, r, "Status must be active or suspended.", "/edir/admin")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Edirs.SetStatus(ctx, edirID, st); errors.Is(err, edirstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "That Edir does not exist.", "/edir/admin")
		return
	} else if err != nil {
		h.ErrLog.LogServerError(w, r, "set edir status failed", err, "A database error occurred.", "/edir/admin")
		return
	}

	h.AuditLog.EdirStatusChanged(ctx, r, actorID, edirID, st)
	http.Redirect(w, r, adminPath(st), http.StatusSeeOther)
}

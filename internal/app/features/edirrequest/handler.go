// internal/app/features/edirrequest/handler.go
package edirrequest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	uierrors "github.com/dalemusser/edirhub/internal/app/features/errors"
	"github.com/dalemusser/edirhub/internal/app/routetable"
	edirstore "github.com/dalemusser/edirhub/internal/app/store/edirs"
	requeststore "github.com/dalemusser/edirhub/internal/app/store/edirrequests"
	"github.com/dalemusser/edirhub/internal/app/system/auditlog"
	"github.com/dalemusser/edirhub/internal/app/system/authutil"
	"github.com/dalemusser/edirhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/edirhub/internal/app/system/metrics"
	"github.com/dalemusser/edirhub/internal/app/system/normalize"
	"github.com/dalemusser/edirhub/internal/app/system/status"
	"github.com/dalemusser/edirhub/internal/app/system/timeouts"
	"github.com/dalemusser/edirhub/internal/app/system/viewdata"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 2000
)

// Handler serves the public form for asking to found a new Edir.
type Handler struct {
	Edirs    *edirstore.Store
	Requests *requeststore.Store
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, auditLog *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Edirs:    edirstore.New(db),
		Requests: requeststore.New(db),
		ErrLog:   errLog,
		AuditLog: auditLog,
		Metrics:  m,
		Log:      logger,
	}
}

type formData struct {
	viewdata.BaseVM

	RequestedName string
	Slug          string
	Description   string
	FullName      string
	Email         string
	Phone         string
	PasswordRules string
	Error         string
}

// statusData is shown after submitting and whenever ?ref= is given.
type statusData struct {
	viewdata.BaseVM

	Reference     string
	RequestedName string
	Slug          string
	Status        string
	Reason        string
	LoginURL      string
	NotFound      bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /edir/request                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRequest(w http.ResponseWriter, r *http.Request) {
	ref := query.Get(r, "ref")
	if ref == "" {
		h.renderForm(w, r, formData{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	data := statusData{BaseVM: viewdata.NewBaseVM(r, "Your Edir request", "/"), Reference: strings.ToUpper(ref)}
	req, err := h.Requests.GetByReference(ctx, ref)
	switch {
	case errors.Is(err, requeststore.ErrNotFound):
		data.NotFound = true
	case err != nil:
		h.ErrLog.LogServerError(w, r, "load edir request failed", err, "A database error occurred.", "/")
		return
	default:
		data.RequestedName = req.EdirName
		data.Slug = req.Slug
		data.Status = req.Status
		data.Reason = req.Reason
		if req.Status == status.Approved {
			data.LoginURL = routetable.LoginPath(req.Slug)
		}
	}
	templates.Render(w, r, "edir_request_status", data)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, data formData) {
	data.BaseVM = viewdata.NewBaseVM(r, "Start an Edir", "/")
	data.PasswordRules = authutil.PasswordRules()
	templates.Render(w, r, "edir_request", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /edir/request                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/edir/request")
		return
	}

	data := formData{
		RequestedName: normalize.Name(r.FormValue("edir_name")),
		Slug:          normalize.Slug(r.FormValue("slug")),
		Description:   strings.TrimSpace(r.FormValue("description")),
		FullName:      normalize.Name(r.FormValue("full_name")),
		Email:         normalize.Email(r.FormValue("email")),
		Phone:         normalize.Phone(r.FormValue("phone")),
	}
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	if msg := validate(data, password, confirm); msg != "" {
		data.Error = msg
		h.renderForm(w, r, data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if msg, err := h.slugAvailable(ctx, data.Slug); err != nil {
		h.ErrLog.LogServerError(w, r, "check slug failed", err, "A database error occurred.", "/edir/request")
		return
	} else if msg != "" {
		data.Error = msg
		h.renderForm(w, r, data)
		return
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Something went wrong.", "/edir/request")
		return
	}

	req, err := h.Requests.Create(ctx, models.EdirRequest{
		Reference:      requeststore.NewReference(),
		EdirName:       data.RequestedName,
		Slug:           data.Slug,
		Description:    htmlsanitize.Sanitize(data.Description),
		RequesterName:  data.FullName,
		RequesterEmail: data.Email,
		RequesterPhone: data.Phone,
		PasswordHash:   hash,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create edir request failed", err, "A database error occurred.", "/edir/request")
		return
	}

	h.AuditLog.EdirRequested(ctx, r, req.ID, req.Slug, req.Reference)
	h.Metrics.ObserveEdirRequest()
	h.Log.Info("edir requested",
		zap.String("slug", req.Slug),
		zap.String("reference", req.Reference))

	http.Redirect(w, r, "/edir/request?ref="+url.QueryEscape(req.Reference), http.StatusSeeOther)
}

func validate(d formData, password, confirm string) string {
	switch {
	case d.RequestedName == "":
		return "Please enter the Edir's name."
	case utf8.RuneCountInString(d.RequestedName) > maxNameLen:
		return "The Edir's name is too long."
	case utf8.RuneCountInString(d.Description) > maxDescriptionLen:
		return "The description is too long."
	case d.FullName == "":
		return "Please enter your full name."
	case !authutil.IsValidEmail(d.Email):
		return "Please enter a valid email address."
	}
	switch err := routetable.CheckSlug(d.Slug); {
	case errors.Is(err, routetable.ErrSlugReserved):
		return "The web address /" + d.Slug + " is reserved. Please choose another."
	case err != nil:
		return "The web address must be 3 to 40 lowercase letters, digits or hyphens."
	}
	switch err := authutil.ValidateNewPassword(password, confirm); {
	case errors.Is(err, authutil.ErrPasswordMismatch):
		return "The passwords do not match."
	case err != nil:
		s := err.Error()
		return strings.ToUpper(s[:1]) + s[1:] + "."
	}
	return ""
}

// slugAvailable returns a message for the visitor when slug is already used
// by an Edir or asked for by another pending request.
func (h *Handler) slugAvailable(ctx context.Context, slug string) (string, error) {
	taken, err := h.Edirs.SlugExists(ctx, slug)
	if err != nil {
		return "", err
	}
	if taken {
		return "Another Edir already uses /" + slug + ". Please choose another address.", nil
	}
	asked, err := h.Requests.PendingSlugExists(ctx, slug)
	if err != nil {
		return "", err
	}
	if asked {
		return "Someone has already asked for /" + slug + ". Please choose another address.", nil
	}
	return "", nil
}

// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/dalemusser/edirhub/internal/app/system/viewdata"
)

// pageData is the view model for every error page.
type pageData struct {
	viewdata.BaseVM
	Heading string
	Message string
}

// Handler serves the error pages that have their own URL.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusForbidden, "Access denied", "You don't have permission to view this page.", "/")
}

// Handlers binds the handler to its route table views.
func (h *Handler) Handlers() routetable.Handlers {
	hs := routetable.Handlers{}
	hs.Page(routetable.ViewForbidden, h.Forbidden)
	return hs
}

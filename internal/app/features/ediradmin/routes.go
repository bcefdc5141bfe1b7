package ediradmin

import "github.com/dalemusser/edirhub/internal/app/routetable"

// Handlers binds /edir/admin and its actions.
func Handlers(h *Handler) routetable.Handlers {
	hs := routetable.Handlers{}
	hs.Page(routetable.ViewEdirAdmin, h.ServeAdmin)
	hs.Action(routetable.ViewEdirAdmin, "approve_request", h.HandleApproveRequest)
	hs.Action(routetable.ViewEdirAdmin, "reject_request", h.HandleRejectRequest)
	hs.Action(routetable.ViewEdirAdmin, "set_edir_status", h.HandleSetEdirStatus)
	return hs
}

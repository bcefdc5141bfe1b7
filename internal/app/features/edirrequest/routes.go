package edirrequest

import "github.com/dalemusser/edirhub/internal/app/routetable"

// Handlers binds /edir/request.
func Handlers(h *Handler) routetable.Handlers {
	hs := routetable.Handlers{}
	hs.Page(routetable.ViewEdirRequest, h.ServeRequest)
	hs.Action(routetable.ViewEdirRequest, "submit", h.HandleSubmit)
	return hs
}

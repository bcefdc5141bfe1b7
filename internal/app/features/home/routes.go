package home

import "github.com/dalemusser/edirhub/internal/app/routetable"

// Handlers binds the landing page.
func Handlers(h *Handler) routetable.Handlers {
	hs := routetable.Handlers{}
	hs.Page(routetable.ViewHome, h.ServeRoot)
	return hs
}

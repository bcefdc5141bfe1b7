// internal/app/features/login/routes.go
package login

import "github.com/dalemusser/edirhub/internal/app/routetable"

// Handlers binds the global and per-Edir sign-in pages.
func Handlers(h *Handler) routetable.Handlers {
	hs := routetable.Handlers{}
	hs.Page(routetable.ViewLogin, h.ServeLogin)
	hs.Action(routetable.ViewLogin, "submit", h.HandleLoginPost)
	return hs
}

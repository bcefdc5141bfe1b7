// internal/app/features/dashboard/routes.go
package dashboard

import "github.com/dalemusser/edirhub/internal/app/routetable"

// Handlers binds every per-role dashboard view and its form actions.
func Handlers(h *Handler) routetable.Handlers {
	hs := routetable.Handlers{}

	hs.Page(routetable.ViewHeadDashboard, h.ServeHead)
	hs.Action(routetable.ViewHeadDashboard, "approve_member", h.HandleApproveMember)
	hs.Action(routetable.ViewHeadDashboard, "reject_member", h.HandleRejectMember)
	hs.Action(routetable.ViewHeadDashboard, "assign_role", h.HandleAssignRole)

	hs.Page(routetable.ViewTreasurer, h.ServeTreasurer)
	hs.Action(routetable.ViewTreasurer, "record_contribution", h.HandleRecordContribution)

	hs.Page(routetable.ViewResources, h.ServeResources)
	hs.Action(routetable.ViewResources, "add_resource", h.HandleAddResource)
	hs.Action(routetable.ViewResources, "set_status", h.HandleSetStatus)

	hs.Page(routetable.ViewEventCoordinator, h.ServeEvents)
	hs.Action(routetable.ViewEventCoordinator, "create_event", h.HandleCreateEvent)

	hs.Page(routetable.ViewMember, h.ServeMember)
	return hs
}

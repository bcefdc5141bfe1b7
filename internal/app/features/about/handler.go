package about

import (
	"net/http"

	"github.com/dalemusser/edirhub/internal/app/routetable"
	"github.com/dalemusser/edirhub/internal/app/system/viewdata"
	"github.com/dalemusser/edirhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type roleRow struct {
	Label       string
	Description string
}

type pageData struct {
	viewdata.BaseVM
	Roles []roleRow
}

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

var roleDescriptions = map[string]string{
	models.RoleHead:             "Approves new members and assigns officer roles.",
	models.RoleTreasurer:        "Records contributions to the common fund.",
	models.RolePropertyManager:  "Looks after the tents, chairs and utensils the Edir shares.",
	models.RoleEventCoordinator: "Schedules meetings and gatherings.",
	models.RoleMember:           "Sees their contributions, upcoming events and available property.",
}

func (h *Handler) ServeAbout(w http.ResponseWriter, r *http.Request) {
	data := pageData{BaseVM: viewdata.NewBaseVM(r, "About", "/")}
	for _, role := range models.EdirRoles {
		data.Roles = append(data.Roles, roleRow{
			Label:       models.RoleLabel(role),
			Description: roleDescriptions[role],
		})
	}
	templates.Render(w, r, "about", data)
}

// Handlers binds the about page.
func Handlers(h *Handler) routetable.Handlers {
	hs := routetable.Handlers{}
	hs.Page(routetable.ViewAbout, h.ServeAbout)
	return hs
}

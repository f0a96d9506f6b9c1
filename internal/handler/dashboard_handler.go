package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bufordeeds/service-dog-standards/internal/access"
	"github.com/bufordeeds/service-dog-standards/internal/models"
	"github.com/bufordeeds/service-dog-standards/internal/service"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
	"github.com/bufordeeds/service-dog-standards/pkg/response"
)

// DashboardHandler serves role-specific dashboards.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Get godoc
// @Summary Role-based dashboard
// @Description Return the member dashboard, the trainer dashboard for TRAINER, or the admin dashboard for ADMIN and above
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if access.HasPermission(claims.Role, models.RoleAdmin) {
		dashboard, err := h.service.ForAdmin(c.Request.Context(), claims.Role)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil)
		return
	}

	if claims.Role == models.RoleTrainer {
		dashboard, err := h.service.ForTrainer(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil)
		return
	}

	dashboard, err := h.service.ForHandler(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

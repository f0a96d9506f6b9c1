package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	"github.com/bufordeeds/service-dog-standards/internal/service"
	"github.com/bufordeeds/service-dog-standards/pkg/response"
)

// TrainerHandler serves the public trainer directory.
type TrainerHandler struct {
	service *service.TrainerService
}

// NewTrainerHandler creates a new handler.
func NewTrainerHandler(svc *service.TrainerService) *TrainerHandler {
	return &TrainerHandler{service: svc}
}

// Directory godoc
// @Summary List trainers
// @Description Public directory of trainers with public profiles
// @Tags Trainers
// @Produce json
// @Param search query string false "Search by name or business"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /trainers [get]
func (h *TrainerHandler) Directory(c *gin.Context) {
	filter := models.TrainerFilter{Search: c.Query("search")}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	page, err := h.service.Directory(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, page.Trainers, &page.Pagination)
}

// BySlug godoc
// @Summary Get a trainer profile
// @Description Public trainer profile by directory slug
// @Tags Trainers
// @Produce json
// @Param slug path string true "Trainer slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trainers/{slug} [get]
func (h *TrainerHandler) BySlug(c *gin.Context) {
	profile, err := h.service.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profile, nil)
}

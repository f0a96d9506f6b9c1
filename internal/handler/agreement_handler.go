package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	"github.com/bufordeeds/service-dog-standards/internal/service"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
	"github.com/bufordeeds/service-dog-standards/pkg/response"
)

// AgreementHandler wires HTTP endpoints to the agreement service.
type AgreementHandler struct {
	service *service.AgreementService
}

// NewAgreementHandler creates a new handler.
func NewAgreementHandler(svc *service.AgreementService) *AgreementHandler {
	return &AgreementHandler{service: svc}
}

// List godoc
// @Summary List own agreements
// @Description Return the full agreement history for the current user
// @Tags Agreements
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements [get]
func (h *AgreementHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	agreements, err := h.service.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, agreements, nil)
}

// Accept godoc
// @Summary Accept an agreement
// @Description Accept or renew a typed agreement; previous versions are deactivated
// @Tags Agreements
// @Accept json
// @Produce json
// @Param payload body models.AcceptAgreementRequest true "Acceptance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/accept [post]
func (h *AgreementHandler) Accept(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.AcceptAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid acceptance payload"))
		return
	}

	agreement, err := h.service.Accept(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, agreement)
}

// Status godoc
// @Summary Agreement status
// @Description Return the derived lifecycle state for one agreement type
// @Tags Agreements
// @Produce json
// @Param type path string true "Agreement type"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/{type}/status [get]
func (h *AgreementHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.Status(c.Request.Context(), claims.UserID, models.AgreementType(c.Param("type")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// Summaries godoc
// @Summary Agreement summaries
// @Description Return the derived state of every agreement type for the current user
// @Tags Agreements
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /agreements/summaries [get]
func (h *AgreementHandler) Summaries(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summaries, err := h.service.Summaries(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summaries, nil)
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bufordeeds/service-dog-standards/internal/models"
	"github.com/bufordeeds/service-dog-standards/internal/service"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
	"github.com/bufordeeds/service-dog-standards/pkg/response"
)

// DogHandler wires HTTP endpoints to the dog service.
type DogHandler struct {
	service *service.DogService
}

// NewDogHandler creates a new handler.
func NewDogHandler(svc *service.DogService) *DogHandler {
	return &DogHandler{service: svc}
}

// Register godoc
// @Summary Register a dog
// @Description Register a new dog under the current account
// @Tags Dogs
// @Accept json
// @Produce json
// @Param payload body models.RegisterDogRequest true "Dog payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /dogs [post]
func (h *DogHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.RegisterDogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid dog payload"))
		return
	}

	dog, err := h.service.Register(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dog)
}

// List godoc
// @Summary List own dogs
// @Description Return the dogs registered under the current account
// @Tags Dogs
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /dogs [get]
func (h *DogHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dogs, err := h.service.ListByOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dogs, nil)
}

// Get godoc
// @Summary Get a dog
// @Description Return a dog visible to the requester
// @Tags Dogs
// @Produce json
// @Param id path string true "Dog ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /dogs/{id} [get]
func (h *DogHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	dog, err := h.service.Get(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dog, nil)
}

// UpdateStatus godoc
// @Summary Update dog status
// @Description Transition a dog to a new status with an optional reason
// @Tags Dogs
// @Accept json
// @Produce json
// @Param id path string true "Dog ID"
// @Param payload body models.UpdateDogStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /dogs/{id}/status [put]
func (h *DogHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateDogStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	dog, err := h.service.UpdateStatus(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dog, nil)
}

// AssignTrainer godoc
// @Summary Assign a trainer
// @Description Add a trainer to a dog's care team
// @Tags Dogs
// @Accept json
// @Produce json
// @Param id path string true "Dog ID"
// @Param payload body models.AssignTrainerRequest true "Trainer payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /dogs/{id}/trainer [post]
func (h *DogHandler) AssignTrainer(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.AssignTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid trainer payload"))
		return
	}

	if err := h.service.AssignTrainer(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Certificate godoc
// @Summary Download registration certificate
// @Description Render the registration certificate PDF for a dog
// @Tags Dogs
// @Produce application/pdf
// @Param id path string true "Dog ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /dogs/{id}/certificate [get]
func (h *DogHandler) Certificate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pdfBytes, filename, err := h.service.Certificate(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bufordeeds/service-dog-standards/internal/access"
	"github.com/bufordeeds/service-dog-standards/internal/models"
	"github.com/bufordeeds/service-dog-standards/internal/service"
	appErrors "github.com/bufordeeds/service-dog-standards/pkg/errors"
	"github.com/bufordeeds/service-dog-standards/pkg/response"
)

// CatalogHandler serves the store catalog.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// List godoc
// @Summary List products
// @Description Public catalog listing; admins also see inactive products
// @Tags Catalog
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /products [get]
func (h *CatalogHandler) List(c *gin.Context) {
	filter := models.ProductFilter{Search: c.Query("search")}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	includeInactive := false
	if claims := claimsFromContext(c); claims != nil {
		includeInactive = access.HasPermission(claims.Role, models.RoleAdmin)
	}

	products, pagination, err := h.service.List(c.Request.Context(), filter, includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, products, pagination)
}

// BySlug godoc
// @Summary Get a product
// @Description Public catalog entry by slug
// @Tags Catalog
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /products/{slug} [get]
func (h *CatalogHandler) BySlug(c *gin.Context) {
	product, err := h.service.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, product, nil)
}

// Create godoc
// @Summary Create a product
// @Description Add a catalog entry
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.CreateProductRequest true "Product payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /products [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid product payload"))
		return
	}

	product, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, product)
}

// Update godoc
// @Summary Update a product
// @Description Edit a catalog entry addressed by slug
// @Tags Catalog
// @Accept json
// @Produce json
// @Param slug path string true "Product slug"
// @Param payload body models.UpdateProductRequest true "Product payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /products/{slug} [put]
func (h *CatalogHandler) Update(c *gin.Context) {
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid product payload"))
		return
	}

	product, err := h.service.Update(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, product, nil)
}

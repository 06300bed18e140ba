package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/models"
	"storefront/internal/service"
)

type ProductHandler struct {
	catalog   *service.CatalogService
	maxUpload int64
	log       *logrus.Logger
}

func NewProductHandler(catalog *service.CatalogService, maxUpload int64, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:   catalog,
		maxUpload: maxUpload,
		log:       logger,
	}
}

type featuredRequest struct {
	IsFeatured *bool `json:"is_featured" binding:"required"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// GET /api/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, err := h.catalog.List(c.Request.Context(), listQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// listQuery arma la consulta; los valores que no se pueden leer se ignoran
func listQuery(c *gin.Context) models.ProductQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	q := models.ProductQuery{
		Page:     page,
		Limit:    limit,
		Name:     c.Query("name"),
		Category: c.Query("category"),
	}
	if review, err := strconv.Atoi(c.Query("review")); err == nil {
		q.Review = &review
	}
	if minPrice, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil {
		q.MinPrice = &minPrice
	}
	if maxPrice, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil {
		q.MaxPrice = &maxPrice
	}
	return q
}

// GET /api/products/featured
func (h *ProductHandler) GetFeatured(c *gin.Context) {
	product, err := h.catalog.GetFeatured(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GET /api/products/max-price
func (h *ProductHandler) GetMaxPrice(c *gin.Context) {
	max, err := h.catalog.MaxPrice(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"maxPrice": max})
}

// GET /api/products/categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GET /api/products/slug/:slug
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	product, err := h.catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// POST /api/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var upd models.ProductUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err.Error())
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "product deleted successfully"})
}

// POST /api/products/bulk-delete
func (h *ProductHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	deleted, err := h.catalog.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "products deleted successfully", "deleted": deleted})
}

// PATCH /api/products/:id/featured
func (h *ProductHandler) SetFeatured(c *gin.Context) {
	var req featuredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "is_featured must be a boolean")
		return
	}

	product, err := h.catalog.SetFeatured(c.Request.Context(), c.Param("id"), *req.IsFeatured)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	msg := "product unfeatured"
	if product.IsFeatured {
		msg = "product featured"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "product": product})
}

// POST /api/products/upload-image
func (h *ProductHandler) UploadImage(c *gin.Context) {
	fh, err := formFile(c, "image", h.maxUpload)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	imagePath, err := h.catalog.UploadImage(fh)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_path": imagePath})
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/middleware"
	"storefront/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SalesHandler struct {
	sales *service.SalesService
	log   *logrus.Logger
}

func NewSalesHandler(sales *service.SalesService, logger *logrus.Logger) *SalesHandler {
	return &SalesHandler{sales: sales, log: logger}
}

type saleRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// POST /api/sales
func (h *SalesHandler) RecordSale(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id and quantity are required")
		return
	}

	sale, err := h.sales.Record(c.Request.Context(), user.ID.Hex(), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// GET /api/sales/monthly?year=
func (h *SalesHandler) Monthly(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}

	months, err := h.sales.Monthly(c.Request.Context(), year)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, months)
}

// GET /api/sales/range?start=&end=
func (h *SalesHandler) Range(c *gin.Context) {
	days, err := h.sales.Range(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// GET /api/sales/summary?start=&end=
func (h *SalesHandler) Summary(c *gin.Context) {
	summary, err := h.sales.Summary(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/sales/export?year=
func (h *SalesHandler) Export(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}

	data, err := h.sales.Export(c.Request.Context(), year)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="sales-%d.xlsx"`, year))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// yearParam usa el año en curso cuando no viene en la query
func yearParam(c *gin.Context) (int, bool) {
	raw := c.Query("year")
	if raw == "" {
		return time.Now().UTC().Year(), true
	}

	year, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "year must be a number")
		return 0, false
	}
	return year, true
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storepulse/internal/domain"
)

type productRequest struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Image    string          `json:"image"`
	Status   domain.Status   `json:"status"`
}

func (h *handlers) listProducts(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	filter := domain.ProductFilter{
		Category: c.Query("category"),
		Status:   domain.Status(c.Query("status")),
		Limit:    limit,
	}
	products, err := h.deps.Products.List(c.Request.Context(), tenantFrom(c).ID, filter)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Products.Get(c.Request.Context(), tenantFrom(c).ID, c.Param("id"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) createProduct(c *gin.Context) {
	var in productRequest
	if err := bindJSON(c, &in); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	p, err := h.deps.Products.Create(c.Request.Context(), tenantFrom(c).ID, domain.Product{
		Name:     in.Name,
		Category: in.Category,
		Price:    in.Price,
		Stock:    in.Stock,
		Image:    in.Image,
		Status:   in.Status,
	})
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handlers) updateProduct(c *gin.Context) {
	var patch domain.ProductPatch
	if err := bindJSON(c, &patch); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	p, err := h.deps.Products.Update(c.Request.Context(), tenantFrom(c).ID, c.Param("id"), patch)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) deleteProduct(c *gin.Context) {
	if err := h.deps.Products.Delete(c.Request.Context(), tenantFrom(c).ID, c.Param("id")); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storepulse/internal/domain"
)

func (h *handlers) listCustomers(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	filter := domain.CustomerFilter{
		Status: domain.Status(c.Query("status")),
		Sort:   domain.CustomerSort(c.Query("sort")),
		Limit:  limit,
	}
	customers, err := h.deps.Customers.List(c.Request.Context(), tenantFrom(c).ID, filter)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": customers, "count": len(customers)})
}

func (h *handlers) topCustomers(c *gin.Context) {
	n, err := queryInt(c, "n", 100)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	customers, err := h.deps.Customers.Top(c.Request.Context(), tenantFrom(c).ID, n)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": customers, "count": len(customers)})
}

func (h *handlers) getCustomer(c *gin.Context) {
	cust, err := h.deps.Customers.Get(c.Request.Context(), tenantFrom(c).ID, c.Param("id"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

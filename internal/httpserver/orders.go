package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storepulse/internal/domain"
)

type orderStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *handlers) listOrders(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	from, err := queryTime(c, "from")
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	to, err := queryTime(c, "to")
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	filter := domain.OrderFilter{
		Status:     domain.OrderStatus(c.Query("status")),
		CustomerID: c.Query("customerId"),
		From:       from,
		To:         to,
		Limit:      limit,
	}
	orders, err := h.deps.Orders.List(c.Request.Context(), tenantFrom(c).ID, filter)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": orders, "count": len(orders)})
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.Orders.Get(c.Request.Context(), tenantFrom(c).ID, c.Param("id"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *handlers) updateOrderStatus(c *gin.Context) {
	var in orderStatusRequest
	if err := bindJSON(c, &in); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	o, err := h.deps.Orders.UpdateStatus(c.Request.Context(), tenantFrom(c).ID, c.Param("id"), in.Status)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

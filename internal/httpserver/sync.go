package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) syncStatus(c *gin.Context) {
	if h.deps.Scheduler == nil {
		abortWithMessage(c, http.StatusServiceUnavailable, "sync_disabled", "sync is not configured")
		return
	}
	c.JSON(http.StatusOK, h.deps.Scheduler.Status())
}

func (h *handlers) runSync(c *gin.Context) {
	if h.deps.Scheduler == nil {
		abortWithMessage(c, http.StatusServiceUnavailable, "sync_disabled", "sync is not configured")
		return
	}
	res, err := h.deps.Scheduler.RunOnce(c.Request.Context())
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

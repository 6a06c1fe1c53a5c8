package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storepulse/internal/domain"
	eventsvc "storepulse/internal/service/event"
)

func (h *handlers) getAnalytics(c *gin.Context) {
	a, err := h.deps.Analytics.Get(c.Request.Context(), tenantFrom(c).ID)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handlers) listEvents(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	filter := domain.EventFilter{Kind: domain.EventKind(c.Query("type")), Limit: limit}
	evs, err := h.deps.Events.List(c.Request.Context(), tenantFrom(c).ID, filter)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": evs, "count": len(evs)})
}

func (h *handlers) trackEvent(c *gin.Context) {
	var in eventsvc.TrackInput
	if err := bindJSON(c, &in); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	e, err := h.deps.Events.Track(c.Request.Context(), tenantFrom(c).ID, in)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storepulse/internal/domain"
	tenantsvc "storepulse/internal/service/tenant"
)

type statusRequest struct {
	Status domain.Status `json:"status"`
}

func (h *handlers) registerTenant(c *gin.Context) {
	var in tenantsvc.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	t, err := h.deps.Tenants.Register(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *handlers) getTenant(c *gin.Context) {
	c.JSON(http.StatusOK, tenantFrom(c))
}

func (h *handlers) updateTenantSettings(c *gin.Context) {
	var in domain.TenantSettings
	if err := bindJSON(c, &in); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	t, err := h.deps.Tenants.UpdateSettings(c.Request.Context(), tenantFrom(c).ID, in)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *handlers) setTenantStatus(c *gin.Context) {
	var in statusRequest
	if err := bindJSON(c, &in); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	t, err := h.deps.Tenants.SetStatus(c.Request.Context(), tenantFrom(c).ID, in.Status)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storepulse/internal/domain"
)

const tenantCtxKey = "tenant"

// TenantGetter loads a tenant by id.
type TenantGetter interface {
	Get(ctx context.Context, id string) (*domain.Tenant, error)
}

// tenantMiddleware loads the tenant named by :tenantID and stores it on
// the gin context. Unknown tenants end the request with 404.
func tenantMiddleware(tenants TenantGetter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("tenantID"))
		if id == "" {
			abortWithMessage(c, http.StatusBadRequest, "invalid_request", "tenant id is required")
			return
		}
		t, err := tenants.Get(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, logger, err)
			return
		}
		c.Set(tenantCtxKey, t)
		c.Next()
	}
}

func tenantFrom(c *gin.Context) *domain.Tenant {
	v, ok := c.Get(tenantCtxKey)
	if !ok {
		return nil
	}
	t, _ := v.(*domain.Tenant)
	return t
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.Info("http: request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// bodyLimit caps request bodies at maxBytes.
func bodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWithMessage(c, http.StatusRequestEntityTooLarge, "request_too_large", "request body exceeds maximum allowed size")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

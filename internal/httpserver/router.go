package httpserver

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	analyticssvc "storepulse/internal/service/analytics"
	customersvc "storepulse/internal/service/customer"
	eventsvc "storepulse/internal/service/event"
	ordersvc "storepulse/internal/service/order"
	productsvc "storepulse/internal/service/product"
	tenantsvc "storepulse/internal/service/tenant"
	"storepulse/internal/syncer"
	"storepulse/internal/webhook"
)

const maxBodyBytes = 1 << 20

// Deps are the services behind the API. Scheduler, DB and Gatherer may be nil.
type Deps struct {
	Tenants          *tenantsvc.Service
	Products         *productsvc.Service
	Customers        *customersvc.Service
	Orders           *ordersvc.Service
	Analytics        *analyticssvc.Service
	Events           *eventsvc.Service
	Webhooks         *webhook.Dispatcher
	WebhookSecret    string
	Scheduler        *syncer.Scheduler
	DB               Pinger
	Gatherer         prometheus.Gatherer
	CORSAllowOrigins []string
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), corsMiddleware(deps.CORSAllowOrigins), bodyLimit(maxBodyBytes))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	h := &handlers{deps: deps, logger: logger}
	router.POST("/webhooks/shopify", h.receiveWebhook)

	api := router.Group("/api/v1")
	api.POST("/tenants", h.registerTenant)
	api.GET("/sync/status", h.syncStatus)
	api.POST("/sync/run", h.runSync)

	tenant := api.Group("/tenants/:tenantID", tenantMiddleware(deps.Tenants, logger))
	tenant.GET("", h.getTenant)
	tenant.PATCH("/settings", h.updateTenantSettings)
	tenant.PATCH("/status", h.setTenantStatus)

	tenant.GET("/products", h.listProducts)
	tenant.POST("/products", h.createProduct)
	tenant.GET("/products/:id", h.getProduct)
	tenant.PATCH("/products/:id", h.updateProduct)
	tenant.DELETE("/products/:id", h.deleteProduct)

	tenant.GET("/customers", h.listCustomers)
	tenant.GET("/customers/top", h.topCustomers)
	tenant.GET("/customers/:id", h.getCustomer)

	tenant.GET("/orders", h.listOrders)
	tenant.GET("/orders/:id", h.getOrder)
	tenant.PATCH("/orders/:id/status", h.updateOrderStatus)

	tenant.GET("/analytics", h.getAnalytics)

	tenant.GET("/events", h.listEvents)
	tenant.POST("/events", h.trackEvent)

	return router
}

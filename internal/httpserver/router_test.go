package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"storepulse/internal/domain"
)

type stubTenantRepo struct {
	tenant *domain.Tenant
	err    error
}

func (s *stubTenantRepo) Get(_ context.Context, _ string) (*domain.Tenant, error) {
	return s.tenant, s.err
}

func TestTenantMiddleware_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubTenantRepo{
		tenant: &domain.Tenant{ID: "tenant-001", Name: "Demo", Domain: "demo-store.myshopify.com"},
	}
	router := gin.New()
	router.GET("/tenants/:tenantID/test", tenantMiddleware(repo, nopLogger), func(c *gin.Context) {
		if tenantFrom(c) == nil {
			t.Fatalf("expected tenant in context")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/tenants/tenant-001/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestTenantMiddleware_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubTenantRepo{err: domain.ErrNotFound}
	router := gin.New()
	router.GET("/tenants/:tenantID/test", tenantMiddleware(repo, nopLogger), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/tenants/missing/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestTenantMiddleware_Error(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubTenantRepo{err: errors.New("boom")}
	router := gin.New()
	router.GET("/tenants/:tenantID/test", tenantMiddleware(repo, nopLogger), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/tenants/tenant-001/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestTenantMiddleware_MissingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubTenantRepo{}
	router := gin.New()
	router.GET("/tenants/:tenantID/test", tenantMiddleware(repo, nopLogger), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/tenants/%20/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

type recordingTenantRepo struct {
	tenants map[string]*domain.Tenant
	asked   []string
}

func (r *recordingTenantRepo) Get(_ context.Context, id string) (*domain.Tenant, error) {
	r.asked = append(r.asked, id)
	if t, ok := r.tenants[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func TestTenantFrom_ScopesEachRequestToItsRouteTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &recordingTenantRepo{tenants: map[string]*domain.Tenant{
		"tenant-001": {ID: "tenant-001", Domain: "demo-store.myshopify.com", Status: domain.StatusActive},
		"tenant-002": {ID: "tenant-002", Domain: "tech-store.myshopify.com", Status: domain.StatusInactive},
	}}
	router := gin.New()
	router.GET("/tenants/:tenantID/whoami", tenantMiddleware(repo, nopLogger), func(c *gin.Context) {
		c.String(http.StatusOK, tenantFrom(c).ID)
	})

	for _, id := range []string{"tenant-002", "tenant-001"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tenants/"+id+"/whoami", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != id {
			t.Fatalf("expected 200 %s, got %d %q", id, rec.Code, rec.Body.String())
		}
	}
	if len(repo.asked) != 2 || repo.asked[0] != "tenant-002" || repo.asked[1] != "tenant-001" {
		t.Fatalf("expected one lookup per request in order, got %v", repo.asked)
	}
}

func TestTenantFrom_NilWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/open", func(c *gin.Context) {
		if tenantFrom(c) != nil {
			t.Fatalf("expected no tenant outside tenant routes")
		}
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"storepulse/internal/domain"
	tenantrepo "storepulse/internal/repository/tenant"
)

type Service struct {
	repo   tenantrepo.Repository
	logger *zap.Logger
}

func New(repo tenantrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// RegisterInput captures the fields of a new tenant.
type RegisterInput struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Domain      string                 `json:"domain"`
	Settings    *domain.TenantSettings `json:"settings"`
	AccessToken string                 `json:"accessToken"`
}

// Register creates an active tenant. Missing settings get the defaults.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Tenant, error) {
	name := strings.TrimSpace(in.Name)
	d := domain.NormalizeDomain(in.Domain)
	if name == "" || d == "" {
		return nil, fmt.Errorf("%w: name and domain are required", domain.ErrInvalid)
	}
	settings := domain.DefaultTenantSettings()
	if in.Settings != nil {
		settings = mergeSettings(settings, *in.Settings)
	}
	if err := validateTimezone(settings.Timezone); err != nil {
		return nil, err
	}
	t, err := s.repo.Create(ctx, domain.Tenant{
		ID:          strings.TrimSpace(in.ID),
		Name:        name,
		Domain:      d,
		Settings:    settings,
		Status:      domain.StatusActive,
		AccessToken: in.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("tenant: registered", zap.String("tenant_id", t.ID), zap.String("domain", t.Domain))
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.List(ctx)
}

// UpdateSettings merges the non-empty fields of in into the stored settings.
func (s *Service) UpdateSettings(ctx context.Context, id string, in domain.TenantSettings) (*domain.Tenant, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := mergeSettings(current.Settings, in)
	if err := validateTimezone(merged.Timezone); err != nil {
		return nil, err
	}
	return s.repo.UpdateSettings(ctx, id, merged)
}

func (s *Service) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.Tenant, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown tenant status %q", domain.ErrInvalid, status)
	}
	t, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("tenant: status changed", zap.String("tenant_id", id), zap.String("status", string(status)))
	return t, nil
}

func mergeSettings(base, in domain.TenantSettings) domain.TenantSettings {
	if in.Theme != "" {
		base.Theme = in.Theme
	}
	if in.Currency != "" {
		base.Currency = strings.ToUpper(in.Currency)
	}
	if in.Timezone != "" {
		base.Timezone = in.Timezone
	}
	if in.Features != nil {
		base.Features = append([]string(nil), in.Features...)
	}
	return base
}

func validateTimezone(name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalid, name)
	}
	return nil
}

package domain

import (
	"strings"
	"time"
)

// Status is the lifecycle flag shared by tenants, products and customers.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// TenantSettings holds per-store display preferences.
type TenantSettings struct {
	Theme    string   `json:"theme"`
	Currency string   `json:"currency"`
	Timezone string   `json:"timezone"`
	Features []string `json:"features"`
}

// Tenant is one store. Tenants are deactivated, never deleted.
type Tenant struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Domain      string         `json:"domain"`
	Settings    TenantSettings `json:"settings"`
	Status      Status         `json:"status"`
	AccessToken string         `json:"-"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// DefaultTenantSettings returns the settings new tenants start with.
func DefaultTenantSettings() TenantSettings {
	return TenantSettings{
		Theme:    "light",
		Currency: "USD",
		Timezone: "UTC",
		Features: []string{"analytics", "sync"},
	}
}

// Location resolves the tenant timezone, falling back to UTC.
func (t Tenant) Location() *time.Location {
	if t.Settings.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Settings.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NormalizeDomain lower-cases a store domain and strips scheme, path and port-less trailing slashes.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return d
}

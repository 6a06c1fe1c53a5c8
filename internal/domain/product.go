package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item owned by one tenant.
type Product struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenantId"`
	ExternalID string          `json:"externalId,omitempty"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Sales      int             `json:"sales"`
	Rating     float64         `json:"rating"`
	Image      string          `json:"image,omitempty"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Validate checks the product invariants.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalid)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: product price must not be negative", ErrInvalid)
	}
	if p.Stock < 0 || p.Sales < 0 {
		return fmt.Errorf("%w: product stock and sales must not be negative", ErrInvalid)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("%w: product rating must be between 0 and 5", ErrInvalid)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: unknown product status %q", ErrInvalid, p.Status)
	}
	return nil
}

// ProductPatch lists the fields a partial update may change. Nil fields are left alone.
type ProductPatch struct {
	Name     *string          `json:"name,omitempty"`
	Category *string          `json:"category,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty"`
	Sales    *int             `json:"sales,omitempty"`
	Rating   *float64         `json:"rating,omitempty"`
	Image    *string          `json:"image,omitempty"`
	Status   *Status          `json:"status,omitempty"`
}

// Apply copies the set fields of patch onto p.
func (p *Product) Apply(patch ProductPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Sales != nil {
		p.Sales = *patch.Sales
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
}

// ProductFilter narrows product listings. Zero values mean no filtering.
type ProductFilter struct {
	Category string
	Status   Status
	Limit    int
}

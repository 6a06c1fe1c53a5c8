package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a shopper of one tenant. It is written by platform ingestion
// and by the order-completion side effect only.
type Customer struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenantId"`
	ExternalID  string          `json:"externalId,omitempty"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone,omitempty"`
	TotalOrders int             `json:"totalOrders"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	JoinDate    time.Time       `json:"joinDate"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate checks the customer invariants.
func (c Customer) Validate() error {
	if c.TotalOrders < 0 || c.TotalSpent.IsNegative() {
		return fmt.Errorf("%w: customer totals must not be negative", ErrInvalid)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: unknown customer status %q", ErrInvalid, c.Status)
	}
	return nil
}

// CustomerSort selects the listing order.
type CustomerSort string

const (
	CustomerSortNewest CustomerSort = ""
	CustomerSortSpent  CustomerSort = "spent"
)

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	Status Status
	Sort   CustomerSort
	Limit  int
}

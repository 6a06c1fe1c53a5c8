package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment stage of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// fulfilment order; cancelled sits outside the forward chain.
var orderStatusRank = map[OrderStatus]int{
	OrderPending:    1,
	OrderProcessing: 2,
	OrderShipped:    3,
	OrderDelivered:  4,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusRank[s]
	return ok || s == OrderCancelled
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo reports whether s may move to next. Forward moves may skip
// stages, cancellation is allowed from any non-terminal status and staying
// on the same status is always allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return orderStatusRank[next] > orderStatusRank[s]
}

// MergeOrderStatus picks the status to keep when the platform reports
// incoming for an order currently at current. Cancellation always wins,
// otherwise the further-along stage is kept.
func MergeOrderStatus(current, incoming OrderStatus) OrderStatus {
	switch {
	case current == "" || !current.Valid():
		return incoming
	case !incoming.Valid():
		return current
	case incoming == OrderCancelled || current == OrderCancelled:
		return OrderCancelled
	case orderStatusRank[incoming] > orderStatusRank[current]:
		return incoming
	default:
		return current
	}
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Subtotal returns quantity times unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a purchase placed with one tenant.
type Order struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"tenantId"`
	ExternalID      string          `json:"externalId,omitempty"`
	CustomerID      string          `json:"customerId,omitempty"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	OrderDate       time.Time       `json:"orderDate"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ComputeTotal sums the item subtotals.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Validate checks the item rules and that Total matches the items.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrInvalid)
	}
	for i, item := range o.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalid, i)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: item %d price must not be negative", ErrInvalid, i)
		}
	}
	if !o.Status.Valid() {
		return fmt.Errorf("%w: unknown order status %q", ErrInvalid, o.Status)
	}
	if want := ComputeTotal(o.Items); !o.Total.Equal(want) {
		return fmt.Errorf("%w: order total %s does not match items %s", ErrInvalid, o.Total, want)
	}
	return nil
}

// OrderPatch lists the fields a partial order update may change.
type OrderPatch struct {
	Status          *OrderStatus `json:"status,omitempty"`
	ShippingAddress *string      `json:"shippingAddress,omitempty"`
}

// Apply copies the set fields of patch onto o.
func (o *Order) Apply(patch OrderPatch) {
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.ShippingAddress != nil {
		o.ShippingAddress = *patch.ShippingAddress
	}
}

// OrderFilter narrows order listings. From is inclusive, To exclusive.
type OrderFilter struct {
	Status     OrderStatus
	CustomerID string
	From       time.Time
	To         time.Time
	Limit      int
}

package shopify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"storepulse/internal/domain"
)

// Kind names a record type exchanged with the platform.
type Kind string

const (
	KindProduct  Kind = "product"
	KindCustomer Kind = "customer"
	KindOrder    Kind = "order"
)

// Record is a canonical record produced from a platform payload. Orders
// also carry the embedded customer when the payload has one.
type Record struct {
	Kind     Kind
	Product  *domain.Product
	Customer *domain.Customer
	Order    *domain.Order
}

// ToCanonical decodes raw as a platform record of kind and maps it.
func ToCanonical(kind Kind, raw json.RawMessage) (Record, error) {
	switch kind {
	case KindProduct:
		var p Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return Record{}, malformed("product", err)
		}
		out, err := ProductToCanonical(p)
		if err != nil {
			return Record{}, err
		}
		return Record{Kind: kind, Product: &out}, nil
	case KindCustomer:
		var c Customer
		if err := json.Unmarshal(raw, &c); err != nil {
			return Record{}, malformed("customer", err)
		}
		out, err := CustomerToCanonical(c)
		if err != nil {
			return Record{}, err
		}
		return Record{Kind: kind, Customer: &out}, nil
	case KindOrder:
		var o Order
		if err := json.Unmarshal(raw, &o); err != nil {
			return Record{}, malformed("order", err)
		}
		out, err := OrderToCanonical(o)
		if err != nil {
			return Record{}, err
		}
		rec := Record{Kind: kind, Order: &out}
		if o.Customer != nil && o.Customer.ID != "" {
			c, err := CustomerToCanonical(*o.Customer)
			if err != nil {
				return Record{}, err
			}
			rec.Customer = &c
		}
		return rec, nil
	default:
		return Record{}, fmt.Errorf("%w: unknown record kind %q", domain.ErrMalformedRecord, kind)
	}
}

// ProductToCanonical maps a platform product. Price comes from the first
// variant and stock is the sum of variant inventory.
func ProductToCanonical(p Product) (domain.Product, error) {
	if p.ID == "" {
		return domain.Product{}, malformed("product", fmt.Errorf("missing id"))
	}
	price := decimal.Zero
	stock := 0
	for i, v := range p.Variants {
		if i == 0 {
			parsed, err := parseAmount(v.Price)
			if err != nil {
				return domain.Product{}, malformed("product "+string(p.ID)+" price", err)
			}
			price = parsed
		}
		stock += v.InventoryQuantity
	}
	if stock < 0 {
		stock = 0
	}
	category := p.ProductType
	if category == "" {
		category = p.Vendor
	}
	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0].Src
	} else if p.Image != nil {
		image = p.Image.Src
	}
	status := domain.StatusActive
	if s := strings.ToLower(p.Status); s != "" && s != "active" {
		status = domain.StatusInactive
	}
	out := domain.Product{
		ExternalID: string(p.ID),
		Name:       strings.TrimSpace(p.Title),
		Category:   category,
		Price:      price,
		Stock:      stock,
		Image:      image,
		Status:     status,
		CreatedAt:  p.CreatedAt.Time,
	}
	if out.Name == "" {
		out.Name = "Product " + string(p.ID)
	}
	if err := out.Validate(); err != nil {
		return domain.Product{}, malformed("product "+string(p.ID), err)
	}
	return out, nil
}

// CustomerToCanonical maps a platform customer.
func CustomerToCanonical(c Customer) (domain.Customer, error) {
	if c.ID == "" {
		return domain.Customer{}, malformed("customer", fmt.Errorf("missing id"))
	}
	spent, err := parseAmount(c.TotalSpent)
	if err != nil {
		return domain.Customer{}, malformed("customer "+string(c.ID)+" total_spent", err)
	}
	status := domain.StatusActive
	switch strings.ToLower(c.State) {
	case "disabled", "declined":
		status = domain.StatusInactive
	}
	out := domain.Customer{
		ExternalID:  string(c.ID),
		Name:        customerName(c),
		Email:       c.Email,
		Phone:       c.Phone,
		TotalOrders: c.OrdersCount,
		TotalSpent:  spent,
		JoinDate:    c.CreatedAt.Time,
		Status:      status,
	}
	if err := out.Validate(); err != nil {
		return domain.Customer{}, malformed("customer "+string(c.ID), err)
	}
	return out, nil
}

// OrderToCanonical maps a platform order. The canonical total is the sum
// of line items; the platform total_price must still parse.
func OrderToCanonical(o Order) (domain.Order, error) {
	if o.ID == "" {
		return domain.Order{}, malformed("order", fmt.Errorf("missing id"))
	}
	if _, err := parseAmount(o.TotalPrice); err != nil {
		return domain.Order{}, malformed("order "+string(o.ID)+" total_price", err)
	}
	items := make([]domain.OrderItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		price, err := parseAmount(li.Price)
		if err != nil {
			return domain.Order{}, malformed("order "+string(o.ID)+" line item price", err)
		}
		items = append(items, domain.OrderItem{
			ProductID:   string(li.ProductID),
			ProductName: li.Title,
			Quantity:    li.Quantity,
			Price:       price,
		})
	}
	out := domain.Order{
		ExternalID:      string(o.ID),
		CustomerEmail:   o.Email,
		Items:           items,
		Total:           domain.ComputeTotal(items),
		Status:          OrderStatus(o),
		OrderDate:       o.CreatedAt.Time,
		ShippingAddress: formatAddress(o.ShippingAddress),
	}
	if o.Customer != nil {
		out.CustomerName = customerName(*o.Customer)
		if out.CustomerEmail == "" {
			out.CustomerEmail = o.Customer.Email
		}
	}
	if out.OrderDate.IsZero() {
		return domain.Order{}, malformed("order "+string(o.ID), errors.New("created_at is required"))
	}
	if err := out.Validate(); err != nil {
		return domain.Order{}, malformed("order "+string(o.ID), err)
	}
	return out, nil
}

// OrderStatus derives the canonical status from the platform's
// cancellation, fulfilment and payment fields.
func OrderStatus(o Order) domain.OrderStatus {
	if !o.CancelledAt.IsZero() {
		return domain.OrderCancelled
	}
	switch strings.ToLower(o.FinancialStatus) {
	case "refunded", "voided":
		return domain.OrderCancelled
	}
	switch strings.ToLower(o.FulfillmentStatus) {
	case "fulfilled":
		return domain.OrderShipped
	case "partial":
		return domain.OrderProcessing
	}
	switch strings.ToLower(o.FinancialStatus) {
	case "paid", "partially_paid", "partially_refunded":
		return domain.OrderProcessing
	}
	return domain.OrderPending
}

// CartItems maps cart line items into event cart items and their value.
func CartItems(lines []LineItem) ([]domain.CartItem, decimal.Decimal, error) {
	items := make([]domain.CartItem, 0, len(lines))
	value := decimal.Zero
	for _, li := range lines {
		price, err := parseAmount(li.Price)
		if err != nil {
			return nil, decimal.Zero, malformed("cart line item price", err)
		}
		items = append(items, domain.CartItem{
			ProductID:   string(li.ProductID),
			ProductName: li.Title,
			Quantity:    li.Quantity,
			Price:       price,
		})
		value = value.Add(price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return items, value, nil
}

// ExternalPatch is a partial platform update for one record.
type ExternalPatch struct {
	Kind       Kind
	ExternalID string
	Fields     map[string]any
}

// ToExternalPatch maps a partial canonical record into platform fields.
// Only products are pushed; price and stock live on variants and are not
// expressible here.
func ToExternalPatch(kind Kind, externalID string, partial any) (ExternalPatch, error) {
	if externalID == "" {
		return ExternalPatch{}, fmt.Errorf("%w: record has no external id", domain.ErrInvalid)
	}
	if kind != KindProduct {
		return ExternalPatch{}, fmt.Errorf("%w: %s records are not pushed to the platform", domain.ErrInvalid, kind)
	}
	patch, ok := partial.(domain.ProductPatch)
	if !ok {
		return ExternalPatch{}, fmt.Errorf("%w: expected a product patch, got %T", domain.ErrInvalid, partial)
	}
	fields := map[string]any{}
	if patch.Name != nil {
		fields["title"] = *patch.Name
	}
	if patch.Category != nil {
		fields["product_type"] = *patch.Category
	}
	if patch.Image != nil {
		fields["images"] = []map[string]string{{"src": *patch.Image}}
	}
	if patch.Status != nil {
		if *patch.Status == domain.StatusActive {
			fields["status"] = "active"
		} else {
			fields["status"] = "draft"
		}
	}
	return ExternalPatch{Kind: kind, ExternalID: externalID, Fields: fields}, nil
}

// Empty reports whether the patch carries no platform fields.
func (p ExternalPatch) Empty() bool { return len(p.Fields) == 0 }

func parseAmount(a Amount) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", s)
	}
	return d, nil
}

func customerName(c Customer) string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name == "" {
		name = c.Email
	}
	return name
}

func formatAddress(a *Address) string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Address1, a.City, a.Province, a.Zip, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrMalformedRecord, what, err)
}

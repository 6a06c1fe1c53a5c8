package shopify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID accepts a JSON number, string or null.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Amount is a money value the platform sends as a string, sometimes as a number.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(b)
	return nil
}

// Timestamp tolerates null and empty strings.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		t.Time = time.Time{}
		return nil
	}
	return t.Time.UnmarshalJSON(b)
}

type Product struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Status      string    `json:"status"`
	Variants    []Variant `json:"variants"`
	Images      []Image   `json:"images"`
	Image       *Image    `json:"image"`
	CreatedAt   Timestamp `json:"created_at"`
}

type Variant struct {
	ID                ID     `json:"id"`
	Price             Amount `json:"price"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

type Image struct {
	Src string `json:"src"`
}

type Customer struct {
	ID          ID        `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	OrdersCount int       `json:"orders_count"`
	TotalSpent  Amount    `json:"total_spent"`
	State       string    `json:"state"`
	CreatedAt   Timestamp `json:"created_at"`
}

type Order struct {
	ID                ID         `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Customer          *Customer  `json:"customer"`
	LineItems         []LineItem `json:"line_items"`
	TotalPrice        Amount     `json:"total_price"`
	FinancialStatus   string     `json:"financial_status"`
	FulfillmentStatus string     `json:"fulfillment_status"`
	CancelledAt       Timestamp  `json:"cancelled_at"`
	CreatedAt         Timestamp  `json:"created_at"`
	ShippingAddress   *Address   `json:"shipping_address"`
}

type LineItem struct {
	ID        ID     `json:"id"`
	ProductID ID     `json:"product_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     Amount `json:"price"`
}

type Address struct {
	Address1 string `json:"address1"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

// Cart is the body of a carts/update notification.
type Cart struct {
	ID                   ID         `json:"id"`
	Token                string     `json:"token"`
	LineItems            []LineItem `json:"line_items"`
	AbandonedCheckoutURL string     `json:"abandoned_checkout_url"`
	UpdatedAt            Timestamp  `json:"updated_at"`
}

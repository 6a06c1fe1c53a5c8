package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventKind names a behavioral event.
type EventKind string

const (
	EventCartAbandoned     EventKind = "cart_abandoned"
	EventCheckoutStarted   EventKind = "checkout_started"
	EventProductViewed     EventKind = "product_viewed"
	EventUserRegistered    EventKind = "user_registered"
	EventDataSyncCompleted EventKind = "data_sync_completed"
)

// EventPayload is implemented by one struct per EventKind.
type EventPayload interface {
	Kind() EventKind
}

// CartItem is a line in a cart-derived event.
type CartItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type CartAbandoned struct {
	CartItems   []CartItem      `json:"cartItems"`
	CartValue   decimal.Decimal `json:"cartValue"`
	AbandonedAt time.Time       `json:"abandonedAt"`
	PageURL     string          `json:"pageUrl,omitempty"`
}

type CheckoutStarted struct {
	CartItems    []CartItem      `json:"cartItems"`
	CartValue    decimal.Decimal `json:"cartValue"`
	CheckoutStep string          `json:"checkoutStep"`
}

type ProductViewed struct {
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	ProductCategory string          `json:"productCategory,omitempty"`
	ProductPrice    decimal.Decimal `json:"productPrice"`
	Referrer        string          `json:"referrer,omitempty"`
}

type UserRegistered struct {
	RegistrationMethod string `json:"registrationMethod"`
	UserRole           string `json:"userRole"`
}

// DataSyncCompleted is emitted after a tenant's sweep fetched every entity kind.
type DataSyncCompleted struct {
	ProductsCount  int       `json:"productsCount"`
	CustomersCount int       `json:"customersCount"`
	OrdersCount    int       `json:"ordersCount"`
	FailedRecords  int       `json:"failedRecords"`
	SyncTime       time.Time `json:"syncTime"`
}

func (CartAbandoned) Kind() EventKind     { return EventCartAbandoned }
func (CheckoutStarted) Kind() EventKind   { return EventCheckoutStarted }
func (ProductViewed) Kind() EventKind     { return EventProductViewed }
func (UserRegistered) Kind() EventKind    { return EventUserRegistered }
func (DataSyncCompleted) Kind() EventKind { return EventDataSyncCompleted }

// DecodeEventPayload parses raw into the payload struct for kind.
// Unknown kinds are rejected.
func DecodeEventPayload(kind EventKind, raw json.RawMessage) (EventPayload, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	var (
		payload EventPayload
		err     error
	)
	switch kind {
	case EventCartAbandoned:
		var p CartAbandoned
		err = json.Unmarshal(raw, &p)
		payload = p
	case EventCheckoutStarted:
		var p CheckoutStarted
		err = json.Unmarshal(raw, &p)
		payload = p
	case EventProductViewed:
		var p ProductViewed
		err = json.Unmarshal(raw, &p)
		payload = p
	case EventUserRegistered:
		var p UserRegistered
		err = json.Unmarshal(raw, &p)
		payload = p
	case EventDataSyncCompleted:
		var p DataSyncCompleted
		err = json.Unmarshal(raw, &p)
		payload = p
	default:
		return nil, fmt.Errorf("%w: unknown event kind %q", ErrInvalid, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s payload: %v", ErrInvalid, kind, err)
	}
	return payload, nil
}

// CustomEvent is an append-only behavioral record.
type CustomEvent struct {
	ID        string
	Kind      EventKind
	TenantID  string
	SessionID string
	UserID    string
	Payload   EventPayload
	Timestamp time.Time
}

// Validate checks the event envelope.
func (e CustomEvent) Validate() error {
	if strings.TrimSpace(e.SessionID) == "" {
		return fmt.Errorf("%w: event session id is required", ErrInvalid)
	}
	if e.Payload == nil {
		return fmt.Errorf("%w: event payload is required", ErrInvalid)
	}
	if e.Payload.Kind() != e.Kind {
		return fmt.Errorf("%w: payload %s does not match event kind %s", ErrInvalid, e.Payload.Kind(), e.Kind)
	}
	return nil
}

type customEventJSON struct {
	ID        string          `json:"id"`
	Kind      EventKind       `json:"type"`
	TenantID  string          `json:"tenantId"`
	SessionID string          `json:"sessionId"`
	UserID    string          `json:"userId,omitempty"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

func (e CustomEvent) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(customEventJSON{
		ID:        e.ID,
		Kind:      e.Kind,
		TenantID:  e.TenantID,
		SessionID: e.SessionID,
		UserID:    e.UserID,
		Data:      data,
		Timestamp: e.Timestamp,
	})
}

func (e *CustomEvent) UnmarshalJSON(b []byte) error {
	var raw customEventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	payload, err := DecodeEventPayload(raw.Kind, raw.Data)
	if err != nil {
		return err
	}
	*e = CustomEvent{
		ID:        raw.ID,
		Kind:      raw.Kind,
		TenantID:  raw.TenantID,
		SessionID: raw.SessionID,
		UserID:    raw.UserID,
		Payload:   payload,
		Timestamp: raw.Timestamp,
	}
	return nil
}

// EventFilter narrows event listings.
type EventFilter struct {
	Kind  EventKind
	Limit int
}

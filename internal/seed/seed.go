// Package seed loads demo tenants and records for local development.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storepulse/internal/domain"
	"storepulse/internal/store"
)

type productSeed struct {
	ExternalID string
	Name       string
	Category   string
	Price      string
	Stock      int
	Sales      int
	Rating     float64
	Image      string
}

type customerSeed struct {
	ExternalID  string
	Name        string
	Email       string
	Phone       string
	TotalOrders int
	TotalSpent  string
	JoinDate    time.Time
}

type orderSeed struct {
	ExternalID string
	Customer   string
	Product    string
	Quantity   int
	Status     domain.OrderStatus
	OrderDate  time.Time
	Address    string
}

var tenants = []domain.Tenant{
	{ID: "tenant-001", Name: "Demo Store", Domain: "demo-store.myshopify.com"},
	{ID: "tenant-002", Name: "Tech Store", Domain: "tech-store.myshopify.com"},
}

var products = []productSeed{
	{ExternalID: "seed-p-1", Name: "Premium Wireless Headphones", Category: "Electronics", Price: "199.99", Stock: 45, Sales: 234, Rating: 4.8,
		Image: "https://images.pexels.com/photos/3394650/pexels-photo-3394650.jpeg?auto=compress&cs=tinysrgb&w=400"},
	{ExternalID: "seed-p-2", Name: "Smart Fitness Tracker", Category: "Wearables", Price: "129.99", Stock: 78, Sales: 567, Rating: 4.6,
		Image: "https://images.pexels.com/photos/437037/pexels-photo-437037.jpeg?auto=compress&cs=tinysrgb&w=400"},
	{ExternalID: "seed-p-3", Name: "Organic Cotton T-Shirt", Category: "Clothing", Price: "29.99", Stock: 123, Sales: 892, Rating: 4.4,
		Image: "https://images.pexels.com/photos/1464625/pexels-photo-1464625.jpeg?auto=compress&cs=tinysrgb&w=400"},
}

var customers = []customerSeed{
	{ExternalID: "seed-c-1", Name: "John Smith", Email: "john.smith@email.com", Phone: "+1-555-0101", TotalOrders: 3, TotalSpent: "749.94",
		JoinDate: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
	{ExternalID: "seed-c-2", Name: "Sarah Johnson", Email: "sarah.johnson@email.com", Phone: "+1-555-0102", TotalOrders: 5, TotalSpent: "1299.95",
		JoinDate: time.Date(2024, 1, 20, 14, 30, 0, 0, time.UTC)},
}

var orders = []orderSeed{
	{ExternalID: "seed-o-1", Customer: "seed-c-1", Product: "seed-p-1", Quantity: 1, Status: domain.OrderDelivered,
		OrderDate: time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC), Address: "123 Main St, New York, NY 10001"},
	{ExternalID: "seed-o-2", Customer: "seed-c-2", Product: "seed-p-2", Quantity: 2, Status: domain.OrderShipped,
		OrderDate: time.Date(2024, 3, 4, 16, 40, 0, 0, time.UTC), Address: "456 Oak Ave, Austin, TX 73301"},
	{ExternalID: "seed-o-3", Customer: "seed-c-2", Product: "seed-p-3", Quantity: 3, Status: domain.OrderPending,
		OrderDate: time.Date(2024, 3, 6, 9, 5, 0, 0, time.UTC), Address: "456 Oak Ave, Austin, TX 73301"},
}

// Apply creates the demo tenants and upserts their records. Running it
// again leaves the data unchanged.
func Apply(ctx context.Context, s *store.Store, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, t := range tenants {
		t.Settings = domain.DefaultTenantSettings()
		if _, err := s.Tenants().Create(ctx, t); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("ensure tenant %s: %w", t.ID, err)
		}
		if err := seedTenant(ctx, s.Tenant(t.ID)); err != nil {
			return fmt.Errorf("seed tenant %s: %w", t.ID, err)
		}
		logger.Info("seed: tenant ready", zap.String("tenant_id", t.ID), zap.String("domain", t.Domain))
	}
	return nil
}

func seedTenant(ctx context.Context, t *store.Tenant) error {
	productsByExt := map[string]*domain.Product{}
	for _, p := range products {
		saved, err := t.UpsertProduct(ctx, domain.Product{
			ExternalID: p.ExternalID,
			Name:       p.Name,
			Category:   p.Category,
			Price:      decimal.RequireFromString(p.Price),
			Stock:      p.Stock,
			Sales:      p.Sales,
			Rating:     p.Rating,
			Image:      p.Image,
			Status:     domain.StatusActive,
		})
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ExternalID, err)
		}
		productsByExt[p.ExternalID] = saved
	}

	customersByExt := map[string]*domain.Customer{}
	for _, c := range customers {
		saved, err := t.UpsertCustomer(ctx, domain.Customer{
			ExternalID:  c.ExternalID,
			Name:        c.Name,
			Email:       c.Email,
			Phone:       c.Phone,
			TotalOrders: c.TotalOrders,
			TotalSpent:  decimal.RequireFromString(c.TotalSpent),
			JoinDate:    c.JoinDate,
			Status:      domain.StatusActive,
		})
		if err != nil {
			return fmt.Errorf("upsert customer %s: %w", c.ExternalID, err)
		}
		customersByExt[c.ExternalID] = saved
	}

	for _, o := range orders {
		p, c := productsByExt[o.Product], customersByExt[o.Customer]
		items := []domain.OrderItem{{ProductID: p.ID, ProductName: p.Name, Quantity: o.Quantity, Price: p.Price}}
		if _, err := t.UpsertOrder(ctx, domain.Order{
			ExternalID:      o.ExternalID,
			CustomerID:      c.ID,
			CustomerName:    c.Name,
			CustomerEmail:   c.Email,
			Items:           items,
			Total:           domain.ComputeTotal(items),
			Status:          o.Status,
			OrderDate:       o.OrderDate,
			ShippingAddress: o.Address,
		}); err != nil {
			return fmt.Errorf("upsert order %s: %w", o.ExternalID, err)
		}
	}
	return nil
}

// Package store hands out tenant-bound views over the repositories. Code
// above the storage layer reaches records only through a *Tenant, so no
// query can be issued without a tenant.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storepulse/internal/domain"
	customerrepo "storepulse/internal/repository/customer"
	eventrepo "storepulse/internal/repository/event"
	"storepulse/internal/repository/memory"
	orderrepo "storepulse/internal/repository/order"
	productrepo "storepulse/internal/repository/product"
	tenantrepo "storepulse/internal/repository/tenant"
)

// Repos bundles one repository per entity.
type Repos struct {
	Tenants   tenantrepo.Repository
	Products  productrepo.Repository
	Customers customerrepo.Repository
	Orders    orderrepo.Repository
	Events    eventrepo.Repository
}

// Store is the entry point to tenant-scoped storage.
type Store struct {
	repos Repos
}

func New(repos Repos) *Store {
	return &Store{repos: repos}
}

// NewPostgres wires every repository to the same pool.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return New(Repos{
		Tenants:   tenantrepo.NewPostgres(pool, logger),
		Products:  productrepo.NewPostgres(pool, logger),
		Customers: customerrepo.NewPostgres(pool, logger),
		Orders:    orderrepo.NewPostgres(pool, logger),
		Events:    eventrepo.NewPostgres(pool, logger),
	})
}

// NewMemory returns a Store backed by in-process maps.
func NewMemory() *Store {
	return New(Repos{
		Tenants:   memory.NewTenants(),
		Products:  memory.NewProducts(),
		Customers: memory.NewCustomers(),
		Orders:    memory.NewOrders(),
		Events:    memory.NewEvents(),
	})
}

// Tenants exposes the tenant registry, which is not itself tenant-scoped.
func (s *Store) Tenants() tenantrepo.Repository {
	return s.repos.Tenants
}

// Tenant returns a handle bound to tenantID. The tenant is not looked up;
// callers resolve it first.
func (s *Store) Tenant(tenantID string) *Tenant {
	return &Tenant{id: tenantID, repos: s.repos}
}

// Tenant is a capability handle for one tenant's records.
type Tenant struct {
	id    string
	repos Repos
}

func (t *Tenant) ID() string { return t.id }

func (t *Tenant) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return t.repos.Products.List(ctx, t.id, filter)
}

func (t *Tenant) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return t.repos.Products.Get(ctx, t.id, id)
}

func (t *Tenant) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	return t.repos.Products.Create(ctx, t.id, p)
}

func (t *Tenant) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	return t.repos.Products.Update(ctx, t.id, id, patch)
}

func (t *Tenant) DeleteProduct(ctx context.Context, id string) error {
	return t.repos.Products.Delete(ctx, t.id, id)
}

func (t *Tenant) UpsertProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	return t.repos.Products.UpsertByExternalID(ctx, t.id, p)
}

func (t *Tenant) ListCustomers(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error) {
	return t.repos.Customers.List(ctx, t.id, filter)
}

func (t *Tenant) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return t.repos.Customers.Get(ctx, t.id, id)
}

func (t *Tenant) CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	return t.repos.Customers.Create(ctx, t.id, c)
}

func (t *Tenant) DeleteCustomer(ctx context.Context, id string) error {
	return t.repos.Customers.Delete(ctx, t.id, id)
}

func (t *Tenant) UpsertCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	return t.repos.Customers.UpsertByExternalID(ctx, t.id, c)
}

func (t *Tenant) RecordCompletedOrder(ctx context.Context, customerID string, amount decimal.Decimal) (*domain.Customer, error) {
	return t.repos.Customers.RecordCompletedOrder(ctx, t.id, customerID, amount)
}

func (t *Tenant) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	return t.repos.Orders.List(ctx, t.id, filter)
}

func (t *Tenant) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return t.repos.Orders.Get(ctx, t.id, id)
}

func (t *Tenant) CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	return t.repos.Orders.Create(ctx, t.id, o)
}

func (t *Tenant) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	return t.repos.Orders.Update(ctx, t.id, id, patch)
}

// TransitionOrder moves the order to next and reports the status it left.
func (t *Tenant) TransitionOrder(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, domain.OrderStatus, error) {
	return t.repos.Orders.Transition(ctx, t.id, id, next)
}

func (t *Tenant) DeleteOrder(ctx context.Context, id string) error {
	return t.repos.Orders.Delete(ctx, t.id, id)
}

func (t *Tenant) UpsertOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	return t.repos.Orders.UpsertByExternalID(ctx, t.id, o)
}

func (t *Tenant) AppendEvent(ctx context.Context, e domain.CustomEvent) (*domain.CustomEvent, error) {
	return t.repos.Events.Append(ctx, t.id, e)
}

func (t *Tenant) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.CustomEvent, error) {
	return t.repos.Events.List(ctx, t.id, filter)
}

// Snapshot is every product, customer and order of one tenant at a point in time.
type Snapshot struct {
	Tenant    domain.Tenant
	Products  []domain.Product
	Customers []domain.Customer
	Orders    []domain.Order
	TakenAt   time.Time
}

// Snapshot loads the tenant and all of its records.
func (t *Tenant) Snapshot(ctx context.Context, now time.Time) (*Snapshot, error) {
	tenant, err := t.repos.Tenants.Get(ctx, t.id)
	if err != nil {
		return nil, err
	}
	products, err := t.ListProducts(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, err
	}
	customers, err := t.ListCustomers(ctx, domain.CustomerFilter{})
	if err != nil {
		return nil, err
	}
	orders, err := t.ListOrders(ctx, domain.OrderFilter{})
	if err != nil {
		return nil, err
	}
	return &Snapshot{Tenant: *tenant, Products: products, Customers: customers, Orders: orders, TakenAt: now}, nil
}

package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepulse/internal/domain"
)

var now = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func order(id string, total int64, status domain.OrderStatus, at time.Time, items ...domain.OrderItem) domain.Order {
	return domain.Order{ID: id, Total: decimal.NewFromInt(total), Status: status, OrderDate: at, Items: items}
}

func TestComputeEmpty(t *testing.T) {
	a := Compute(Snapshot{Now: now}, Options{})
	assert.True(t, a.TotalRevenue.IsZero())
	assert.True(t, a.AverageOrderValue.IsZero())
	assert.Zero(t, a.TotalOrders)
	assert.Zero(t, a.RevenueGrowth)
	assert.Empty(t, a.TopCustomers)
	assert.Empty(t, a.ProductPerformance)
	require.Len(t, a.OrderStatusDistribution, len(domain.OrderStatuses))
	for _, s := range a.OrderStatusDistribution {
		assert.Zero(t, s.Count)
		assert.Zero(t, s.Percentage)
	}
	require.Len(t, a.SalesTrend, DefaultTrendDays)
	assert.Equal(t, "2024-03-31", a.SalesTrend[DefaultTrendDays-1].Date)
}

func TestTopCustomersTieBreak(t *testing.T) {
	customers := []domain.Customer{
		{ID: "c1", TotalSpent: decimal.NewFromInt(100), TotalOrders: 3},
		{ID: "c2", TotalSpent: decimal.NewFromInt(100), TotalOrders: 5},
		{ID: "c3", TotalSpent: decimal.NewFromInt(50), TotalOrders: 1},
	}
	top := TopCustomers(customers, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "c2", top[0].ID)
	assert.Equal(t, "c1", top[1].ID)

	same := []domain.Customer{
		{ID: "b", TotalSpent: decimal.NewFromInt(10), TotalOrders: 1},
		{ID: "a", TotalSpent: decimal.NewFromInt(10), TotalOrders: 1},
	}
	assert.Equal(t, "a", TopCustomers(same, 5)[0].ID)
	assert.Equal(t, "c3", customers[2].ID, "input left untouched")
}

func TestStatusDistributionSumsToHundred(t *testing.T) {
	orders := []domain.Order{
		order("1", 10, domain.OrderPending, now),
		order("2", 10, domain.OrderProcessing, now),
		order("3", 10, domain.OrderProcessing, now),
		order("4", 10, domain.OrderShipped, now),
		order("5", 10, domain.OrderDelivered, now),
		order("6", 10, domain.OrderCancelled, now),
	}
	dist := StatusDistribution(orders)
	require.Len(t, dist, 5)
	assert.Equal(t, domain.OrderPending, dist[0].Status)
	assert.Equal(t, 2, dist[1].Count)
	assert.Equal(t, 33.3, dist[1].Percentage)

	sum := 0.0
	for _, s := range dist {
		sum += s.Percentage
	}
	assert.InDelta(t, 100, sum, 0.5)
}

func TestGrowthAgainstPriorWindow(t *testing.T) {
	orders := []domain.Order{
		order("1", 100, domain.OrderDelivered, now.AddDate(0, 0, -40)),
		order("2", 100, domain.OrderDelivered, now.AddDate(0, 0, -5)),
		order("3", 50, domain.OrderDelivered, now.AddDate(0, 0, -1)),
		order("4", 999, domain.OrderDelivered, now.AddDate(0, 0, -90)),
	}
	a := Compute(Snapshot{Orders: orders, Now: now}, Options{GrowthWindowDays: 30})
	assert.Equal(t, 50.0, a.RevenueGrowth)
	assert.Equal(t, 100.0, a.OrdersGrowth)
	assert.Equal(t, "1249", a.TotalRevenue.String())
	assert.Equal(t, "312.25", a.AverageOrderValue.String())

	noBaseline := Compute(Snapshot{Orders: orders[1:3], Now: now}, Options{GrowthWindowDays: 30})
	assert.Zero(t, noBaseline.RevenueGrowth)
}

func TestProductPerformance(t *testing.T) {
	products := []domain.Product{
		{ID: "p1", ExternalID: "77", Name: "Mug", Price: decimal.NewFromInt(10), Sales: 5},
		{ID: "p2", Name: "Lamp", Price: decimal.NewFromInt(25), Sales: 4},
		{ID: "p3", Name: "Pen", Price: decimal.NewFromInt(1), Sales: 40},
	}
	item := func(id string, qty int) domain.OrderItem {
		return domain.OrderItem{ProductID: id, Quantity: qty, Price: decimal.NewFromInt(10)}
	}
	orders := []domain.Order{
		order("o1", 20, domain.OrderDelivered, now.AddDate(0, 0, -35), item("77", 2)),
		order("o2", 30, domain.OrderDelivered, now.AddDate(0, 0, -3), item("77", 3)),
	}
	perf := Compute(Snapshot{Products: products, Orders: orders, Now: now}, Options{TopN: 2, GrowthWindowDays: 30}).ProductPerformance
	require.Len(t, perf, 2)
	assert.Equal(t, "p2", perf[0].ProductID)
	assert.Equal(t, "100", perf[0].Revenue.String())
	assert.Equal(t, "p1", perf[1].ProductID)
	assert.Equal(t, 5, perf[1].UnitsSold)
	assert.Equal(t, 50.0, perf[1].Growth)
}

func TestSalesTrendZeroFillsInTenantZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	orders := []domain.Order{
		// 2024-03-31 02:00 UTC is still 2024-03-30 in New York.
		order("1", 10, domain.OrderPending, time.Date(2024, 3, 31, 2, 0, 0, 0, time.UTC)),
		order("2", 5, domain.OrderPending, time.Date(2024, 3, 31, 11, 0, 0, 0, time.UTC)),
		order("3", 7, domain.OrderPending, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)),
	}
	a := Compute(Snapshot{Orders: orders, Now: now, Location: ny}, Options{TrendDays: 3})
	require.Len(t, a.SalesTrend, 3)
	assert.Equal(t, TrendPoint{Date: "2024-03-29", Revenue: decimal.Zero, Orders: 0}, a.SalesTrend[0])
	assert.Equal(t, "2024-03-30", a.SalesTrend[1].Date)
	assert.Equal(t, 1, a.SalesTrend[1].Orders)
	assert.Equal(t, "5", a.SalesTrend[2].Revenue.String())
	assert.Equal(t, 1, a.OrdersByDate["2024-03-31"])
	assert.Len(t, a.RevenueByDate, 3)
}

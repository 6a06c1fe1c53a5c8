// Package analytics derives dashboard aggregates from one tenant's records.
// Nothing here reads storage or the clock; callers pass a snapshot.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"storepulse/internal/domain"
)

const (
	DefaultTopN             = 5
	DefaultTrendDays        = 7
	DefaultGrowthWindowDays = 30

	dateLayout = "2006-01-02"
)

// Snapshot is the input of Compute.
type Snapshot struct {
	Products  []domain.Product
	Customers []domain.Customer
	Orders    []domain.Order
	Now       time.Time
	Location  *time.Location
}

type Options struct {
	TopN             int
	TrendDays        int
	GrowthWindowDays int
}

func (o Options) withDefaults() Options {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.TrendDays <= 0 {
		o.TrendDays = DefaultTrendDays
	}
	if o.GrowthWindowDays <= 0 {
		o.GrowthWindowDays = DefaultGrowthWindowDays
	}
	return o
}

type Analytics struct {
	TotalRevenue            decimal.Decimal            `json:"totalRevenue"`
	TotalOrders             int                        `json:"totalOrders"`
	TotalProducts           int                        `json:"totalProducts"`
	TotalCustomers          int                        `json:"totalCustomers"`
	AverageOrderValue       decimal.Decimal            `json:"averageOrderValue"`
	RevenueGrowth           float64                    `json:"revenueGrowth"`
	OrdersGrowth            float64                    `json:"ordersGrowth"`
	TopCustomers            []domain.Customer          `json:"topCustomers"`
	OrderStatusDistribution []StatusShare              `json:"orderStatusDistribution"`
	ProductPerformance      []ProductPerformance       `json:"productPerformance"`
	SalesTrend              []TrendPoint               `json:"salesTrend"`
	OrdersByDate            map[string]int             `json:"ordersByDate"`
	RevenueByDate           map[string]decimal.Decimal `json:"revenueByDate"`
	GeneratedAt             time.Time                  `json:"generatedAt"`
}

type StatusShare struct {
	Status     domain.OrderStatus `json:"status"`
	Count      int                `json:"count"`
	Percentage float64            `json:"percentage"`
}

type ProductPerformance struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Revenue   decimal.Decimal `json:"revenue"`
	UnitsSold int             `json:"unitsSold"`
	Growth    float64         `json:"growth"`
}

type TrendPoint struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// Compute aggregates snap. Empty input yields zero totals and empty lists.
func Compute(snap Snapshot, opts Options) Analytics {
	opts = opts.withDefaults()
	loc := snap.Location
	if loc == nil {
		loc = time.UTC
	}
	now := snap.Now
	if now.IsZero() {
		now = time.Now()
	}

	out := Analytics{
		TotalRevenue:   decimal.Zero,
		TotalOrders:    len(snap.Orders),
		TotalProducts:  len(snap.Products),
		TotalCustomers: len(snap.Customers),
		GeneratedAt:    now.UTC(),
	}
	for _, o := range snap.Orders {
		out.TotalRevenue = out.TotalRevenue.Add(o.Total)
	}
	out.AverageOrderValue = decimal.Zero
	if out.TotalOrders > 0 {
		out.AverageOrderValue = out.TotalRevenue.Div(decimal.NewFromInt(int64(out.TotalOrders))).Round(2)
	}

	window := time.Duration(opts.GrowthWindowDays) * 24 * time.Hour
	curStart, prevStart := now.Add(-window), now.Add(-2*window)
	var curRevenue, prevRevenue = decimal.Zero, decimal.Zero
	var curOrders, prevOrders int
	for _, o := range snap.Orders {
		switch {
		case inRange(o.OrderDate, curStart, now):
			curRevenue = curRevenue.Add(o.Total)
			curOrders++
		case inRange(o.OrderDate, prevStart, curStart):
			prevRevenue = prevRevenue.Add(o.Total)
			prevOrders++
		}
	}
	out.RevenueGrowth = growth(curRevenue.InexactFloat64(), prevRevenue.InexactFloat64())
	out.OrdersGrowth = growth(float64(curOrders), float64(prevOrders))

	out.TopCustomers = TopCustomers(snap.Customers, opts.TopN)
	out.OrderStatusDistribution = StatusDistribution(snap.Orders)
	out.ProductPerformance = TopProducts(snap.Products, snap.Orders, opts.TopN, prevStart, curStart, now)
	out.SalesTrend = SalesTrend(snap.Orders, now, loc, opts.TrendDays)

	out.OrdersByDate = make(map[string]int, len(out.SalesTrend))
	out.RevenueByDate = make(map[string]decimal.Decimal, len(out.SalesTrend))
	for _, p := range out.SalesTrend {
		out.OrdersByDate[p.Date] = p.Orders
		out.RevenueByDate[p.Date] = p.Revenue
	}
	return out
}

// TopCustomers orders by total spent, then order count, then id.
func TopCustomers(customers []domain.Customer, n int) []domain.Customer {
	sorted := append([]domain.Customer(nil), customers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := a.TotalSpent.Cmp(b.TotalSpent); c != 0 {
			return c > 0
		}
		if a.TotalOrders != b.TotalOrders {
			return a.TotalOrders > b.TotalOrders
		}
		return a.ID < b.ID
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// StatusDistribution reports every status in lifecycle order. Percentages
// are rounded to one decimal.
func StatusDistribution(orders []domain.Order) []StatusShare {
	counts := make(map[domain.OrderStatus]int, len(domain.OrderStatuses))
	for _, o := range orders {
		counts[o.Status]++
	}
	out := make([]StatusShare, 0, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		share := StatusShare{Status: s, Count: counts[s]}
		if len(orders) > 0 {
			share.Percentage = round1(float64(share.Count) * 100 / float64(len(orders)))
		}
		out = append(out, share)
	}
	return out
}

// TopProducts ranks products by price times sales. Growth compares units
// sold in order lines during [curStart, now) against [prevStart, curStart).
func TopProducts(products []domain.Product, orders []domain.Order, n int, prevStart, curStart, now time.Time) []ProductPerformance {
	curUnits := map[string]int{}
	prevUnits := map[string]int{}
	for _, o := range orders {
		var bucket map[string]int
		switch {
		case inRange(o.OrderDate, curStart, now):
			bucket = curUnits
		case inRange(o.OrderDate, prevStart, curStart):
			bucket = prevUnits
		default:
			continue
		}
		for _, it := range o.Items {
			bucket[it.ProductID] += it.Quantity
		}
	}
	units := func(m map[string]int, p domain.Product) int {
		n := m[p.ID]
		if p.ExternalID != "" && p.ExternalID != p.ID {
			n += m[p.ExternalID]
		}
		return n
	}

	out := make([]ProductPerformance, 0, len(products))
	for _, p := range products {
		out = append(out, ProductPerformance{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Revenue:   p.Price.Mul(decimal.NewFromInt(int64(p.Sales))),
			UnitsSold: p.Sales,
			Growth:    growth(float64(units(curUnits, p)), float64(units(prevUnits, p))),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		if a.UnitsSold != b.UnitsSold {
			return a.UnitsSold > b.UnitsSold
		}
		return a.ProductID < b.ProductID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SalesTrend returns one point per calendar day in loc, oldest first,
// ending with the day containing now. Days without orders are zero.
func SalesTrend(orders []domain.Order, now time.Time, loc *time.Location, days int) []TrendPoint {
	if days <= 0 {
		return []TrendPoint{}
	}
	today := now.In(loc)
	index := make(map[string]int, days)
	points := make([]TrendPoint, days)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i-days+1).Format(dateLayout)
		points[i] = TrendPoint{Date: day, Revenue: decimal.Zero}
		index[day] = i
	}
	for _, o := range orders {
		i, ok := index[o.OrderDate.In(loc).Format(dateLayout)]
		if !ok || o.OrderDate.After(now) {
			continue
		}
		points[i].Revenue = points[i].Revenue.Add(o.Total)
		points[i].Orders++
	}
	return points
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// growth is the percentage change from prev to cur. A zero baseline
// reports no growth.
func growth(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return round1((cur - prev) / prev * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

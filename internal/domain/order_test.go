package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTotalInvariant(t *testing.T) {
	items := []OrderItem{
		{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("10.00")},
		{ProductID: "p2", Quantity: 1, Price: decimal.RequireFromString("5.00")},
	}
	total := ComputeTotal(items)
	assert.Equal(t, "25.00", total.StringFixed(2))

	order := Order{Items: items, Total: total, Status: OrderPending}
	require.NoError(t, order.Validate())

	order.Total = decimal.RequireFromString("24.99")
	require.ErrorIs(t, order.Validate(), ErrInvalid)
}

func TestOrderValidateItems(t *testing.T) {
	order := Order{
		Items:  []OrderItem{{Quantity: 0, Price: decimal.NewFromInt(1)}},
		Status: OrderPending,
	}
	require.ErrorIs(t, order.Validate(), ErrInvalid)

	order.Items = nil
	require.ErrorIs(t, order.Validate(), ErrInvalid)
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderDelivered, true},
		{OrderProcessing, OrderShipped, true},
		{OrderShipped, OrderProcessing, false},
		{OrderShipped, OrderCancelled, true},
		{OrderDelivered, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
		{OrderDelivered, OrderDelivered, true},
		{OrderPending, "lost", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestMergeOrderStatus(t *testing.T) {
	assert.Equal(t, OrderPending, MergeOrderStatus("", OrderPending))
	assert.Equal(t, OrderShipped, MergeOrderStatus(OrderShipped, OrderProcessing))
	assert.Equal(t, OrderDelivered, MergeOrderStatus(OrderProcessing, OrderDelivered))
	assert.Equal(t, OrderCancelled, MergeOrderStatus(OrderShipped, OrderCancelled))
	assert.Equal(t, OrderCancelled, MergeOrderStatus(OrderCancelled, OrderProcessing))
}

package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	all := []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
	allowed := map[[2]OrderStatus]bool{
		{StatusPending, StatusProcessing}:  true,
		{StatusProcessing, StatusShipped}:  true,
		{StatusShipped, StatusDelivered}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusProcessing, StatusCancelled}: true,
		{StatusShipped, StatusCancelled}:   true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]OrderStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	_, err = ParseOrderStatus("lost")
	require.Error(t, err)
}

func TestOrderRecalculate(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("3.25")},
	}}
	o.Recalculate()

	assert.True(t, decimal.RequireFromString("21").Equal(o.Items[0].LineTotal))
	assert.True(t, decimal.RequireFromString("24.25").Equal(o.TotalAmount))
}

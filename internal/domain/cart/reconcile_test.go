package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(menuItemID string, qty int, price string) Line {
	return Line{
		UserID:       "u1",
		RestaurantID: "r1",
		MenuItemID:   menuItemID,
		Quantity:     qty,
		Price:        decimal.RequireFromString(price),
	}
}

func TestReconcile_AllMatch(t *testing.T) {
	stored := []Line{line("m1", 2, "20.00"), line("m2", 1, "6.25")}
	claimed := []Line{line("m1", 2, "20.00"), line("m2", 1, "6.25")}

	res := Reconcile(stored, claimed, MatchQuantity)

	assert.Len(t, res.Available, 2)
	assert.Empty(t, res.Unavailable)
}

func TestReconcile_QuantityMismatch(t *testing.T) {
	stored := []Line{line("m1", 2, "20.00")}
	claimed := []Line{line("m1", 3, "30.00")}

	res := Reconcile(stored, claimed, MatchQuantity)

	assert.Empty(t, res.Available)
	require.Len(t, res.Unavailable, 1)
	assert.Equal(t, "m1", res.Unavailable[0].MenuItemID)
	assert.Equal(t, 3, res.Unavailable[0].Quantity)
}

func TestReconcile_UnknownItem(t *testing.T) {
	stored := []Line{line("m1", 2, "20.00")}
	claimed := []Line{line("m1", 2, "20.00"), line("m9", 1, "5.00")}

	res := Reconcile(stored, claimed, MatchQuantity)

	assert.Len(t, res.Available, 1)
	require.Len(t, res.Unavailable, 1)
	assert.Equal(t, "m9", res.Unavailable[0].MenuItemID)
}

// A stale client price is accepted when quantity matches, and the stored
// price wins in the available copy.
func TestReconcile_PriceIgnoredByDefault(t *testing.T) {
	stored := []Line{line("m1", 2, "20.00")}
	claimed := []Line{line("m1", 2, "99.00")}

	res := Reconcile(stored, claimed, MatchQuantity)

	require.Len(t, res.Available, 1)
	assert.Empty(t, res.Unavailable)
	assert.True(t, res.Available[0].Price.Equal(decimal.RequireFromString("20.00")),
		"got %s", res.Available[0].Price)
}

func TestReconcile_StrictModeComparesPrice(t *testing.T) {
	stored := []Line{line("m1", 2, "20.00")}
	claimed := []Line{line("m1", 2, "99.00")}

	res := Reconcile(stored, claimed, MatchQuantityAndPrice)

	assert.Empty(t, res.Available)
	require.Len(t, res.Unavailable, 1)
}

func TestReconcile_EmptyClaimed(t *testing.T) {
	stored := []Line{line("m1", 2, "20.00")}

	res := Reconcile(stored, nil, MatchQuantity)

	assert.Empty(t, res.Available)
	assert.Empty(t, res.Unavailable)
}

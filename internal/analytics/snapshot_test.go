package analytics

import (
	"testing"
	"time"

	"github.com/franciscosanchezn/pizza-sales-analytics/internal/loader"
	"github.com/franciscosanchezn/pizza-sales-analytics/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func clock(value string) time.Time {
	t, err := time.Parse("15:04:05", value)
	if err != nil {
		panic(err)
	}
	return t
}

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// rawFixture is a small dataset exercising every grouping dimension:
// two months, three weekdays, four categories, four sizes.
func rawFixture() *loader.RawData {
	return &loader.RawData{
		PizzaTypes: []models.PizzaType{
			{ID: "t_marg", Name: "Margherita", Category: "Classic", Ingredients: []string{"Tomato Sauce", "Mozzarella"}},
			{ID: "t_haw", Name: "Hawaiian", Category: "Classic"},
			{ID: "t_veg", Name: "Veggie", Category: "Veggie"},
			{ID: "t_bbq", Name: "BBQ Chicken", Category: "Chicken"},
		},
		Pizzas: []models.Pizza{
			{ID: "marg_l", PizzaTypeID: "t_marg", Size: "L", Price: price("9.99")},
			{ID: "marg_m", PizzaTypeID: "t_marg", Size: "M", Price: price("8.49")},
			{ID: "haw_l", PizzaTypeID: "t_haw", Size: "L", Price: price("11.50")},
			{ID: "veg_s", PizzaTypeID: "t_veg", Size: "S", Price: price("7.25")},
			{ID: "bbq_xl", PizzaTypeID: "t_bbq", Size: "XL", Price: price("15.00")},
		},
		Orders: []models.Order{
			{ID: 1, Date: date("2024-01-05"), Time: clock("18:30:00")}, // Friday
			{ID: 2, Date: date("2024-01-06"), Time: clock("12:05:00")}, // Saturday
			{ID: 3, Date: date("2024-02-10"), Time: clock("18:45:00")}, // Saturday
			{ID: 4, Date: date("2024-02-11"), Time: clock("13:00:00")}, // Sunday
		},
		OrderLines: []models.OrderLine{
			{ID: 1, OrderID: 1, PizzaID: "marg_l", Quantity: 2},
			{ID: 2, OrderID: 1, PizzaID: "bbq_xl", Quantity: 1},
			{ID: 3, OrderID: 2, PizzaID: "haw_l", Quantity: 1},
			{ID: 4, OrderID: 3, PizzaID: "veg_s", Quantity: 3},
			{ID: 5, OrderID: 3, PizzaID: "marg_l", Quantity: 1},
			{ID: 6, OrderID: 4, PizzaID: "marg_m", Quantity: 2},
		},
	}
}

func TestBuildSnapshotCleanData(t *testing.T) {
	snap, integrity := BuildSnapshot(rawFixture())

	assert.True(t, integrity.Clean())
	assert.Zero(t, integrity.ExcludedLines)
	assert.Zero(t, integrity.ExcludedPizzas)
	assert.Equal(t, 4, snap.Orders())
	assert.Equal(t, 6, snap.SaleLines())
	assert.NotEmpty(t, snap.ID)
}

func TestBuildSnapshotExcludesOrphanedLines(t *testing.T) {
	raw := rawFixture()
	raw.OrderLines = append(raw.OrderLines,
		models.OrderLine{ID: 7, OrderID: 1, PizzaID: "no_such_pizza", Quantity: 5},
		models.OrderLine{ID: 8, OrderID: 99, PizzaID: "marg_l", Quantity: 1},
	)

	snap, integrity := BuildSnapshot(raw)

	assert.False(t, integrity.Clean())
	assert.Equal(t, 2, integrity.ExcludedLines)
	assert.Equal(t, 1, integrity.ByCode[models.CodeUnknownPizza])
	assert.Equal(t, 1, integrity.ByCode[models.CodeUnknownOrder])

	// Orphaned lines never reach an aggregation
	assert.Equal(t, 6, snap.SaleLines())
	assert.True(t, snap.TotalRevenue().Equal(price("95.20")),
		"orphaned lines leaked into total revenue: %s", snap.TotalRevenue())

	// The sample carries the offending line's identifying fields
	require.Len(t, integrity.Sample, 2)
	assert.Equal(t, models.CodeUnknownPizza, integrity.Sample[0].Code)
	assert.Equal(t, "no_such_pizza", integrity.Sample[0].Value)
	assert.Equal(t, 7, integrity.Sample[0].Line)
}

func TestBuildSnapshotExcludesPizzasWithUnknownType(t *testing.T) {
	raw := rawFixture()
	raw.Pizzas = append(raw.Pizzas,
		models.Pizza{ID: "ghost_l", PizzaTypeID: "t_ghost", Size: "L", Price: price("9.00")})
	raw.OrderLines = append(raw.OrderLines,
		models.OrderLine{ID: 7, OrderID: 1, PizzaID: "ghost_l", Quantity: 1})

	snap, integrity := BuildSnapshot(raw)

	assert.Equal(t, 1, integrity.ExcludedPizzas)
	assert.Equal(t, 1, integrity.ByCode[models.CodeUnknownPizzaType])
	// The line pointing at the excluded pizza goes with it
	assert.Equal(t, 1, integrity.ExcludedLines)
	assert.Equal(t, 1, integrity.ByCode[models.CodeUnknownPizza])
	assert.Equal(t, 6, snap.SaleLines())
}

func TestSnapshotDatasetIsFiltered(t *testing.T) {
	raw := rawFixture()
	raw.Pizzas = append(raw.Pizzas,
		models.Pizza{ID: "ghost_l", PizzaTypeID: "t_ghost", Size: "L", Price: price("9.00")})
	raw.OrderLines = append(raw.OrderLines,
		models.OrderLine{ID: 7, OrderID: 99, PizzaID: "marg_l", Quantity: 1})

	snap, integrity := BuildSnapshot(raw)
	require.False(t, integrity.Clean())

	clean := snap.Dataset()
	assert.Len(t, clean.OrderLines, 6, "orphaned line must not survive into the dataset")
	assert.Len(t, clean.Pizzas, 5, "pizza with unknown type must not survive into the dataset")
	assert.Len(t, clean.Orders, 4)
	assert.Len(t, clean.PizzaTypes, 4)

	// Mutating the returned dataset leaves the snapshot untouched
	clean.OrderLines[0].Quantity = 1000
	assert.True(t, snap.TotalRevenue().Equal(price("95.20")), "got %s", snap.TotalRevenue())
}

func TestIntegritySampleIsCapped(t *testing.T) {
	raw := rawFixture()
	for i := 0; i < 25; i++ {
		raw.OrderLines = append(raw.OrderLines,
			models.OrderLine{ID: 100 + i, OrderID: 1, PizzaID: "no_such_pizza", Quantity: 1})
	}

	_, integrity := BuildSnapshot(raw)

	assert.Equal(t, 25, integrity.ExcludedLines)
	assert.Len(t, integrity.Sample, integritySampleLimit)
}

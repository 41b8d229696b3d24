package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/franciscosanchezn/pizza-sales-analytics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testSources(t *testing.T, orders, lines, pizzas, types string) Sources {
	t.Helper()
	dir := t.TempDir()
	return Sources{
		Orders:     writeDataset(t, dir, "orders.csv", orders),
		OrderLines: writeDataset(t, dir, "order_details.csv", lines),
		Pizzas:     writeDataset(t, dir, "pizzas.csv", pizzas),
		PizzaTypes: writeDataset(t, dir, "pizza_types.csv", types),
	}
}

func TestLoadCleanDataset(t *testing.T) {
	src := testSources(t,
		"order_id,date,time\n1,2024-01-05,18:30:00\n2,2024-01-06,12:05:00\n",
		"order_details_id,order_id,pizza_id,quantity\n1,1,margherita_l,2\n2,2,margherita_l,1\n",
		"pizza_id,pizza_type_id,size,price\nmargherita_l,margherita,L,9.99\n",
		"pizza_type_id,name,category,ingredients\nmargherita,Margherita,Classic,\"Tomato Sauce, Mozzarella, Basil\"\n",
	)

	data, report, err := Load(src)
	require.NoError(t, err)
	assert.Zero(t, report.Count(), "clean dataset must produce no violations")

	require.Len(t, data.Orders, 2)
	require.Len(t, data.OrderLines, 2)
	require.Len(t, data.Pizzas, 1)
	require.Len(t, data.PizzaTypes, 1)

	assert.Equal(t, 1, data.Orders[0].ID)
	assert.Equal(t, 18, data.Orders[0].Hour())
	assert.Equal(t, "margherita_l", data.OrderLines[0].PizzaID)
	assert.Equal(t, "9.99", data.Pizzas[0].Price.String())
	assert.Equal(t, []string{"Tomato Sauce", "Mozzarella", "Basil"}, data.PizzaTypes[0].Ingredients)
	assert.NotEmpty(t, report.SessionID)
}

func TestLoadNormalizesSizes(t *testing.T) {
	src := testSources(t,
		"order_id,date,time\n1,2024-01-05,18:30:00\n",
		"order_details_id,order_id,pizza_id,quantity\n1,1,p1,1\n",
		"pizza_id,pizza_type_id,size,price\np1,t1, l ,9.99\np2,t1,xL,12.50\np3,t1,XXL,15.00\n",
		"pizza_type_id,name,category,ingredients\nt1,Margherita,Classic,Tomato\n",
	)

	data, report, err := Load(src)
	require.NoError(t, err)
	assert.Zero(t, report.Count())

	require.Len(t, data.Pizzas, 3)
	assert.Equal(t, models.SizeL, data.Pizzas[0].Size)
	assert.Equal(t, models.SizeXL, data.Pizzas[1].Size)
	assert.Equal(t, models.SizeXXL, data.Pizzas[2].Size)
}

func TestLoadCollectsViolations(t *testing.T) {
	src := testSources(t,
		// row 3 has a bad date, row 4 is missing the time
		"order_id,date,time\n1,2024-01-05,18:30:00\n2,05/01/2024,18:30:00\n3,2024-01-06,\n",
		// row 3 has zero quantity, row 4 a non-numeric order id, row 5 too few columns
		"order_details_id,order_id,pizza_id,quantity\n1,1,p1,2\n2,1,p1,0\nx,1,p1,1\n4,1\n",
		// row 3 has a negative price, row 4 an unknown size, row 5 duplicates p1
		"pizza_id,pizza_type_id,size,price\np1,t1,M,9.99\np2,t1,M,-1.00\np3,t1,G,9.99\np1,t1,L,11.99\n",
		// row 3 is missing the category
		"pizza_type_id,name,category,ingredients\nt1,Margherita,Classic,Tomato\nt2,Hawaiian,,Pineapple\n",
	)

	data, report, err := Load(src)
	require.NoError(t, err, "row-level problems must not abort the load")

	// Clean rows survive
	assert.Len(t, data.Orders, 1)
	assert.Len(t, data.OrderLines, 1)
	assert.Len(t, data.Pizzas, 1)
	assert.Len(t, data.PizzaTypes, 1)

	byCode := report.ByCode()
	assert.Equal(t, 1, byCode[models.CodeInvalidDate])
	assert.Equal(t, 2, byCode[models.CodeMissingField]) // order time, type category
	assert.Equal(t, 1, byCode[models.CodeNonPositiveQuantity])
	assert.Equal(t, 1, byCode[models.CodeInvalidNumber])
	assert.Equal(t, 1, byCode[models.CodeBadColumnCount])
	assert.Equal(t, 1, byCode[models.CodeNegativePrice])
	assert.Equal(t, 1, byCode[models.CodeInvalidSize])
	assert.Equal(t, 1, byCode[models.CodeDuplicateKey])
	assert.Equal(t, 9, report.Count())
}

func TestLoadViolationCarriesLocation(t *testing.T) {
	src := testSources(t,
		"order_id,date,time\n1,2024-01-05,18:30:00\n2,bad-date,18:30:00\n",
		"order_details_id,order_id,pizza_id,quantity\n1,1,p1,1\n",
		"pizza_id,pizza_type_id,size,price\np1,t1,M,9.99\n",
		"pizza_type_id,name,category,ingredients\nt1,Margherita,Classic,Tomato\n",
	)

	_, report, err := Load(src)
	require.NoError(t, err)
	require.Equal(t, 1, report.Count())

	v := report.Violations[0]
	assert.Equal(t, src.Orders, v.File)
	assert.Equal(t, 3, v.Line, "line numbers are 1-based and count the header")
	assert.Equal(t, "date", v.Field)
	assert.Equal(t, models.CodeInvalidDate, v.Code)
	assert.Equal(t, "bad-date", v.Value)
}

func TestLoadDuplicatedHeaderColumn(t *testing.T) {
	// A repeated header name must not make every row look mis-sized; the
	// column check compares against the raw header width
	src := testSources(t,
		"order_id,date,time,time\n1,2024-01-05,18:30:00,18:30:00\n",
		"order_details_id,order_id,pizza_id,quantity\n1,1,p1,1\n",
		"pizza_id,pizza_type_id,size,price\np1,t1,M,9.99\n",
		"pizza_type_id,name,category,ingredients\nt1,Margherita,Classic,Tomato\n",
	)

	data, report, err := Load(src)
	require.NoError(t, err)
	assert.Zero(t, report.ByCode()[models.CodeBadColumnCount])
	require.Len(t, data.Orders, 1)
	assert.Equal(t, 18, data.Orders[0].Hour())
}

func TestLoadMissingFileIsError(t *testing.T) {
	src := testSources(t,
		"order_id,date,time\n",
		"order_details_id,order_id,pizza_id,quantity\n",
		"pizza_id,pizza_type_id,size,price\n",
		"pizza_type_id,name,category,ingredients\n",
	)
	src.Orders = filepath.Join(t.TempDir(), "nope.csv")

	_, _, err := Load(src)
	assert.Error(t, err)
}

func TestLoadMissingHeaderColumnIsError(t *testing.T) {
	src := testSources(t,
		"order_id,date\n1,2024-01-05\n", // no time column
		"order_details_id,order_id,pizza_id,quantity\n",
		"pizza_id,pizza_type_id,size,price\n",
		"pizza_type_id,name,category,ingredients\n",
	)

	_, _, err := Load(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time")
}

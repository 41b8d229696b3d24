package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/franciscosanchezn/pizza-sales-analytics/internal/analytics"
	"github.com/shopspring/decimal"
)

// Table is the render-ready form of any report result: a title, column
// headers, and stringified rows. Scalars become single-cell tables so every
// report shares one output path.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

var titleColor = color.New(color.FgCyan, color.Bold)

// Write prints the table as aligned text columns with a colored title
func (t Table) Write(w io.Writer) error {
	if _, err := titleColor.Fprintln(w, t.Title); err != nil {
		return err
	}

	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = len(col)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) error {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		_, err := fmt.Fprintln(w, "  "+strings.TrimRight(strings.Join(parts, "  "), " "))
		return err
	}

	if err := writeRow(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writeRow(row); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteCSV re-exports the table as comma-delimited text with a header row
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// money formats a decimal with exactly two fraction digits
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Scalar builds a single-cell table for a scalar report result
func Scalar(title, column, value string) Table {
	return Table{Title: title, Columns: []string{column}, Rows: [][]string{{value}}}
}

// Money builds a single-cell table for a monetary scalar
func Money(title, column string, value decimal.Decimal) Table {
	return Scalar(title, column, money(value))
}

// TypeCounts builds a table from a pizza type ranking
func TypeCounts(title string, rows []analytics.TypeCount) Table {
	t := Table{Title: title, Columns: []string{"pizza_type", "order_lines"}}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{row.Name, strconv.Itoa(row.Lines)})
	}
	return t
}

// SizeCount builds a table for the most popular size result
func SizeCount(title string, row analytics.SizeCount) Table {
	return Table{
		Title:   title,
		Columns: []string{"size", "order_lines"},
		Rows:    [][]string{{row.Size, strconv.Itoa(row.Lines)}},
	}
}

// Categories builds a table from the distinct category list
func Categories(title string, categories []string) Table {
	t := Table{Title: title, Columns: []string{"category"}}
	for _, c := range categories {
		t.Rows = append(t.Rows, []string{c})
	}
	return t
}

// CategoryRevenues builds a table from the revenue-by-category report
func CategoryRevenues(title string, rows []analytics.CategoryRevenue) Table {
	t := Table{Title: title, Columns: []string{"category", "revenue", "percent"}}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{row.Category, money(row.Revenue), money(row.Percent)})
	}
	return t
}

// HourCounts builds a table from the hourly order distribution
func HourCounts(title string, rows []analytics.HourCount) Table {
	t := Table{Title: title, Columns: []string{"hour", "orders"}}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{strconv.Itoa(row.Hour), strconv.Itoa(row.Orders)})
	}
	return t
}

// MonthRevenues builds a table from the monthly revenue trend
func MonthRevenues(title string, rows []analytics.MonthRevenue) Table {
	t := Table{Title: title, Columns: []string{"month", "revenue"}}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{row.Month, money(row.Revenue)})
	}
	return t
}

// DayRevenue builds a table for the top revenue day-of-week result
func DayRevenue(title string, row analytics.DayRevenue) Table {
	return Table{
		Title:   title,
		Columns: []string{"day_of_week", "revenue"},
		Rows:    [][]string{{row.Day, money(row.Revenue)}},
	}
}

// ComboRevenue builds a table for the top type/size combination result
func ComboRevenue(title string, row analytics.ComboRevenue) Table {
	return Table{
		Title:   title,
		Columns: []string{"pizza_type", "size", "revenue"},
		Rows:    [][]string{{row.Name, row.Size, money(row.Revenue)}},
	}
}

// Tiers builds a table from the price tier performance report
func Tiers(title string, rows []analytics.TierPerformance) Table {
	t := Table{Title: title, Columns: []string{"tier", "quantity", "revenue"}}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{row.Tier, strconv.Itoa(row.Quantity), money(row.Revenue)})
	}
	return t
}

// NoValue builds a table for a report that had no eligible rows, keeping
// "no sales" distinguishable from a zero metric in the output
func NoValue(title string) Table {
	return Table{Title: title, Columns: []string{"result"}, Rows: [][]string{{"no eligible rows"}}}
}

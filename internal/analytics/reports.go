package analytics

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrEmptyInput is returned by scalar reports invoked over zero eligible
// rows, so callers can tell "no sales" apart from "zero revenue".
var ErrEmptyInput = errors.New("report requires at least one eligible row")

// Price tier labels used by PriceTierPerformance
const (
	TierHigh = "High"
	TierLow  = "Low"
)

// Report result rows. Monetary values carry two decimal places where the
// report definition rounds; ties on the metric always break on the group
// key ascending so every report is deterministic.
type (
	// SizeCount is an order line count for one pizza size
	SizeCount struct {
		Size  string `json:"size"`
		Lines int    `json:"lines"`
	}

	// TypeCount is an order line count for one pizza type name
	TypeCount struct {
		Name  string `json:"name"`
		Lines int    `json:"lines"`
	}

	// CategoryRevenue is a category's revenue and its share of the total
	CategoryRevenue struct {
		Category string          `json:"category"`
		Revenue  decimal.Decimal `json:"revenue"`
		Percent  decimal.Decimal `json:"percent"`
	}

	// HourCount is the number of orders placed during one hour of day
	HourCount struct {
		Hour   int `json:"hour"`
		Orders int `json:"orders"`
	}

	// MonthRevenue is the revenue attributed to one calendar month name
	MonthRevenue struct {
		Month   string          `json:"month"`
		Revenue decimal.Decimal `json:"revenue"`
	}

	// DayRevenue is the revenue attributed to one day-of-week name
	DayRevenue struct {
		Day     string          `json:"day"`
		Revenue decimal.Decimal `json:"revenue"`
	}

	// ComboRevenue is the revenue of one (pizza type, size) combination
	ComboRevenue struct {
		Name    string          `json:"name"`
		Size    string          `json:"size"`
		Revenue decimal.Decimal `json:"revenue"`
	}

	// TierPerformance aggregates quantity and revenue for one price tier
	TierPerformance struct {
		Tier     string          `json:"tier"`
		Quantity int             `json:"quantity"`
		Revenue  decimal.Decimal `json:"revenue"`
	}
)

// revenue of a single sale line: quantity times the unit price of the
// referenced pizza at load time
func (l saleLine) revenue() decimal.Decimal {
	return l.Pizza.Price.Mul(decimal.NewFromInt(int64(l.Line.Quantity)))
}

// TotalRevenue returns the revenue summed over every sale line
func (s *Snapshot) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.revenue())
	}
	return total
}

// TotalOrders returns the count of distinct loaded orders
func (s *Snapshot) TotalOrders() int {
	return len(s.orders)
}

// MostPopularSize returns the size with the most order lines.
// Ties break on size ascending.
func (s *Snapshot) MostPopularSize() (SizeCount, error) {
	if len(s.lines) == 0 {
		return SizeCount{}, ErrEmptyInput
	}
	counts := make(map[string]int)
	for _, l := range s.lines {
		counts[l.Pizza.Size]++
	}
	best := SizeCount{}
	for size, n := range counts {
		if n > best.Lines || (n == best.Lines && (best.Size == "" || size < best.Size)) {
			best = SizeCount{Size: size, Lines: n}
		}
	}
	return best, nil
}

// TopBestSellers returns the n pizza type names with the most order lines,
// descending. Ties break on name ascending.
func (s *Snapshot) TopBestSellers(n int) []TypeCount {
	return s.lineCountsByType(n, func(a, b TypeCount) bool {
		if a.Lines != b.Lines {
			return a.Lines > b.Lines
		}
		return a.Name < b.Name
	})
}

// LeastSellingPizzas returns the n sold pizza type names with the fewest
// order lines, ascending. Types with no sales at all do not appear.
// Ties break on name ascending.
func (s *Snapshot) LeastSellingPizzas(n int) []TypeCount {
	return s.lineCountsByType(n, func(a, b TypeCount) bool {
		if a.Lines != b.Lines {
			return a.Lines < b.Lines
		}
		return a.Name < b.Name
	})
}

func (s *Snapshot) lineCountsByType(n int, less func(a, b TypeCount) bool) []TypeCount {
	counts := make(map[string]int)
	for _, l := range s.lines {
		counts[l.Type.Name]++
	}
	result := make([]TypeCount, 0, len(counts))
	for name, lines := range counts {
		result = append(result, TypeCount{Name: name, Lines: lines})
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// DistinctCategories returns the deduplicated catalog categories, sorted
// ascending
func (s *Snapshot) DistinctCategories() []string {
	seen := make(map[string]bool)
	var categories []string
	for _, pt := range s.types {
		if !seen[pt.Category] {
			seen[pt.Category] = true
			categories = append(categories, pt.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

// AverageOrderValue returns the mean revenue per sale line, rounded to two
// decimals (half away from zero)
func (s *Snapshot) AverageOrderValue() (decimal.Decimal, error) {
	if len(s.lines) == 0 {
		return decimal.Zero, ErrEmptyInput
	}
	return s.TotalRevenue().Div(decimal.NewFromInt(int64(len(s.lines)))).Round(2), nil
}

// AverageRevenuePerOrder returns total revenue divided by the count of
// distinct orders, rounded to two decimals
func (s *Snapshot) AverageRevenuePerOrder() (decimal.Decimal, error) {
	if len(s.orders) == 0 {
		return decimal.Zero, ErrEmptyInput
	}
	return s.TotalRevenue().Div(decimal.NewFromInt(int64(len(s.orders)))).Round(2), nil
}

// RevenueByCategory returns each category's revenue and its percentage of
// the grand total, both rounded to two decimals, descending by revenue.
// Ties break on category ascending. The grand total is computed once; no
// per-group rescan.
func (s *Snapshot) RevenueByCategory() []CategoryRevenue {
	revenues := make(map[string]decimal.Decimal)
	grand := decimal.Zero
	for _, l := range s.lines {
		rev := l.revenue()
		revenues[l.Type.Category] = revenues[l.Type.Category].Add(rev)
		grand = grand.Add(rev)
	}

	hundred := decimal.NewFromInt(100)
	result := make([]CategoryRevenue, 0, len(revenues))
	for category, rev := range revenues {
		percent := decimal.Zero
		if !grand.IsZero() {
			percent = rev.Mul(hundred).Div(grand).Round(2)
		}
		result = append(result, CategoryRevenue{
			Category: category,
			Revenue:  rev.Round(2),
			Percent:  percent,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Revenue.Equal(result[j].Revenue) {
			return result[i].Revenue.GreaterThan(result[j].Revenue)
		}
		return result[i].Category < result[j].Category
	})
	return result
}

// HourlyDistribution returns the number of orders placed per hour of day,
// descending by count. Ties break on hour ascending.
func (s *Snapshot) HourlyDistribution() []HourCount {
	counts := make(map[int]int)
	for _, o := range s.orders {
		counts[o.Hour()]++
	}
	result := make([]HourCount, 0, len(counts))
	for hour, n := range counts {
		result = append(result, HourCount{Hour: hour, Orders: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Orders != result[j].Orders {
			return result[i].Orders > result[j].Orders
		}
		return result[i].Hour < result[j].Hour
	})
	return result
}

// MonthlyRevenueTrend returns revenue per calendar month name, ordered by
// the computed total ascending. Ties break on month name ascending.
func (s *Snapshot) MonthlyRevenueTrend() []MonthRevenue {
	revenues := make(map[string]decimal.Decimal)
	for _, l := range s.lines {
		month := l.Order.Date.Month().String()
		revenues[month] = revenues[month].Add(l.revenue())
	}
	result := make([]MonthRevenue, 0, len(revenues))
	for month, rev := range revenues {
		result = append(result, MonthRevenue{Month: month, Revenue: rev})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Revenue.Equal(result[j].Revenue) {
			return result[i].Revenue.LessThan(result[j].Revenue)
		}
		return result[i].Month < result[j].Month
	})
	return result
}

// TopRevenueDayOfWeek returns the day-of-week name with the highest
// revenue. Ties break on day name ascending.
func (s *Snapshot) TopRevenueDayOfWeek() (DayRevenue, error) {
	if len(s.lines) == 0 {
		return DayRevenue{}, ErrEmptyInput
	}
	revenues := make(map[string]decimal.Decimal)
	for _, l := range s.lines {
		day := l.Order.Date.Weekday().String()
		revenues[day] = revenues[day].Add(l.revenue())
	}
	best := DayRevenue{}
	for day, rev := range revenues {
		if best.Day == "" || rev.GreaterThan(best.Revenue) ||
			(rev.Equal(best.Revenue) && day < best.Day) {
			best = DayRevenue{Day: day, Revenue: rev}
		}
	}
	return best, nil
}

// TopRevenueTypeSizeCombo returns the (pizza type, size) pair with the
// highest revenue, rounded to two decimals. Ties break on name then size
// ascending.
func (s *Snapshot) TopRevenueTypeSizeCombo() (ComboRevenue, error) {
	if len(s.lines) == 0 {
		return ComboRevenue{}, ErrEmptyInput
	}
	type combo struct{ name, size string }
	revenues := make(map[combo]decimal.Decimal)
	for _, l := range s.lines {
		key := combo{name: l.Type.Name, size: l.Pizza.Size}
		revenues[key] = revenues[key].Add(l.revenue())
	}
	var best ComboRevenue
	found := false
	for key, rev := range revenues {
		better := !found || rev.GreaterThan(best.Revenue) ||
			(rev.Equal(best.Revenue) && (key.name < best.Name || (key.name == best.Name && key.size < best.Size)))
		if better {
			best = ComboRevenue{Name: key.name, Size: key.size, Revenue: rev}
			found = true
		}
	}
	best.Revenue = best.Revenue.Round(2)
	return best, nil
}

// PriceTierPerformance splits pizzas into a High tier (unit price at or
// above the mean price across the catalog) and a Low tier, and sums sold
// quantity and revenue per tier. Revenue is rounded to two decimals; rows
// come back ordered High, Low.
func (s *Snapshot) PriceTierPerformance() []TierPerformance {
	if len(s.pizzas) == 0 {
		return nil
	}

	sum := decimal.Zero
	for _, p := range s.pizzas {
		sum = sum.Add(p.Price)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(s.pizzas))))

	quantities := make(map[string]int)
	revenues := make(map[string]decimal.Decimal)
	for _, l := range s.lines {
		tier := TierLow
		if l.Pizza.Price.GreaterThanOrEqual(mean) {
			tier = TierHigh
		}
		quantities[tier] += l.Line.Quantity
		revenues[tier] = revenues[tier].Add(l.revenue())
	}

	result := make([]TierPerformance, 0, 2)
	for _, tier := range []string{TierHigh, TierLow} {
		result = append(result, TierPerformance{
			Tier:     tier,
			Quantity: quantities[tier],
			Revenue:  revenues[tier].Round(2),
		})
	}
	return result
}

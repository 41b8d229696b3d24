package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/pizza-sales-analytics/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Accepted wire formats for order dates and times
const (
	dateFormat      = "2006-01-02"
	timeFormat      = "15:04:05"
	timeFormatShort = "15:04"
)

// Sources holds the paths of the four input datasets
type Sources struct {
	Orders     string
	OrderLines string
	Pizzas     string
	PizzaTypes string
}

// RawData holds the loaded entity collections before referential integrity
// is enforced. Rows that failed validation are already excluded.
type RawData struct {
	Orders     []models.Order
	OrderLines []models.OrderLine
	Pizzas     []models.Pizza
	PizzaTypes []models.PizzaType
}

// ViolationReport collects every data-quality violation found during a load
// session. The load always finishes; callers inspect the report afterwards.
type ViolationReport struct {
	SessionID  string             `json:"session_id"`
	Violations []models.Violation `json:"violations"`
}

// Count returns the number of collected violations
func (r *ViolationReport) Count() int {
	return len(r.Violations)
}

// ByCode returns violation counts keyed by violation code
func (r *ViolationReport) ByCode() map[string]int {
	counts := make(map[string]int)
	for _, v := range r.Violations {
		counts[v.Code]++
	}
	return counts
}

func (r *ViolationReport) add(v models.Violation) {
	r.Violations = append(r.Violations, v)
}

// Load reads the four CSV datasets, validates every row, and normalizes
// pizza sizes to their uppercase form. Row-level problems are collected in
// the returned ViolationReport and the offending rows are skipped; only an
// unreadable file or a header missing required columns is a hard error.
func Load(src Sources) (*RawData, *ViolationReport, error) {
	report := &ViolationReport{SessionID: uuid.NewString()}
	sessionLog := log.WithField("session_id", report.SessionID)
	sessionLog.Info("Starting dataset load")

	data := &RawData{}
	var err error

	if data.Orders, err = loadOrders(src.Orders, report); err != nil {
		return nil, nil, err
	}
	if data.OrderLines, err = loadOrderLines(src.OrderLines, report); err != nil {
		return nil, nil, err
	}
	if data.Pizzas, err = loadPizzas(src.Pizzas, report); err != nil {
		return nil, nil, err
	}
	if data.PizzaTypes, err = loadPizzaTypes(src.PizzaTypes, report); err != nil {
		return nil, nil, err
	}

	sessionLog.WithFields(logrus.Fields{
		"orders":      len(data.Orders),
		"order_lines": len(data.OrderLines),
		"pizzas":      len(data.Pizzas),
		"pizza_types": len(data.PizzaTypes),
		"violations":  report.Count(),
	}).Info("Dataset load finished")
	return data, report, nil
}

// rowReader walks a CSV file row by row, tracking the 1-based line number
// and resolving header column names to indices. headerLen keeps the raw
// header width; columns may be smaller when header names repeat.
type rowReader struct {
	file      string
	reader    *csv.Reader
	columns   map[string]int
	headerLen int
	line      int
}

func openCSV(path string, required []string) (*rowReader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}

	r := csv.NewReader(f)
	// Column counts are validated per row so mismatches become violations
	// instead of aborting the read.
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			f.Close()
			return nil, nil, fmt.Errorf("%s: missing required column %q", path, name)
		}
	}

	return &rowReader{file: path, reader: r, columns: columns, headerLen: len(header), line: 1}, f, nil
}

// next returns the next row, or nil at EOF
func (rr *rowReader) next() ([]string, error) {
	row, err := rr.reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rr.line++
	return row, nil
}

// field returns the named column of row, trimmed
func (rr *rowReader) field(row []string, name string) string {
	idx := rr.columns[name]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// wellFormed checks the row has as many columns as the header declared,
// recording a violation when it does not
func (rr *rowReader) wellFormed(row []string, report *ViolationReport) bool {
	if len(row) != rr.headerLen {
		report.add(models.NewViolation(rr.file, rr.line, "", models.CodeBadColumnCount, "",
			fmt.Sprintf("expected %d columns, got %d", rr.headerLen, len(row))))
		return false
	}
	return true
}

func loadOrders(path string, report *ViolationReport) ([]models.Order, error) {
	rr, f, err := openCSV(path, []string{"order_id", "date", "time"})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var orders []models.Order
	seen := make(map[int]bool)
	for {
		row, err := rr.next()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if row == nil {
			break
		}
		if !rr.wellFormed(row, report) {
			continue
		}

		id, ok := requireInt(rr, row, "order_id", report)
		if !ok {
			continue
		}
		if seen[id] {
			report.add(models.NewViolation(rr.file, rr.line, "order_id", models.CodeDuplicateKey,
				strconv.Itoa(id), "duplicate order id"))
			continue
		}

		rawDate := rr.field(row, "date")
		if rawDate == "" {
			report.add(missing(rr, "date"))
			continue
		}
		date, err := time.Parse(dateFormat, rawDate)
		if err != nil {
			report.add(models.NewViolation(rr.file, rr.line, "date", models.CodeInvalidDate,
				rawDate, "expected YYYY-MM-DD"))
			continue
		}

		rawTime := rr.field(row, "time")
		if rawTime == "" {
			report.add(missing(rr, "time"))
			continue
		}
		clock, err := parseClock(rawTime)
		if err != nil {
			report.add(models.NewViolation(rr.file, rr.line, "time", models.CodeInvalidTime,
				rawTime, "expected HH:MM:SS"))
			continue
		}

		seen[id] = true
		orders = append(orders, models.Order{ID: id, Date: date, Time: clock})
	}
	return orders, nil
}

func loadOrderLines(path string, report *ViolationReport) ([]models.OrderLine, error) {
	rr, f, err := openCSV(path, []string{"order_details_id", "order_id", "pizza_id", "quantity"})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []models.OrderLine
	seen := make(map[int]bool)
	for {
		row, err := rr.next()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if row == nil {
			break
		}
		if !rr.wellFormed(row, report) {
			continue
		}

		id, ok := requireInt(rr, row, "order_details_id", report)
		if !ok {
			continue
		}
		if seen[id] {
			report.add(models.NewViolation(rr.file, rr.line, "order_details_id", models.CodeDuplicateKey,
				strconv.Itoa(id), "duplicate order line id"))
			continue
		}

		orderID, ok := requireInt(rr, row, "order_id", report)
		if !ok {
			continue
		}
		pizzaID := rr.field(row, "pizza_id")
		if pizzaID == "" {
			report.add(missing(rr, "pizza_id"))
			continue
		}
		quantity, ok := requireInt(rr, row, "quantity", report)
		if !ok {
			continue
		}
		if quantity <= 0 {
			report.add(models.NewViolation(rr.file, rr.line, "quantity", models.CodeNonPositiveQuantity,
				strconv.Itoa(quantity), "quantity must be positive"))
			continue
		}

		seen[id] = true
		lines = append(lines, models.OrderLine{ID: id, OrderID: orderID, PizzaID: pizzaID, Quantity: quantity})
	}
	return lines, nil
}

func loadPizzas(path string, report *ViolationReport) ([]models.Pizza, error) {
	rr, f, err := openCSV(path, []string{"pizza_id", "pizza_type_id", "size", "price"})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pizzas []models.Pizza
	seen := make(map[string]bool)
	for {
		row, err := rr.next()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if row == nil {
			break
		}
		if !rr.wellFormed(row, report) {
			continue
		}

		id := rr.field(row, "pizza_id")
		if id == "" {
			report.add(missing(rr, "pizza_id"))
			continue
		}
		if seen[id] {
			report.add(models.NewViolation(rr.file, rr.line, "pizza_id", models.CodeDuplicateKey,
				id, "duplicate pizza id"))
			continue
		}

		typeID := rr.field(row, "pizza_type_id")
		if typeID == "" {
			report.add(missing(rr, "pizza_type_id"))
			continue
		}

		rawSize := rr.field(row, "size")
		if rawSize == "" {
			report.add(missing(rr, "size"))
			continue
		}
		size, ok := models.NormalizeSize(rawSize)
		if !ok {
			report.add(models.NewViolation(rr.file, rr.line, "size", models.CodeInvalidSize,
				rawSize, "size must be one of "+strings.Join(models.Sizes, ", ")))
			continue
		}

		rawPrice := rr.field(row, "price")
		if rawPrice == "" {
			report.add(missing(rr, "price"))
			continue
		}
		price, err := decimal.NewFromString(rawPrice)
		if err != nil {
			report.add(models.NewViolation(rr.file, rr.line, "price", models.CodeInvalidNumber,
				rawPrice, "price must be a decimal number"))
			continue
		}
		if price.IsNegative() {
			report.add(models.NewViolation(rr.file, rr.line, "price", models.CodeNegativePrice,
				rawPrice, "price must not be negative"))
			continue
		}

		seen[id] = true
		pizzas = append(pizzas, models.Pizza{ID: id, PizzaTypeID: typeID, Size: size, Price: price})
	}
	return pizzas, nil
}

func loadPizzaTypes(path string, report *ViolationReport) ([]models.PizzaType, error) {
	rr, f, err := openCSV(path, []string{"pizza_type_id", "name", "category", "ingredients"})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var types []models.PizzaType
	seen := make(map[string]bool)
	for {
		row, err := rr.next()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if row == nil {
			break
		}
		if !rr.wellFormed(row, report) {
			continue
		}

		id := rr.field(row, "pizza_type_id")
		if id == "" {
			report.add(missing(rr, "pizza_type_id"))
			continue
		}
		if seen[id] {
			report.add(models.NewViolation(rr.file, rr.line, "pizza_type_id", models.CodeDuplicateKey,
				id, "duplicate pizza type id"))
			continue
		}

		name := rr.field(row, "name")
		if name == "" {
			report.add(missing(rr, "name"))
			continue
		}
		category := rr.field(row, "category")
		if category == "" {
			report.add(missing(rr, "category"))
			continue
		}

		// Ingredients are free text; an empty list is not a violation
		var ingredients []string
		for _, ing := range strings.Split(rr.field(row, "ingredients"), ",") {
			if ing = strings.TrimSpace(ing); ing != "" {
				ingredients = append(ingredients, ing)
			}
		}

		seen[id] = true
		types = append(types, models.PizzaType{ID: id, Name: name, Category: category, Ingredients: ingredients})
	}
	return types, nil
}

// requireInt parses the named column as an integer, recording a violation
// when it is missing or unparseable
func requireInt(rr *rowReader, row []string, name string, report *ViolationReport) (int, bool) {
	raw := rr.field(row, name)
	if raw == "" {
		report.add(missing(rr, name))
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		report.add(models.NewViolation(rr.file, rr.line, name, models.CodeInvalidNumber,
			raw, "expected an integer"))
		return 0, false
	}
	return value, true
}

func missing(rr *rowReader, field string) models.Violation {
	return models.NewViolation(rr.file, rr.line, field, models.CodeMissingField, "", "required field is empty")
}

func parseClock(raw string) (time.Time, error) {
	if t, err := time.Parse(timeFormat, raw); err == nil {
		return t, nil
	}
	return time.Parse(timeFormatShort, raw)
}

package analytics

import (
	"strconv"

	"github.com/franciscosanchezn/pizza-sales-analytics/internal/loader"
	"github.com/franciscosanchezn/pizza-sales-analytics/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// integritySampleLimit caps how many offending rows the integrity report
// keeps verbatim; the full count is always tracked.
const integritySampleLimit = 10

// saleLine is an order line joined to its order, pizza and pizza type.
// Only lines whose references all resolve become sale lines.
type saleLine struct {
	Line  models.OrderLine
	Order models.Order
	Pizza models.Pizza
	Type  models.PizzaType
}

// Snapshot is an immutable view of one loaded dataset. All reports are pure
// functions over a snapshot; building a new snapshot is the only way to
// change what they see.
type Snapshot struct {
	ID string

	orders []models.Order
	lines  []saleLine
	pizzas []models.Pizza
	types  []models.PizzaType
}

// IntegrityReport describes the order lines and pizzas excluded from a
// snapshot because a reference did not resolve
type IntegrityReport struct {
	ExcludedLines  int                `json:"excluded_lines"`
	ExcludedPizzas int                `json:"excluded_pizzas"`
	ByCode         map[string]int     `json:"by_code"`
	Sample         []models.Violation `json:"sample"`
}

// Clean reports whether every reference resolved
func (r *IntegrityReport) Clean() bool {
	return r.ExcludedLines == 0 && r.ExcludedPizzas == 0
}

func (r *IntegrityReport) add(v models.Violation) {
	r.ByCode[v.Code]++
	if len(r.Sample) < integritySampleLimit {
		r.Sample = append(r.Sample, v)
	}
}

// BuildSnapshot joins the loaded collections into an immutable snapshot.
// Pizzas referencing a missing pizza type, and order lines referencing a
// missing order or pizza, are excluded and reported; they never reach any
// aggregation.
func BuildSnapshot(raw *loader.RawData) (*Snapshot, *IntegrityReport) {
	report := &IntegrityReport{ByCode: make(map[string]int)}

	typeByID := make(map[string]models.PizzaType, len(raw.PizzaTypes))
	for _, pt := range raw.PizzaTypes {
		typeByID[pt.ID] = pt
	}

	pizzas := make([]models.Pizza, 0, len(raw.Pizzas))
	pizzaByID := make(map[string]models.Pizza, len(raw.Pizzas))
	for _, p := range raw.Pizzas {
		if _, ok := typeByID[p.PizzaTypeID]; !ok {
			report.ExcludedPizzas++
			report.add(models.NewViolation("", 0, "pizza_type_id", models.CodeUnknownPizzaType,
				p.PizzaTypeID, "pizza "+p.ID+" references a pizza type that does not exist"))
			continue
		}
		pizzas = append(pizzas, p)
		pizzaByID[p.ID] = p
	}

	orderByID := make(map[int]models.Order, len(raw.Orders))
	for _, o := range raw.Orders {
		orderByID[o.ID] = o
	}

	lines := make([]saleLine, 0, len(raw.OrderLines))
	for _, l := range raw.OrderLines {
		order, ok := orderByID[l.OrderID]
		if !ok {
			report.ExcludedLines++
			report.add(models.NewViolation("", l.ID, "order_id", models.CodeUnknownOrder,
				strconv.Itoa(l.OrderID), "order line "+strconv.Itoa(l.ID)+" references an order that does not exist"))
			continue
		}
		pizza, ok := pizzaByID[l.PizzaID]
		if !ok {
			report.ExcludedLines++
			report.add(models.NewViolation("", l.ID, "pizza_id", models.CodeUnknownPizza,
				l.PizzaID, "order line "+strconv.Itoa(l.ID)+" references a pizza that does not exist"))
			continue
		}
		lines = append(lines, saleLine{
			Line:  l,
			Order: order,
			Pizza: pizza,
			Type:  typeByID[pizza.PizzaTypeID],
		})
	}

	snap := &Snapshot{
		ID:     uuid.NewString(),
		orders: raw.Orders,
		lines:  lines,
		pizzas: pizzas,
		types:  raw.PizzaTypes,
	}

	log.WithFields(logrus.Fields{
		"snapshot_id":     snap.ID,
		"orders":          len(snap.orders),
		"sale_lines":      len(snap.lines),
		"pizzas":          len(snap.pizzas),
		"excluded_lines":  report.ExcludedLines,
		"excluded_pizzas": report.ExcludedPizzas,
	}).Info("Snapshot built")
	return snap, report
}

// Dataset returns copies of the snapshot's integrity-filtered collections,
// suitable for handing to a store that enforces the foreign keys the
// snapshot already guarantees. Mutating the result never touches the
// snapshot.
func (s *Snapshot) Dataset() *loader.RawData {
	lines := make([]models.OrderLine, len(s.lines))
	for i, l := range s.lines {
		lines[i] = l.Line
	}
	return &loader.RawData{
		Orders:     append([]models.Order(nil), s.orders...),
		OrderLines: lines,
		Pizzas:     append([]models.Pizza(nil), s.pizzas...),
		PizzaTypes: append([]models.PizzaType(nil), s.types...),
	}
}

// Orders returns the number of loaded orders
func (s *Snapshot) Orders() int { return len(s.orders) }

// SaleLines returns the number of order lines that passed referential
// integrity checks
func (s *Snapshot) SaleLines() int { return len(s.lines) }

package database

import (
	"fmt"

	"github.com/franciscosanchezn/pizza-sales-analytics/internal/analytics"
	"github.com/franciscosanchezn/pizza-sales-analytics/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const importBatchSize = 500

// Store persists a loaded dataset into a relational engine and evaluates
// the headline reports as SQL, for cross-checking the in-memory results.
// Imports go through a snapshot, so only integrity-filtered rows ever
// reach the declared foreign keys; the report queries additionally join
// through orders and pizzas.
type Store interface {
	// Migrate creates the four tables with their primary and foreign keys
	Migrate() error
	// ImportSnapshot replaces the store contents with the snapshot's
	// integrity-filtered collections inside a single transaction
	ImportSnapshot(snap *analytics.Snapshot) error
	// TotalRevenue evaluates the revenue total in SQL
	TotalRevenue() (decimal.Decimal, error)
	// TotalOrders counts the distinct orders in SQL
	TotalOrders() (int64, error)
	// RevenueByCategory evaluates per-category revenue and share in SQL
	RevenueByCategory() ([]analytics.CategoryRevenue, error)
	// TopBestSellers evaluates the best sellers ranking in SQL
	TopBestSellers(n int) ([]analytics.TypeCount, error)
}

// analyticsStore is the gorm implementation of the Store interface
type analyticsStore struct {
	db *gorm.DB
}

// NewStore creates a new Store backed by the given gorm connection
func NewStore(db *gorm.DB) Store {
	return &analyticsStore{db: db}
}

func (s *analyticsStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.PizzaType{},
		&models.Pizza{},
		&models.Order{},
		&models.OrderLine{},
	)
}

func (s *analyticsStore) ImportSnapshot(snap *analytics.Snapshot) error {
	raw := snap.Dataset()
	return s.db.Transaction(func(tx *gorm.DB) error {
		// Clear children before parents so foreign keys stay satisfied
		for _, table := range []string{"order_lines", "pizzas", "orders", "pizza_types"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		if len(raw.PizzaTypes) > 0 {
			if err := tx.CreateInBatches(raw.PizzaTypes, importBatchSize).Error; err != nil {
				return fmt.Errorf("importing pizza types: %w", err)
			}
		}
		if len(raw.Pizzas) > 0 {
			if err := tx.CreateInBatches(raw.Pizzas, importBatchSize).Error; err != nil {
				return fmt.Errorf("importing pizzas: %w", err)
			}
		}
		if len(raw.Orders) > 0 {
			if err := tx.CreateInBatches(raw.Orders, importBatchSize).Error; err != nil {
				return fmt.Errorf("importing orders: %w", err)
			}
		}
		if len(raw.OrderLines) > 0 {
			if err := tx.CreateInBatches(raw.OrderLines, importBatchSize).Error; err != nil {
				return fmt.Errorf("importing order lines: %w", err)
			}
		}
		return nil
	})
}

func (s *analyticsStore) TotalRevenue() (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := s.db.Raw(`
		SELECT SUM(ol.quantity * p.price)
		FROM order_lines ol
		JOIN orders o ON o.order_id = ol.order_id
		JOIN pizzas p ON p.pizza_id = ol.pizza_id
	`).Row().Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("evaluating total revenue: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

func (s *analyticsStore) TotalOrders() (int64, error) {
	var count int64
	if err := s.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return count, nil
}

func (s *analyticsStore) RevenueByCategory() ([]analytics.CategoryRevenue, error) {
	var rows []analytics.CategoryRevenue
	err := s.db.Raw(`
		SELECT pt.category AS category, SUM(ol.quantity * p.price) AS revenue
		FROM order_lines ol
		JOIN orders o ON o.order_id = ol.order_id
		JOIN pizzas p ON p.pizza_id = ol.pizza_id
		JOIN pizza_types pt ON pt.pizza_type_id = p.pizza_type_id
		GROUP BY pt.category
		ORDER BY revenue DESC, pt.category ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("evaluating revenue by category: %w", err)
	}

	// Percent-of-total derives from one precomputed grand total
	grand := decimal.Zero
	for _, row := range rows {
		grand = grand.Add(row.Revenue)
	}
	hundred := decimal.NewFromInt(100)
	for i := range rows {
		if !grand.IsZero() {
			rows[i].Percent = rows[i].Revenue.Mul(hundred).Div(grand).Round(2)
		}
		rows[i].Revenue = rows[i].Revenue.Round(2)
	}
	return rows, nil
}

func (s *analyticsStore) TopBestSellers(n int) ([]analytics.TypeCount, error) {
	var rows []analytics.TypeCount
	err := s.db.Raw(`
		SELECT pt.name AS name, COUNT(*) AS lines
		FROM order_lines ol
		JOIN orders o ON o.order_id = ol.order_id
		JOIN pizzas p ON p.pizza_id = ol.pizza_id
		JOIN pizza_types pt ON pt.pizza_type_id = p.pizza_type_id
		GROUP BY pt.name
		ORDER BY lines DESC, pt.name ASC
		LIMIT ?
	`, n).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("evaluating best sellers: %w", err)
	}
	return rows, nil
}

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/pizza-sales-analytics/internal/analytics"
	"github.com/franciscosanchezn/pizza-sales-analytics/internal/config"
	"github.com/franciscosanchezn/pizza-sales-analytics/internal/database"
	"github.com/franciscosanchezn/pizza-sales-analytics/internal/loader"
	"github.com/franciscosanchezn/pizza-sales-analytics/internal/render"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var (
	configuration *config.Config

	fExport = flag.String(
		"export",
		"",
		"directory to re-export every report as CSV, default no export",
	)
	fPersist = flag.Bool(
		"persist",
		false,
		"import the loaded dataset into the configured database and cross-check the SQL reports",
	)
)

func main() {
	flag.Parse()

	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Load and validate the four datasets
	data, violations, err := loader.Load(loader.Sources{
		Orders:     configuration.OrdersPath(),
		OrderLines: configuration.OrderLinesPath(),
		Pizzas:     configuration.PizzasPath(),
		PizzaTypes: configuration.PizzaTypesPath(),
	})
	if err != nil {
		log.WithError(err).Fatal("Dataset load failed")
	}
	logViolations(violations)

	// Build the immutable snapshot every report runs against
	snapshot, integrity := analytics.BuildSnapshot(data)
	logIntegrity(integrity)

	// Run every report and render the results
	tables := buildReports(snapshot)
	for _, table := range tables {
		if err := table.Write(os.Stdout); err != nil {
			log.WithError(err).Fatal("Rendering report failed")
		}
	}

	if *fExport != "" {
		exportReports(tables, *fExport)
	}

	if *fPersist {
		persistSnapshot(snapshot)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or exits if there is an error
func loadConfig() *config.Config {
	log.Info("Loading configuration from environment variables")
	conf, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Loading configuration failed")
	}
	return conf
}

// logViolations summarizes the data-quality findings of the load session
func logViolations(report *loader.ViolationReport) {
	if report.Count() == 0 {
		log.Info("No data-quality violations found")
		return
	}
	log.WithFields(log.Fields{
		"session_id": report.SessionID,
		"violations": report.Count(),
		"by_code":    report.ByCode(),
	}).Warn("Data-quality violations found; offending rows were skipped")
	for _, v := range report.Violations {
		log.WithField("session_id", report.SessionID).Debug(v.Error())
	}
}

// logIntegrity summarizes the rows excluded for unresolved references
func logIntegrity(report *analytics.IntegrityReport) {
	if report.Clean() {
		return
	}
	log.WithFields(log.Fields{
		"excluded_lines":  report.ExcludedLines,
		"excluded_pizzas": report.ExcludedPizzas,
		"by_code":         report.ByCode,
	}).Warn("Referential integrity violations found; offending rows were excluded")
	for _, v := range report.Sample {
		log.Debug(v.Error())
	}
}

// buildReports runs every report against the snapshot and converts each
// result into its render-ready table
func buildReports(snap *analytics.Snapshot) []render.Table {
	tables := []render.Table{
		render.Money("Total revenue", "revenue", snap.TotalRevenue()),
		render.Scalar("Total orders", "orders", strconv.Itoa(snap.TotalOrders())),
	}

	if size, err := snap.MostPopularSize(); err == nil {
		tables = append(tables, render.SizeCount("Most popular size", size))
	} else {
		tables = append(tables, render.NoValue("Most popular size"))
	}

	tables = append(tables,
		render.TypeCounts(fmt.Sprintf("Top %d best sellers", configuration.TopSellers),
			snap.TopBestSellers(configuration.TopSellers)),
		render.Categories("Distinct categories", snap.DistinctCategories()),
	)

	if avg, err := snap.AverageOrderValue(); err == nil {
		tables = append(tables, render.Money("Average order value", "revenue", avg))
	} else {
		tables = append(tables, render.NoValue("Average order value"))
	}

	tables = append(tables,
		render.CategoryRevenues("Revenue by category", snap.RevenueByCategory()),
		render.HourCounts("Hourly order distribution", snap.HourlyDistribution()),
		render.TypeCounts(fmt.Sprintf("Least selling pizzas (bottom %d)", configuration.LeastSellers),
			snap.LeastSellingPizzas(configuration.LeastSellers)),
	)

	if avg, err := snap.AverageRevenuePerOrder(); err == nil {
		tables = append(tables, render.Money("Average revenue per order", "revenue", avg))
	} else {
		tables = append(tables, render.NoValue("Average revenue per order"))
	}

	tables = append(tables,
		render.MonthRevenues("Monthly revenue trend", snap.MonthlyRevenueTrend()))

	if day, err := snap.TopRevenueDayOfWeek(); err == nil {
		tables = append(tables, render.DayRevenue("Top revenue day of week", day))
	} else {
		tables = append(tables, render.NoValue("Top revenue day of week"))
	}

	if combo, err := snap.TopRevenueTypeSizeCombo(); err == nil {
		tables = append(tables, render.ComboRevenue("Top revenue type/size combination", combo))
	} else {
		tables = append(tables, render.NoValue("Top revenue type/size combination"))
	}

	tables = append(tables,
		render.Tiers("Price tier performance", snap.PriceTierPerformance()))

	return tables
}

// exportReports writes each report to dir as a CSV file named after its title
func exportReports(tables []render.Table, dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.WithError(err).Fatal("Creating export directory failed")
	}
	for _, table := range tables {
		name := strings.ToLower(strings.ReplaceAll(table.Title, " ", "_"))
		name = strings.Map(func(r rune) rune {
			switch r {
			case '/', '(', ')':
				return -1
			}
			return r
		}, name) + ".csv"

		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			log.WithError(err).Fatal("Creating export file failed")
		}
		if err := table.WriteCSV(f); err != nil {
			f.Close()
			log.WithError(err).Fatalf("Exporting %s failed", table.Title)
		}
		f.Close()
	}
	log.WithFields(log.Fields{"dir": dir, "reports": len(tables)}).Info("Reports exported")
}

// persistSnapshot imports the integrity-filtered snapshot into the
// configured store and logs the SQL-evaluated headline figures next to the
// in-memory ones
func persistSnapshot(snap *analytics.Snapshot) {
	dbConf := database.FromAppConfig(configuration)
	db, err := database.InitDatabase(dbConf)
	if err != nil {
		log.WithError(err).Fatal("Connecting to the database failed")
	}

	store := database.NewStore(db)
	if err := store.Migrate(); err != nil {
		log.WithError(err).Fatal("Migrating the schema failed")
	}
	if err := store.ImportSnapshot(snap); err != nil {
		log.WithError(err).Fatal("Importing the dataset failed")
	}

	sqlRevenue, err := store.TotalRevenue()
	if err != nil {
		log.WithError(err).Fatal("Evaluating SQL total revenue failed")
	}
	sqlOrders, err := store.TotalOrders()
	if err != nil {
		log.WithError(err).Fatal("Evaluating SQL total orders failed")
	}

	log.WithFields(log.Fields{
		"sql_revenue":    sqlRevenue.StringFixed(2),
		"memory_revenue": snap.TotalRevenue().StringFixed(2),
		"sql_orders":     sqlOrders,
		"memory_orders":  snap.TotalOrders(),
	}).Info("Dataset persisted; SQL cross-check evaluated")
}

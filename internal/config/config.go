package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the application configuration, loading the input from
// environment variables with an optional YAML file providing the defaults
type Config struct {
	// Input dataset configuration
	DataDir        string `json:"data_dir"`
	OrdersFile     string `json:"orders_file"`
	OrderLinesFile string `json:"order_lines_file"`
	PizzasFile     string `json:"pizzas_file"`
	PizzaTypesFile string `json:"pizza_types_file"`

	// Report configuration
	TopSellers   int `json:"top_sellers"`
	LeastSellers int `json:"least_sellers"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Database configuration (optional persistence backend)
	DBDriver   string `json:"db_driver"`
	DBPath     string `json:"db_path"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBName     string `json:"db_name"`
	DBSSLMode  string `json:"db_ssl_mode"`
}

// fileConfig mirrors the optional YAML configuration file. Values from the
// file act as defaults; environment variables still win.
type fileConfig struct {
	Data struct {
		Dir        string `yaml:"dir"`
		Orders     string `yaml:"orders"`
		OrderLines string `yaml:"order_lines"`
		Pizzas     string `yaml:"pizzas"`
		PizzaTypes string `yaml:"pizza_types"`
	} `yaml:"data"`
	Reports struct {
		TopSellers   int `yaml:"top_sellers"`
		LeastSellers int `yaml:"least_sellers"`
	} `yaml:"reports"`
	Database struct {
		Driver   string `yaml:"driver"`
		Path     string `yaml:"path"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"ssl_mode"`
	} `yaml:"database"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{DataDir: %s, OrdersFile: %s, OrderLinesFile: %s, PizzasFile: %s, PizzaTypesFile: %s, TopSellers: %d, LeastSellers: %d, LogLevel: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED]}",
		c.DataDir, c.OrdersFile, c.OrderLinesFile, c.PizzasFile, c.PizzaTypesFile,
		c.TopSellers, c.LeastSellers, c.LogLevel, c.DBDriver, c.DBHost, c.DBName, c.DBUser)
}

// OrdersPath returns the full path of the orders dataset
func (c *Config) OrdersPath() string { return filepath.Join(c.DataDir, c.OrdersFile) }

// OrderLinesPath returns the full path of the order lines dataset
func (c *Config) OrderLinesPath() string { return filepath.Join(c.DataDir, c.OrderLinesFile) }

// PizzasPath returns the full path of the pizzas dataset
func (c *Config) PizzasPath() string { return filepath.Join(c.DataDir, c.PizzasFile) }

// PizzaTypesPath returns the full path of the pizza types dataset
func (c *Config) PizzaTypesPath() string { return filepath.Join(c.DataDir, c.PizzaTypesFile) }

// LoadConfig reads the proper configuration from environment variables and
// returns a Config struct. When CONFIG_FILE points at a YAML file (or a
// config.yaml exists in the working directory), that file supplies the
// defaults and environment variables override it.
// Returns an error if any value is present but invalid.
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")

	file := fileConfig{}
	path := GetEnvWithDefault("CONFIG_FILE", "")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		loaded, err := loadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		file = *loaded
		log.WithField("config_file", path).Info("Loaded configuration file")
	}

	topSellers := GetEnvAsType("REPORT_TOP_SELLERS", orDefaultInt(file.Reports.TopSellers, 5))
	if topSellers <= 0 {
		return nil, fmt.Errorf("REPORT_TOP_SELLERS must be positive, got %d", topSellers)
	}
	leastSellers := GetEnvAsType("REPORT_LEAST_SELLERS", orDefaultInt(file.Reports.LeastSellers, 10))
	if leastSellers <= 0 {
		return nil, fmt.Errorf("REPORT_LEAST_SELLERS must be positive, got %d", leastSellers)
	}

	config := &Config{
		DataDir:        GetEnvWithDefault("DATA_DIR", orDefault(file.Data.Dir, "data")),
		OrdersFile:     GetEnvWithDefault("ORDERS_FILE", orDefault(file.Data.Orders, "orders.csv")),
		OrderLinesFile: GetEnvWithDefault("ORDER_LINES_FILE", orDefault(file.Data.OrderLines, "order_details.csv")),
		PizzasFile:     GetEnvWithDefault("PIZZAS_FILE", orDefault(file.Data.Pizzas, "pizzas.csv")),
		PizzaTypesFile: GetEnvWithDefault("PIZZA_TYPES_FILE", orDefault(file.Data.PizzaTypes, "pizza_types.csv")),
		TopSellers:     topSellers,
		LeastSellers:   leastSellers,
		LogLevel:       GetEnvWithDefault("LOG_LEVEL", "info"),
		DBDriver:       GetEnvWithDefault("DB_DRIVER", orDefault(file.Database.Driver, "sqlite")),
		DBPath:         GetEnvWithDefault("DB_PATH", orDefault(file.Database.Path, "pizza_sales.sqlite")),
		DBHost:         GetEnvWithDefault("DB_HOST", orDefault(file.Database.Host, "localhost")),
		DBPort:         GetEnvWithDefault("DB_PORT", orDefault(file.Database.Port, "5432")),
		DBUser:         GetEnvWithDefault("DB_USER", orDefault(file.Database.User, "user")),
		DBPassword:     GetEnvWithDefault("DB_PASSWORD", orDefault(file.Database.Password, "password")),
		DBName:         GetEnvWithDefault("DB_NAME", orDefault(file.Database.Name, "pizza_sales")),
		DBSSLMode:      GetEnvWithDefault("DB_SSL_MODE", orDefault(file.Database.SSLMode, "disable")),
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// loadConfigFile parses the YAML configuration file at path
func loadConfigFile(path string) (*fileConfig, error) {
	config := &fileConfig{}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func orDefaultInt(value, defaultValue int) int {
	if value == 0 {
		return defaultValue
	}
	return value
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Warnf("Environment variable %s not set, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}

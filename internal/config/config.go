package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const (
	DefaultSecretKey     = "clave_predeterminada"
	DefaultAdminEmail    = "admin@dulcehogar.com"
	DefaultAdminPassword = "admin123"
)

type DatabaseConfig struct {
	Driver     string
	SQLitePath string
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
}

type AdminConfig struct {
	Bootstrap bool
	Name      string
	Email     string
	Password  string
}

type ESConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string
	LogFormat   string

	Database DatabaseConfig

	SecretKey     []byte
	SessionTTL    time.Duration
	SecureCookies bool

	CategoryDeletePolicy string

	Admin AdminConfig

	KafkaBrokers []string
	ES           ESConfig

	LoginRate  float64
	LoginBurst int
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	ttl, err := EnvDurationDefault("SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}

	cfg := &Config{
		ServiceName: EnvDefault("dulcehogar", "SERVICE_NAME"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("info", "LOG_LEVEL"),
		LogFormat:   EnvDefault("json", "LOG_FORMAT"),

		Database: DatabaseConfig{
			Driver:     strings.ToLower(EnvDefault(DriverSQLite, "DB_DRIVER")),
			SQLitePath: EnvDefault("dulcehogar.db", "SQLITE_PATH"),
			URL:        EnvDefault("", "DATABASE_URL"),
			Host:       EnvDefault("localhost", "DB_HOST", "MYSQL_HOST"),
			Port:       EnvDefault("", "DB_PORT", "MYSQL_PORT"),
			User:       EnvDefault("root", "DB_USER", "MYSQL_USER"),
			Password:   EnvDefault("", "DB_PASSWORD", "MYSQL_PASSWORD"),
			Name:       EnvDefault("dulcehogar", "DB_NAME", "MYSQL_DB"),
		},

		SecretKey:     []byte(EnvDefault(DefaultSecretKey, "SECRET_KEY")),
		SessionTTL:    ttl,
		SecureCookies: EnvBoolDefault("SECURE_COOKIES", false),

		CategoryDeletePolicy: EnvDefault("set-null", "CATEGORY_DELETE_POLICY"),

		Admin: AdminConfig{
			Bootstrap: EnvBoolDefault("ADMIN_BOOTSTRAP", true),
			Name:      EnvDefault("Administrador", "ADMIN_NAME"),
			Email:     EnvDefault(DefaultAdminEmail, "ADMIN_EMAIL"),
			Password:  EnvDefault(DefaultAdminPassword, "ADMIN_PASSWORD"),
		},

		KafkaBrokers: CSV(EnvDefault("", "KAFKA_BROKERS")),
		ES: ESConfig{
			URL:      EnvDefault("", "ES_URL"),
			User:     EnvDefault("", "ES_USER"),
			Password: EnvDefault("", "ES_PASSWORD"),
			Index:    EnvDefault("products", "ES_INDEX"),
		},

		LoginRate:  EnvFloatDefault("LOGIN_RATE", 1),
		LoginBurst: EnvIntDefault("LOGIN_BURST", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if len(c.SecretKey) == 0 {
		return errors.New("missing required env SECRET_KEY")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.ServerPort)
	}
	if c.Admin.Bootstrap && (c.Admin.Email == "" || c.Admin.Password == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required when ADMIN_BOOTSTRAP is enabled")
	}
	return nil
}

func (c *Config) UsesDefaultSecret() bool {
	return string(c.SecretKey) == DefaultSecretKey
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// DSN builds the driver specific connection string.
func (d DatabaseConfig) DSN() (string, error) {
	switch d.Driver {
	case DriverSQLite:
		if d.SQLitePath == "" {
			return "", errors.New("SQLITE_PATH is empty")
		}
		return d.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil

	case DriverPostgres:
		raw := d.URL
		if raw == "" {
			u := url.URL{
				Scheme:   "postgres",
				User:     url.UserPassword(d.User, d.Password),
				Host:     net.JoinHostPort(d.Host, d.portOr("5432")),
				Path:     "/" + d.Name,
				RawQuery: "sslmode=disable",
			}
			raw = u.String()
		}
		dsn, err := pq.ParseURL(raw)
		if err != nil {
			return "", fmt.Errorf("DATABASE_URL: %w", err)
		}
		return dsn, nil

	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(d.Host, d.portOr("3306"))
		mc.DBName = d.Name
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	}
	return "", fmt.Errorf("unsupported DB_DRIVER %q", d.Driver)
}

func (d DatabaseConfig) portOr(def string) string {
	if d.Port != "" {
		return d.Port
	}
	return def
}

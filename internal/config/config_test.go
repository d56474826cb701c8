package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "SECRET_KEY", "SESSION_TTL", "SERVER_PORT", "ADMIN_PASSWORD", "KAFKA_BROKERS", "CATEGORY_DELETE_POLICY"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "set-null", cfg.CategoryDeletePolicy)
	assert.True(t, cfg.UsesDefaultSecret())
	assert.Equal(t, DefaultAdminPassword, cfg.Admin.Password)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://app:pw@db:5432/dulce?sslmode=disable")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SECURE_COOKIES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.SecureCookies)
	assert.False(t, cfg.UsesDefaultSecret())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load()
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")

	t.Setenv("DB_DRIVER", "")
	t.Setenv("SESSION_TTL", "mañana")
	_, err = Load()
	assert.ErrorContains(t, err, "SESSION_TTL")
}

func TestDSN(t *testing.T) {
	dsn, err := DatabaseConfig{Driver: DriverSQLite, SQLitePath: "x.db"}.DSN()
	require.NoError(t, err)
	assert.Equal(t, "x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dsn)

	_, err = DatabaseConfig{Driver: DriverSQLite}.DSN()
	assert.Error(t, err)

	dsn, err = DatabaseConfig{Driver: DriverPostgres, Host: "db", User: "app", Password: "pw", Name: "dulce"}.DSN()
	require.NoError(t, err)
	for _, part := range []string{"host=db", "port=5432", "user=app", "password=pw", "dbname=dulce", "sslmode=disable"} {
		assert.Contains(t, dsn, part)
	}

	dsn, err = DatabaseConfig{Driver: DriverMySQL, Host: "localhost", User: "root", Password: "pw", Name: "dulce"}.DSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "root:pw@tcp(localhost:3306)/dulce?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("A_INT", "nope")
	assert.Equal(t, 3, EnvIntDefault("A_INT", 3))
	t.Setenv("A_BOOL", "1")
	assert.True(t, EnvBoolDefault("A_BOOL", false))
	t.Setenv("FIRST", "")
	t.Setenv("SECOND", "dos")
	assert.Equal(t, "dos", EnvDefault("def", "FIRST", "SECOND"))
	assert.Nil(t, CSV(""))
}

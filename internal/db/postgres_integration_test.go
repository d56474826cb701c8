//go:build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/Skotchmaster/dulcehogar/internal/config"
	"github.com/Skotchmaster/dulcehogar/internal/db"
	"github.com/Skotchmaster/dulcehogar/internal/models"
)

func openPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("dulcehogar"),
		postgres.WithUsername("dulce"),
		postgres.WithPassword("dulce"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	url, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := db.Open(ctx, config.DatabaseConfig{Driver: config.DriverPostgres, URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	require.NoError(t, db.Migrate(ctx, gdb))
	return gdb
}

func TestPostgresSchema(t *testing.T) {
	gdb := openPostgres(t)
	ctx := context.Background()

	cat := &models.Category{Name: "Postres"}
	require.NoError(t, gdb.WithContext(ctx).Create(cat).Error)
	err := gdb.WithContext(ctx).Create(&models.Category{Name: "Postres"}).Error
	assert.True(t, db.IsUniqueViolation(err))

	prod := &models.Product{Name: "Pastel", Quantity: 3, Price: 10, CategoryID: &cat.ID}
	require.NoError(t, gdb.WithContext(ctx).Create(prod).Error)

	// products survive their category
	require.NoError(t, gdb.WithContext(ctx).Delete(&models.Category{}, cat.ID).Error)
	var got models.Product
	require.NoError(t, gdb.WithContext(ctx).First(&got, prod.ID).Error)
	assert.Nil(t, got.CategoryID)

	neg := &models.Product{Name: "Roto", Quantity: -1}
	assert.Error(t, gdb.WithContext(ctx).Create(neg).Error)

	cust := &models.Customer{Name: "Lucía", Email: "lucia@example.com"}
	require.NoError(t, gdb.WithContext(ctx).Create(cust).Error)
	order := &models.Order{CustomerID: cust.ID, Date: "2024-05-01", Status: models.OrderStatusOpen}
	require.NoError(t, gdb.WithContext(ctx).Create(order).Error)

	// a customer with orders cannot be removed
	assert.Error(t, gdb.WithContext(ctx).Delete(&models.Customer{}, cust.ID).Error)
}

package generator

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chrisdamba/opsboard/internal/dataset"
	"github.com/chrisdamba/opsboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	dir := t.TempDir()
	return &models.Config{
		OrdersFile:          filepath.Join(dir, "orders_cleaned.csv"),
		PaymentsFile:        filepath.Join(dir, "payments_cleaned.csv"),
		Seed:                42,
		SeedOrders:          200,
		StartDate:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		UndeliveredFraction: 0.1,
	}
}

func TestGenerator_OutputLoadsCleanly(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, New(cfg).Run())

	orders, err := dataset.LoadOrders(cfg.OrdersFile)
	require.NoError(t, err)
	require.Len(t, orders, cfg.SeedOrders)

	payments, err := dataset.LoadPayments(cfg.PaymentsFile)
	require.NoError(t, err)
	// 1 to 3 payment rows per order
	assert.GreaterOrEqual(t, len(payments), cfg.SeedOrders)
	assert.LessOrEqual(t, len(payments), 3*cfg.SeedOrders)

	orderIDs := make(map[string]struct{}, len(orders))
	for _, order := range orders {
		orderIDs[order.ID] = struct{}{}
		assert.False(t, order.PurchasedAt.Before(cfg.StartDate))
		assert.False(t, order.PurchasedAt.After(cfg.EndDate))
		if order.DeliveredAt != nil {
			assert.True(t, order.DeliveredAt.After(order.PurchasedAt))
		}
	}
	// demo orders are one row per order
	assert.Len(t, orderIDs, cfg.SeedOrders)

	for _, payment := range payments {
		_, ok := orderIDs[payment.OrderID]
		assert.True(t, ok, "payment references unknown order %s", payment.OrderID)
		assert.GreaterOrEqual(t, payment.Value, 0.0)
	}
}

func TestGenerator_SomeOrdersLackDeliveryScan(t *testing.T) {
	cfg := testConfig(t)
	cfg.UndeliveredFraction = 0.5
	require.NoError(t, New(cfg).Run())

	orders, err := dataset.LoadOrders(cfg.OrdersFile)
	require.NoError(t, err)

	var undelivered int
	for _, order := range orders {
		if order.DeliveredAt == nil {
			undelivered++
		}
	}
	assert.Greater(t, undelivered, 0)
	assert.Less(t, undelivered, len(orders))
}

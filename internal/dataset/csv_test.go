package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrisdamba/opsboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOrders(t *testing.T) {
	path := writeCSV(t, "orders.csv",
		"order_id,order_purchase_timestamp,order_delivered_customer_date\n"+
			"o1,2024-01-01 10:30:00,2024-01-05 16:45:00\n"+
			"o2,2024-01-02 08:00:00,\n")

	orders, err := LoadOrders(path)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "o1", orders[0].ID)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC), orders[0].PurchasedAt)
	require.NotNil(t, orders[0].DeliveredAt)
	assert.Equal(t, time.Date(2024, 1, 5, 16, 45, 0, 0, time.UTC), *orders[0].DeliveredAt)

	// blank delivered date loads as nil, not as an error
	assert.Nil(t, orders[1].DeliveredAt)
}

func TestLoadOrders_ExtraColumnsIgnored(t *testing.T) {
	path := writeCSV(t, "orders.csv",
		"customer_id,order_id,order_status,order_purchase_timestamp,order_delivered_customer_date\n"+
			"c9,o1,delivered,2024-01-01 10:30:00,2024-01-03 09:00:00\n")

	orders, err := LoadOrders(path)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
}

func TestLoadOrders_MissingColumnFailsFast(t *testing.T) {
	path := writeCSV(t, "orders.csv",
		"order_id,order_purchase_timestamp\n"+
			"o1,2024-01-01 10:30:00\n")

	_, err := LoadOrders(path)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "order_delivered_customer_date")
}

func TestLoadOrders_BadTimestampIsFatal(t *testing.T) {
	path := writeCSV(t, "orders.csv",
		"order_id,order_purchase_timestamp,order_delivered_customer_date\n"+
			"o1,not-a-date,\n")

	_, err := LoadOrders(path)
	assert.Error(t, err)
}

func TestLoadOrders_MissingFileIsFatal(t *testing.T) {
	_, err := LoadOrders(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestLoadPayments(t *testing.T) {
	path := writeCSV(t, "payments.csv",
		"order_id,payment_type,payment_value\n"+
			"o1,credit_card,120.55\n"+
			"o1,voucher,30\n"+
			"o2,debit_card,99.90\n")

	payments, err := LoadPayments(path)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, models.Payment{OrderID: "o1", Type: "credit_card", Value: 120.55}, payments[0])
	assert.Equal(t, models.Payment{OrderID: "o1", Type: "voucher", Value: 30}, payments[1])
}

func TestLoadPayments_MissingColumnFailsFast(t *testing.T) {
	path := writeCSV(t, "payments.csv",
		"order_id,payment_value\n"+
			"o1,120.55\n")

	_, err := LoadPayments(path)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "payment_type")
}

func TestLoadPayments_RejectsNegativeValues(t *testing.T) {
	path := writeCSV(t, "payments.csv",
		"order_id,payment_type,payment_value\n"+
			"o1,credit_card,-5\n")

	_, err := LoadPayments(path)
	assert.Error(t, err)
}

func TestCSVSource_LoadIsDeterministic(t *testing.T) {
	ordersPath := writeCSV(t, "orders.csv",
		"order_id,order_purchase_timestamp,order_delivered_customer_date\n"+
			"o1,2024-01-01 10:30:00,2024-01-05 16:45:00\n")
	paymentsPath := writeCSV(t, "payments.csv",
		"order_id,payment_type,payment_value\n"+
			"o1,credit_card,120.55\n")

	source := &CSVSource{OrdersPath: ordersPath, PaymentsPath: paymentsPath}

	orders1, payments1, err := source.Load(context.Background())
	require.NoError(t, err)
	orders2, payments2, err := source.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, orders1, orders2)
	assert.Equal(t, payments1, payments2)
}

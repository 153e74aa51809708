package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/chrisdamba/opsboard/internal/models"
)

// timestampLayouts are tried in order; the cleaned exports use the
// space-separated layout, re-exports sometimes carry RFC3339.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// CSVSource reads the cleaned orders and payments exports from disk.
type CSVSource struct {
	OrdersPath   string
	PaymentsPath string
}

func NewCSVSource(cfg *models.Config) *CSVSource {
	return &CSVSource{
		OrdersPath:   cfg.OrdersFile,
		PaymentsPath: cfg.PaymentsFile,
	}
}

func (s *CSVSource) Load(ctx context.Context) ([]models.Order, []models.Payment, error) {
	orders, err := LoadOrders(s.OrdersPath)
	if err != nil {
		return nil, nil, err
	}
	payments, err := LoadPayments(s.PaymentsPath)
	if err != nil {
		return nil, nil, err
	}
	return orders, payments, nil
}

// LoadOrders reads the orders export. The delivered-customer column may be
// blank, which loads as a nil DeliveredAt; every other parse failure is fatal.
func LoadOrders(path string) ([]models.Order, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening orders file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading orders header: %w", err)
	}

	cols, err := columnIndex(path, header,
		models.ColumnOrderID,
		models.ColumnPurchaseTimestamp,
		models.ColumnDeliveredTimestamp,
	)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading orders row %d: %w", line, err)
		}
		line++

		purchased, err := parseTimestamp(fields[cols[models.ColumnPurchaseTimestamp]])
		if err != nil {
			return nil, fmt.Errorf("orders row %d: bad purchase timestamp: %w", line, err)
		}

		order := models.Order{
			ID:          fields[cols[models.ColumnOrderID]],
			PurchasedAt: purchased,
		}
		if raw := fields[cols[models.ColumnDeliveredTimestamp]]; raw != "" {
			delivered, err := parseTimestamp(raw)
			if err != nil {
				return nil, fmt.Errorf("orders row %d: bad delivered timestamp: %w", line, err)
			}
			order.DeliveredAt = &delivered
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// LoadPayments reads the payments export. Payment values must parse and be
// non-negative; the cleaning pipeline upstream guarantees both, so a
// violation means the wrong file was pointed at.
func LoadPayments(path string) ([]models.Payment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening payments file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading payments header: %w", err)
	}

	cols, err := columnIndex(path, header,
		models.ColumnOrderID,
		models.ColumnPaymentType,
		models.ColumnPaymentValue,
	)
	if err != nil {
		return nil, err
	}

	var payments []models.Payment
	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading payments row %d: %w", line, err)
		}
		line++

		value, err := strconv.ParseFloat(fields[cols[models.ColumnPaymentValue]], 64)
		if err != nil {
			return nil, fmt.Errorf("payments row %d: bad payment value: %w", line, err)
		}
		if value < 0 {
			return nil, fmt.Errorf("payments row %d: negative payment value %v", line, value)
		}

		payments = append(payments, models.Payment{
			OrderID: fields[cols[models.ColumnOrderID]],
			Type:    fields[cols[models.ColumnPaymentType]],
			Value:   value,
		})
	}

	return payments, nil
}

// columnIndex maps required column names to their header positions and
// fails with a named-column error for anything absent.
func columnIndex(table string, header []string, required ...string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, missingColumn(table, name)
		}
	}
	return index, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

package dataset

import (
	"context"
	"fmt"

	"github.com/chrisdamba/opsboard/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource loads the cleaned tables from a warehouse that already
// landed them, skipping the CSV hop. Read-only: the dashboard never
// writes back.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

func (s *PostgresSource) Load(ctx context.Context) ([]models.Order, []models.Payment, error) {
	orders, err := s.loadOrders(ctx)
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.loadPayments(ctx)
	if err != nil {
		return nil, nil, err
	}
	return orders, payments, nil
}

func (s *PostgresSource) loadOrders(ctx context.Context) ([]models.Order, error) {
	query := `
        SELECT order_id, order_purchase_timestamp, order_delivered_customer_date
        FROM orders_cleaned`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.PurchasedAt, &order.DeliveredAt); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (s *PostgresSource) loadPayments(ctx context.Context) ([]models.Payment, error) {
	query := `
        SELECT order_id, payment_type, payment_value
        FROM payments_cleaned`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var payment models.Payment
		if err := rows.Scan(&payment.OrderID, &payment.Type, &payment.Value); err != nil {
			return nil, fmt.Errorf("scanning payment row: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (s *PostgresSource) Close() {
	s.pool.Close()
}

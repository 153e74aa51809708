package models

import "time"

// Order is one row of the cleaned orders export. The table is at line-item
// granularity, so several rows may carry the same ID.
type Order struct {
	ID          string     `json:"order_id"`
	PurchasedAt time.Time  `json:"order_purchase_timestamp"`
	DeliveredAt *time.Time `json:"order_delivered_customer_date"` // nil when delivery was never recorded
}

// Delivered reports whether the carrier recorded a customer delivery date.
func (o Order) Delivered() bool {
	return o.DeliveredAt != nil
}

// DeliveredOrder is the derived, delivery-dated view of an Order that the
// SLA metrics run over. DeliveryDays is the whole-day difference between
// delivery and purchase, fractional days dropped.
type DeliveredOrder struct {
	ID           string    `json:"order_id"`
	PurchasedAt  time.Time `json:"order_purchase_timestamp"`
	DeliveredAt  time.Time `json:"order_delivered_customer_date"`
	DeliveryDays int       `json:"delivery_time_days"`
	Late         bool      `json:"is_late"`
}

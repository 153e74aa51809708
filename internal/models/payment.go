package models

// Payment is one row of the cleaned payments export. An order may settle
// across several payment rows; revenue sums them all without deduplication.
type Payment struct {
	OrderID string  `json:"order_id"`
	Type    string  `json:"payment_type"`
	Value   float64 `json:"payment_value"`
}

package models

const (
	PaymentTypeCreditCard = "credit_card"
	PaymentTypeDebitCard  = "debit_card"
	PaymentTypeVoucher    = "voucher"
	PaymentTypeBoleto     = "boleto"

	ColumnOrderID            = "order_id"
	ColumnPurchaseTimestamp  = "order_purchase_timestamp"
	ColumnDeliveredTimestamp = "order_delivered_customer_date"
	ColumnPaymentType        = "payment_type"
	ColumnPaymentValue       = "payment_value"

	// Orders delivered in more than this many whole days count as late.
	DefaultSLADays = 7
)

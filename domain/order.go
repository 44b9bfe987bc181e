package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentCreditCard = "credit_card"
	PaymentDebitCard  = "debit_card"
	PaymentPayPal     = "paypal"
	PaymentApplePay   = "apple_pay"
	PaymentGooglePay  = "google_pay"

	OrderStatusCompleted  = "completed"
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"
)

// Order references its customer by email; the surrogate id is resolved at load time.
// ID is the 1-based position of the order once the batch is sorted chronologically.
type Order struct {
	ID              int             `json:"order_id"`
	CustomerEmail   string          `json:"customer_id"`
	OrderDate       time.Time       `json:"order_date"`
	Total           decimal.Decimal `json:"order_total"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress string          `json:"shipping_address"`
	Status          string          `json:"order_status"`
}

// OrderItem is a single line of an order.
type OrderItem struct {
	OrderID        int             `json:"order_id"`
	ProductID      int             `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// Gross is quantity times unit price, before discount.
func (i OrderItem) Gross() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineTotal is the amount charged for the line.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Gross().Sub(i.DiscountAmount)
}

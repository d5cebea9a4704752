package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventory "github.com/dmehra2102/storefront/internal/inventory/domain"
)

const (
	AggregateOrder = "order"

	EventOrderCreated = "order.created"
	EventOrderPaid    = "order.paid"
)

type Line = inventory.Line

type OrderCreated struct {
	OrderID     uuid.UUID       `json:"orderId"`
	UserID      uuid.UUID       `json:"userId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []OrderItem     `json:"items"`
}

type OrderPaid struct {
	OrderID     uuid.UUID       `json:"orderId"`
	UserID      uuid.UUID       `json:"userId"`
	PaymentRef  string          `json:"paymentRef"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// OrderItem snapshots the unit price at checkout time.
type OrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"userId"`
	Items              []OrderItem     `json:"items"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus"`
	DeliveryAddress    DeliveryAddress `json:"deliveryAddress"`
	ExternalPaymentRef *string         `json:"externalPaymentRef,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func NewOrder(id, userID uuid.UUID, items []OrderItem, addr DeliveryAddress, now time.Time) Order {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	now = now.UTC()
	return Order{
		ID:              id,
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		PaymentStatus:   PaymentPending,
		DeliveryAddress: addr.Normalize(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (o *Order) IsPending() bool { return o.PaymentStatus == PaymentPending }

// AttachPaymentReference binds an external payment reference. Re-attaching
// the same reference is a no-op; a different one is rejected.
func (o *Order) AttachPaymentReference(ref string, now time.Time) (changed bool, err error) {
	if !o.IsPending() {
		return false, ErrAlreadyProcessed
	}
	if o.ExternalPaymentRef != nil {
		if *o.ExternalPaymentRef == ref {
			return false, nil
		}
		return false, ErrReferenceConflict
	}
	o.ExternalPaymentRef = &ref
	o.UpdatedAt = now.UTC()
	return true, nil
}

// MarkCompleted is the only way out of pending for a paid order.
func (o *Order) MarkCompleted(now time.Time) error {
	if !o.IsPending() {
		return ErrAlreadyProcessed
	}
	o.PaymentStatus = PaymentCompleted
	o.UpdatedAt = now.UTC()
	return nil
}

func (o *Order) Lines() []Line {
	lines := make([]Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

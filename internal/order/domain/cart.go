package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventory "github.com/dmehra2102/storefront/internal/inventory/domain"
)

type CartLine struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// Cart is a user's mutable pre-purchase selection. A user owns at most one
// cart; it is created on first add and kept (possibly empty) afterwards.
type Cart struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	Lines      []CartLine      `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func NewCart(id, userID uuid.UUID, now time.Time) Cart {
	now = now.UTC()
	return Cart{
		ID:         id,
		UserID:     userID,
		Lines:      []CartLine{},
		TotalPrice: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

func (c *Cart) QuantityOf(productID uuid.UUID) int {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// Add merges quantity units of product into the cart. The cart is left
// untouched when the quantity is not positive or would exceed stock.
func (c *Cart) Add(productID uuid.UUID, productName string, quantity, stock int) error {
	if quantity <= 0 {
		return ErrQuantityNotPositive
	}
	// Compared against what is left so a huge quantity cannot wrap around.
	if err := inventory.CheckAvailable(productName, stock-c.QuantityOf(productID), quantity); err != nil {
		return err
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += quantity
			return nil
		}
	}
	c.Lines = append(c.Lines, CartLine{ProductID: productID, Quantity: quantity})
	return nil
}

// Reprice recomputes TotalPrice from current unit prices. Every line must
// have a price; a missing one means the product was removed from the catalog.
func (c *Cart) Reprice(prices map[uuid.UUID]decimal.Decimal) error {
	total := decimal.Zero
	for _, l := range c.Lines {
		price, ok := prices[l.ProductID]
		if !ok {
			return ErrStaleProduct
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	c.TotalPrice = total
	return nil
}

func (c *Cart) Clear() {
	c.Lines = []CartLine{}
	c.TotalPrice = decimal.Zero
}

func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

// StockLines lists the cart as quantities to check against the ledger.
func (c *Cart) StockLines() []Line {
	lines := make([]Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return lines
}

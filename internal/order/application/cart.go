package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/store"
)

// AddItem puts quantity units of a product into the user's cart, creating
// the cart on first use. The stored cart is unchanged when any step fails.
func (s *Service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (domain.Cart, error) {
	if productID == uuid.Nil {
		return domain.Cart{}, domain.ErrProductIDRequired
	}
	if quantity <= 0 {
		return domain.Cart{}, domain.ErrQuantityNotPositive
	}

	var cart domain.Cart
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		product, err := tx.Products().Get(ctx, productID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
		}
		if err != nil {
			return err
		}

		c, err := tx.Carts().GetByUser(ctx, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c = domain.NewCart(s.newID(), userID, s.now())
		case err != nil:
			return err
		}

		if err := c.Add(product.ID, product.Name, quantity, product.Stock); err != nil {
			return err
		}

		products, err := tx.Products().GetMany(ctx, c.ProductIDs())
		if err != nil {
			return err
		}
		prices := make(map[uuid.UUID]decimal.Decimal, len(products))
		for id, p := range products {
			prices[id] = p.Price
		}
		if err := c.Reprice(prices); err != nil {
			return err
		}
		c.UpdatedAt = s.now().UTC()

		if err := tx.Carts().Save(ctx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return domain.Cart{}, err
	}
	s.log.Info("cart updated", "user_id", userID, "product_id", productID, "quantity", quantity, "total", cart.TotalPrice.String())
	return cart, nil
}
